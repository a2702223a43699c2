package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	sqlx "github.com/jmoiron/sqlx"
	singleshot "github.com/uedtools/singleshot_go/pkg"
)

var dbConn *sqlx.DB
var configuration singleshot.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		return
	}
	singleshot.SetConfiguration(configuration)
	singleshot.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	rois, err := loadROIs()
	if err != nil {
		logger.Error(err.Error())
		return
	}

	opts := singleshot.ProcessOptions{
		RunDir:              configuration.RunDir,
		DestDir:             configuration.DestDir,
		ROIs:                rois,
		BorderSize:          configuration.BorderSize,
		DiscardFirstLast:    configuration.DiscardFirstLast,
		ConfidenceThreshold: configuration.ConfidenceThreshold,
		SampleWindowStart:   configuration.SampleWindowStart,
	}
	if configuration.MaskFile != "" {
		mask, height, width, err := singleshot.LoadMask(configuration.MaskFile)
		if err != nil {
			logger.Error(err.Error())
			return
		}
		opts.Mask = mask
		opts.MaskHeight = height
		opts.MaskWidth = width
	}

	start := time.Now()
	if !configuration.CollectOnly {
		if err := processRun(opts); err != nil {
			logger.Error(err.Error())
			return
		}
	}
	if !configuration.ProcessOnly {
		if err := collectRun(rois); err != nil {
			logger.Error(err.Error())
			return
		}
	}
	duration := time.Since(start)
	logger.Info(fmt.Sprintf("Total time: %d ms", duration.Milliseconds()), "main")
}

// loadROIs picks the window source: run database when enabled, YAML
// file otherwise, none at all when neither is configured.
func loadROIs() (singleshot.ROISet, error) {
	if !configuration.NoDB {
		var err error
		dbConn, err = singleshot.ConnectToDatabase(configuration.User, configuration.Passwd, configuration.Host, configuration.DBName)
		if err != nil {
			return nil, fmt.Errorf("Error connecting to database: %w", err)
		}
		defer dbConn.Close()
		return singleshot.GetROIsFromDB(dbConn, configuration.RunNumber)
	}
	if configuration.RoisFile != "" {
		return singleshot.LoadROIs(configuration.RoisFile)
	}
	return nil, nil
}

// buildWorklist prefers the experiment log, which lists the files in
// real acquisition order, and falls back to a directory walk.
func buildWorklist() ([]string, error) {
	if configuration.Logfile != "" {
		return singleshot.FilenamesFromLogfile(configuration.Logfile, configuration.RunDir)
	}
	return singleshot.ListRawFiles(configuration.RunDir)
}

func processRun(opts singleshot.ProcessOptions) error {
	files, err := buildWorklist()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return &singleshot.ErrNoInputFiles{Dir: configuration.RunDir}
	}

	workers := configuration.NumWorkers
	if workers == 0 {
		reader, err := singleshot.OpenStack(files[0])
		if err != nil {
			return err
		}
		stackBytes := reader.SizeBytes()
		reader.Close()
		var warning singleshot.Warning
		workers, warning = singleshot.MaxWorkersFromMemory(stackBytes)
		if warning != nil {
			logger.Error(warning.Error())
		}
	}

	results, err := singleshot.RunProcessing(files, workers, opts)
	if err != nil {
		return err
	}
	report := singleshot.BuildRunReport(results)
	if VerbosityLevel > 1 {
		for _, w := range report.Warnings {
			logger.Info(w.Error(), "processing")
		}
	}
	logger.Info(report.Summary(), "processing")
	return nil
}

func collectRun(rois singleshot.ROISet) error {
	srcDir := configuration.DestDir
	if srcDir == "" {
		srcDir = configuration.RunDir
	}
	report, err := singleshot.Collect(srcDir, configuration.OutputFile, singleshot.CollectOptions{
		TempFile:           configuration.TempFile,
		CheckpointInterval: configuration.CheckpointInterval,
		ROIs:               rois,
	})
	if err != nil {
		return err
	}
	for _, w := range report.Warnings {
		logger.Error(w.Error())
	}
	logger.Info(report.Summary(), "collect")
	return nil
}
