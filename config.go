package main

import (
	"encoding/json"
	"os"

	"fmt"

	singleshot "github.com/uedtools/singleshot_go/pkg"
)

func LoadConfiguration(filename string) (singleshot.Configuration, error) {
	var config singleshot.Configuration

	// Set default values
	config.DestDir = ""
	config.OutputFile = "merged.h5"
	config.TempFile = ""
	config.BorderSize = singleshot.DefaultBorderSize
	config.DiscardFirstLast = true
	config.ConfidenceThreshold = singleshot.DefaultConfidenceThreshold
	config.SampleWindowStart = -1
	config.NumWorkers = 0
	config.CheckpointInterval = singleshot.DefaultCheckpointInterval
	config.ProcessOnly = false
	config.CollectOnly = false
	config.Verbosity = 0
	config.NoDB = true
	config.Host = "ued.physics.mcgill.ca"
	config.User = "uedreader"
	config.Passwd = "readonly"
	config.DBName = "UED"

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func printConfiguration(config singleshot.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("Run dir: %s", config.RunDir), "config")
	logger.Info(fmt.Sprintf("Dest dir: %s", config.DestDir), "config")
	logger.Info(fmt.Sprintf("Output file: %s", config.OutputFile), "config")
	logger.Info(fmt.Sprintf("Temp file: %s", config.TempFile), "config")
	logger.Info(fmt.Sprintf("Logfile: %s", config.Logfile), "config")
	logger.Info(fmt.Sprintf("Mask file: %s", config.MaskFile), "config")
	logger.Info(fmt.Sprintf("ROIs file: %s", config.RoisFile), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("Border size: %d", config.BorderSize), "config")
	logger.Info(fmt.Sprintf("Discard first/last: %t", config.DiscardFirstLast), "config")
	logger.Info(fmt.Sprintf("Confidence threshold: %g", config.ConfidenceThreshold), "config")
	logger.Info(fmt.Sprintf("Sample window start: %d", config.SampleWindowStart), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Checkpoint interval: %d", config.CheckpointInterval), "config")
	logger.Info(fmt.Sprintf("Process only: %t", config.ProcessOnly), "config")
	logger.Info(fmt.Sprintf("Collect only: %t", config.CollectOnly), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}
