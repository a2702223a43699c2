package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/ianlancetaylor/cgosymbolizer"
	singleshot "github.com/uedtools/singleshot_go/pkg"
)

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
	fileIn := flag.String("file", "", "Acquisition file to measure")
	repeats := flag.Int("repeats", 3, "Repetitions per measurement")
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
		printConfiguration(configuration, logger)
	}

	reader, err := singleshot.OpenStack(*fileIn)
	if err != nil {
		logger.Error(err.Error())
		return
	}
	defer reader.Close()
	fmt.Printf("Stack: %d frames of %dx%d (%d bytes)\n", reader.Frames, reader.Height, reader.Width, reader.SizeBytes())

	measureReads(reader, *repeats)
	stack := measureKernels(reader, *repeats)
	measureWrites(stack, *repeats)
}

func measureReads(reader *singleshot.StackReader, repeats int) {
	for i := 0; i < repeats; i++ {
		start := time.Now()
		if _, err := reader.ReadAll(); err != nil {
			logger.Error(err.Error())
			return
		}
		fmt.Printf("(read full) Time: %d ms\n", time.Since(start).Milliseconds())
	}
	for i := 0; i < repeats; i++ {
		start := time.Now()
		if _, err := reader.ReadStrided(0, 2, reader.Frames/2); err != nil {
			logger.Error(err.Error())
			return
		}
		fmt.Printf("(read strided) Time: %d ms\n", time.Since(start).Milliseconds())
	}
	winStart, winStop := singleshot.SampleWindow(reader.Frames, configuration.SampleWindowStart)
	for i := 0; i < repeats; i++ {
		start := time.Now()
		if _, err := reader.ReadStrided(winStart, 2, (winStop-winStart+1)/2); err != nil {
			logger.Error(err.Error())
			return
		}
		fmt.Printf("(read window) Time: %d ms\n", time.Since(start).Milliseconds())
	}
}

func measureKernels(reader *singleshot.StackReader, repeats int) *singleshot.Stack {
	stack, err := reader.ReadAll()
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	mask := singleshot.OnesMask(reader.Height, reader.Width)
	border := singleshot.BorderMask(reader.Height, reader.Width, configuration.BorderSize)
	roi := singleshot.ROI{
		Rows: singleshot.Span{Start: reader.Height / 4, Stop: 3 * reader.Height / 4},
		Cols: singleshot.Span{Start: reader.Width / 4, Stop: 3 * reader.Width / 4},
	}

	var sums []float64
	for i := 0; i < repeats; i++ {
		start := time.Now()
		sums = singleshot.MaskedSum(stack, mask)
		fmt.Printf("(masked_sum) Time: %d ms\n", time.Since(start).Milliseconds())
	}
	for i := 0; i < repeats; i++ {
		start := time.Now()
		singleshot.MaskedSum(stack, border)
		fmt.Printf("(masked_sum border) Time: %d ms\n", time.Since(start).Milliseconds())
	}
	for i := 0; i < repeats; i++ {
		start := time.Now()
		singleshot.MaskedHistogram(stack, mask)
		fmt.Printf("(masked_histogram) Time: %d ms\n", time.Since(start).Milliseconds())
	}
	for i := 0; i < repeats; i++ {
		start := time.Now()
		singleshot.NormedSum(stack, sums)
		fmt.Printf("(normed_sum) Time: %d ms\n", time.Since(start).Milliseconds())
	}
	for i := 0; i < repeats; i++ {
		start := time.Now()
		singleshot.IndexedMaskedSum(stack, roi, mask)
		fmt.Printf("(indexed_masked_sum) Time: %d ms\n", time.Since(start).Milliseconds())
	}
	return stack
}

func measureWrites(stack *singleshot.Stack, repeats int) {
	mask := singleshot.OnesMask(stack.Height, stack.Width)
	sums := singleshot.MaskedSum(stack, mask)
	block := singleshot.ConditionBlock{
		FrameRange:     singleshot.FrameRange{Start: singleshot.Index(0), Step: singleshot.Index(2)},
		SumIntensities: sums,
		AvgIntensities: singleshot.NormedSum(stack, sums),
		Histogram:      singleshot.MaskedHistogram(stack, mask),
		ROISums:        map[string][]float64{},
	}
	res := &singleshot.IntermediateResult{
		Delay:      0,
		Confidence: 1,
		Height:     stack.Height,
		Width:      stack.Width,
		Mask:       mask,
		PumpOn:     block,
		PumpOff:    block,
	}

	out := "measure_out.h5"
	for i := 0; i < repeats; i++ {
		os.Remove(out)
		start := time.Now()
		if err := singleshot.WriteIntermediate(out, res); err != nil {
			logger.Error(err.Error())
			return
		}
		duration := time.Since(start)
		fileInfo, err := os.Stat(out)
		if err != nil {
			logger.Error(fmt.Sprintf("Error getting file info: %v", err))
			continue
		}
		fmt.Printf("(write intermediate) Time: %d ms, size %d bytes\n", duration.Milliseconds(), fileInfo.Size())
	}
	os.Remove(out)
}
