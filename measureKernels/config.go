package main

import (
	"encoding/json"
	"fmt"
	"os"

	singleshot "github.com/uedtools/singleshot_go/pkg"
)

func LoadConfiguration(filename string) (singleshot.Configuration, error) {
	var config singleshot.Configuration

	// Set default values
	config.BorderSize = singleshot.DefaultBorderSize
	config.DiscardFirstLast = true
	config.ConfidenceThreshold = singleshot.DefaultConfidenceThreshold
	config.SampleWindowStart = -1
	config.NumWorkers = 1
	config.CheckpointInterval = singleshot.DefaultCheckpointInterval
	config.Verbosity = 0
	config.NoDB = true

	if filename == "" {
		return config, nil
	}
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
	logger.Info(fmt.Sprintf("Border size: %d", config.BorderSize), "config")
	logger.Info(fmt.Sprintf("Discard first/last: %t", config.DiscardFirstLast), "config")
	logger.Info(fmt.Sprintf("Confidence threshold: %g", config.ConfidenceThreshold), "config")
	logger.Info(fmt.Sprintf("Sample window start: %d", config.SampleWindowStart), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}
