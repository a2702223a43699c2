package singleshot

type Configuration struct {
	RunDir              string  `json:"run_dir"`
	DestDir             string  `json:"dest_dir"`
	OutputFile          string  `json:"output_file"`
	TempFile            string  `json:"temp_file"`
	Logfile             string  `json:"logfile"`
	MaskFile            string  `json:"mask_file"`
	RoisFile            string  `json:"rois_file"`
	RunNumber           int     `json:"run_number"`
	BorderSize          int     `json:"border_size"`
	DiscardFirstLast    bool    `json:"discard_first_last"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	SampleWindowStart   int     `json:"sample_window_start"`
	NumWorkers          int     `json:"num_workers"`
	CheckpointInterval  int     `json:"checkpoint_interval"`
	ProcessOnly         bool    `json:"process_only"`
	CollectOnly         bool    `json:"collect_only"`
	Verbosity           int     `json:"verbosity"`
	NoDB                bool    `json:"no_db"`
	Host                string  `json:"host"`
	User                string  `json:"user"`
	Passwd              string  `json:"pass"`
	DBName              string  `json:"dbname"`
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
