package singleshot

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampFormat is the wall-clock format used in the experiment log.
const TimestampFormat = "2006-01-02 15:04:05"

var (
	logTimestampPattern = regexp.MustCompile(`\d+-\d+-\d+ \d+:\d+:\d+`)
	logDelayPattern     = regexp.MustCompile(`time-delay -?\d+\.?\d*ps`)
	logScanPattern      = regexp.MustCompile(`scan \d+`)
)

const (
	pumpOnMarker  = "pump on image series acquired at scan "
	laserBgMarker = "laser background image series acquired"
)

// LogEntry is one pump-on acquisition recorded in the experiment log.
type LogEntry struct {
	Scan      int
	Delay     float64
	Timestamp time.Time
	Filename  string
}

// ExperimentLog holds the parsed plaintext log of one run. Entries keep
// the order of the log lines; file arrival order equals real
// acquisition order, which later real-time correlation relies on.
type ExperimentLog struct {
	Entries              []LogEntry
	DiagnosticTimestamps []time.Time
}

// ParseExperimentLog extracts the acquisition sequence from the
// experiment log. Raw filenames are reconstructed from scan number and
// delay under parent, mirroring the acquisition scripts' directory
// bookkeeping.
func ParseExperimentLog(logPath, parent string) (*ExperimentLog, error) {
	file, err := os.Open(logPath)
	if err != nil {
		return nil, &ErrOpenFile{Filename: logPath, Err: err}
	}
	defer file.Close()

	parsed := &ExperimentLog{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, pumpOnMarker):
			entry, err := parsePumpOnLine(line, parent)
			if err != nil {
				return nil, fmt.Errorf("error parsing log line %q: %w", line, err)
			}
			parsed.Entries = append(parsed.Entries, entry)
		case strings.Contains(line, laserBgMarker):
			stamp := logTimestampPattern.FindString(line)
			if stamp == "" {
				continue
			}
			ts, err := time.Parse(TimestampFormat, stamp)
			if err != nil {
				return nil, fmt.Errorf("error parsing log line %q: %w", line, err)
			}
			parsed.DiagnosticTimestamps = append(parsed.DiagnosticTimestamps, ts)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return parsed, nil
}

func parsePumpOnLine(line, parent string) (LogEntry, error) {
	scanMatch := logScanPattern.FindString(line)
	delayMatch := logDelayPattern.FindString(line)
	stampMatch := logTimestampPattern.FindString(line)
	if scanMatch == "" || delayMatch == "" || stampMatch == "" {
		return LogEntry{}, fmt.Errorf("line does not match the acquisition pattern")
	}

	scan, err := strconv.Atoi(strings.TrimPrefix(scanMatch, "scan "))
	if err != nil {
		return LogEntry{}, err
	}
	delayField := strings.TrimSuffix(strings.TrimPrefix(delayMatch, "time-delay "), "ps")
	delay, err := strconv.ParseFloat(delayField, 64)
	if err != nil {
		return LogEntry{}, err
	}
	ts, err := time.Parse(TimestampFormat, stampMatch)
	if err != nil {
		return LogEntry{}, err
	}

	filename := filepath.Join(parent,
		fmt.Sprintf("scan_%04d", scan),
		fmt.Sprintf("pumpon_%+010.3fps.h5", delay))
	return LogEntry{Scan: scan, Delay: delay, Timestamp: ts, Filename: filename}, nil
}

// FilenamesFromLogfile returns the raw stack filenames of a run in real
// acquisition order.
func FilenamesFromLogfile(logPath, parent string) ([]string, error) {
	parsed, err := ParseExperimentLog(logPath, parent)
	if err != nil {
		return nil, err
	}
	files := make([]string, len(parsed.Entries))
	for i, entry := range parsed.Entries {
		files[i] = entry.Filename
	}
	return files, nil
}
