package singleshot

import (
	"fmt"
	"os"
	"sort"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"
)

// Span is a half-open [Start, Stop) index range along one frame axis.
type Span struct {
	Start int
	Stop  int
}

// ROI is a named rectangular sub-window of a frame.
type ROI struct {
	Rows Span
	Cols Span
}

// ROISet maps region names to their windows. Iteration over a set must
// always go through SortedNames so the output group layout is
// deterministic.
type ROISet map[string]ROI

// SortedNames returns the region names in lexicographic order.
func (r ROISet) SortedNames() []string {
	names := maps.Keys(r)
	sort.Strings(names)
	return names
}

// Validate checks that every window fits inside a height x width frame.
func (r ROISet) Validate(height, width int) error {
	for _, name := range r.SortedNames() {
		roi := r[name]
		if roi.Rows.Start < 0 || roi.Rows.Stop > height || roi.Rows.Start >= roi.Rows.Stop ||
			roi.Cols.Start < 0 || roi.Cols.Stop > width || roi.Cols.Start >= roi.Cols.Stop {
			return fmt.Errorf("ROI %q window [%d:%d, %d:%d] does not fit a %dx%d frame",
				name, roi.Rows.Start, roi.Rows.Stop, roi.Cols.Start, roi.Cols.Stop, height, width)
		}
	}
	return nil
}

type roiFileEntry struct {
	Rows [2]int `yaml:"rows"`
	Cols [2]int `yaml:"cols"`
}

// LoadROIs reads an ROI set from a YAML file of the form
//
//	bragg_1:
//	  rows: [172, 186]
//	  cols: [126, 140]
func LoadROIs(filename string) (ROISet, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	entries := make(map[string]roiFileEntry)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("error parsing ROI file %q: %w", filename, err)
	}
	rois := make(ROISet, len(entries))
	for name, entry := range entries {
		rois[name] = ROI{
			Rows: Span{Start: entry.Rows[0], Stop: entry.Rows[1]},
			Cols: Span{Start: entry.Cols[0], Stop: entry.Cols[1]},
		}
	}
	return rois, nil
}
