package singleshot

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/floats"
)

const delaysDset = "delays"

// DefaultCheckpointInterval is how many intermediate files go into the
// merge between temp-file checkpoints.
const DefaultCheckpointInterval = 25

// CollectOptions tunes the merge. An empty TempFile derives the
// checkpoint path from the destination. A non-nil ROIs set restricts
// the merge to intermediates whose windows are a subset of it; with a
// nil set the sample file defines the window layout unchecked.
type CollectOptions struct {
	TempFile           string
	CheckpointInterval int
	ROIs               ROISet
}

// MergeReport summarizes one merge for the caller.
type MergeReport struct {
	Sources     int
	Skipped     int
	Delays      []float64
	Confidences []float64
	Warnings    []Warning
}

// mergedCondition accumulates one pump condition across files. Average
// images and histograms are summed per delay; per-frame intensity
// traces are concatenated in file order.
type mergedCondition struct {
	SlotLen   int
	Avg       []float64 // delays * height * width
	Histogram []uint64  // delays * HistogramBins
	Sums      []float64
	ROISums   map[string][]float64
}

func newMergedCondition(numDelays, height, width, slotLen int, roiNames []string) *mergedCondition {
	c := &mergedCondition{
		SlotLen:   slotLen,
		Avg:       make([]float64, numDelays*height*width),
		Histogram: make([]uint64, numDelays*HistogramBins),
		ROISums:   make(map[string][]float64, len(roiNames)),
	}
	for _, name := range roiNames {
		c.ROISums[name] = nil
	}
	return c
}

func (c *mergedCondition) accumulate(delayIdx, imgLen int, block *ConditionBlock) error {
	if len(block.Histogram) != HistogramBins {
		return fmt.Errorf("histogram has %d bins, want %d", len(block.Histogram), HistogramBins)
	}
	floats.Add(c.Avg[delayIdx*imgLen:(delayIdx+1)*imgLen], block.AvgIntensities)
	histOff := delayIdx * HistogramBins
	for bin, count := range block.Histogram {
		c.Histogram[histOff+bin] += count
	}
	c.Sums = append(c.Sums, block.SumIntensities...)
	for name, trace := range block.ROISums {
		if _, ok := c.ROISums[name]; !ok {
			return fmt.Errorf("unexpected window %q", name)
		}
		c.ROISums[name] = append(c.ROISums[name], trace...)
	}
	return nil
}

// skip fills one file's worth of trace slots with NaN so the merged
// traces stay aligned with the file list even when a source is lost.
func (c *mergedCondition) skip() {
	nans := make([]float64, c.SlotLen)
	for i := range nans {
		nans[i] = math.NaN()
	}
	c.Sums = append(c.Sums, nans...)
	for name := range c.ROISums {
		c.ROISums[name] = append(c.ROISums[name], nans...)
	}
}

type mergedData struct {
	Delays        []float64
	FilesPerDelay []int64
	Confidences   []float64
	Mask          []uint16
	Height        int
	Width         int
	On            *mergedCondition
	Off           *mergedCondition
}

// Collect merges every intermediate result under srcDir into one
// dataset at destPath. Unreadable sources are skipped and recorded
// rather than failing the merge; the destination is only ever written
// completely, so its existence implies a full merge.
func Collect(srcDir, destPath string, opts CollectOptions) (*MergeReport, error) {
	files, err := ListIntermediateFiles(srcDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &ErrNoInputFiles{Dir: srcDir}
	}

	fileDelays := make([]float64, len(files))
	delaySet := make(map[float64]struct{})
	for i, f := range files {
		d, err := DelayFromFilename(f)
		if err != nil {
			return nil, err
		}
		fileDelays[i] = d
		delaySet[d] = struct{}{}
	}
	delays := maps.Keys(delaySet)
	sort.Float64s(delays)
	delayIndex := make(map[float64]int, len(delays))
	for i, d := range delays {
		delayIndex[d] = i
	}

	report := &MergeReport{Sources: len(files), Delays: delays}

	// Shape discovery from the first readable source; unreadable ones
	// are reported by the main pass below.
	var sample *IntermediateResult
	var sampleFile string
	for _, f := range files {
		if sample, err = ReadIntermediate(f); err == nil {
			sampleFile = f
			break
		}
	}
	if sample == nil {
		return nil, fmt.Errorf("no readable intermediate file under %q: %w", srcDir, err)
	}
	roiNames := maps.Keys(sample.PumpOn.ROISums)
	sort.Strings(roiNames)
	if opts.ROIs != nil {
		// A window the configuration does not know means the directory
		// was processed under a different ROI setup.
		for _, name := range roiNames {
			if _, ok := opts.ROIs[name]; !ok {
				return nil, &ErrUnknownROI{Filename: sampleFile, Name: name}
			}
		}
	}

	imgLen := sample.Height * sample.Width
	merged := &mergedData{
		Delays:        delays,
		FilesPerDelay: make([]int64, len(delays)),
		Mask:          sample.Mask,
		Height:        sample.Height,
		Width:         sample.Width,
		On:            newMergedCondition(len(delays), sample.Height, sample.Width, len(sample.PumpOn.SumIntensities), roiNames),
		Off:           newMergedCondition(len(delays), sample.Height, sample.Width, len(sample.PumpOff.SumIntensities), roiNames),
	}

	interval := opts.CheckpointInterval
	if interval == 0 {
		interval = DefaultCheckpointInterval
	}
	tempPath := opts.TempFile
	if tempPath == "" {
		tempPath = strings.TrimSuffix(destPath, ".h5") + "_tmp.h5"
	}

	for i, f := range files {
		res, err := ReadIntermediate(f)
		if err != nil {
			report.Warnings = append(report.Warnings, &MergeSourceWarning{Path: f, Err: err})
			report.Skipped++
			merged.On.skip()
			merged.Off.skip()
			merged.Confidences = append(merged.Confidences, math.NaN())
		} else {
			if res.Height != merged.Height || res.Width != merged.Width {
				return nil, &ErrShapeMismatch{
					Filename: f,
					Want:     [2]int{merged.Height, merged.Width},
					Got:      [2]int{res.Height, res.Width},
				}
			}
			di := delayIndex[fileDelays[i]]
			if err := merged.On.accumulate(di, imgLen, &res.PumpOn); err != nil {
				return nil, fmt.Errorf("error merging %s: %w", f, err)
			}
			if err := merged.Off.accumulate(di, imgLen, &res.PumpOff); err != nil {
				return nil, fmt.Errorf("error merging %s: %w", f, err)
			}
			merged.FilesPerDelay[di]++
			merged.Confidences = append(merged.Confidences, res.Confidence)
		}

		if interval > 0 && (i+1)%interval == 0 && i+1 < len(files) {
			progress := float64(i+1) / float64(len(files))
			if err := writeMerged(tempPath, merged, false, progress); err != nil {
				return nil, err
			}
			logger.Info(fmt.Sprintf("checkpoint at %d/%d files", i+1, len(files)), "collect")
		}
	}

	// Pre-division sums become averages only for delays that actually
	// saw a file; empty buckets stay zero.
	for di, count := range merged.FilesPerDelay {
		if count == 0 {
			continue
		}
		scale := 1 / float64(count)
		floats.Scale(scale, merged.On.Avg[di*imgLen:(di+1)*imgLen])
		floats.Scale(scale, merged.Off.Avg[di*imgLen:(di+1)*imgLen])
	}

	if err := writeMerged(destPath, merged, true, -1); err != nil {
		return nil, err
	}
	os.Remove(tempPath)

	report.Confidences = merged.Confidences
	logger.Info(fmt.Sprintf("merged %d files (%d skipped) into %s", len(files)-report.Skipped, report.Skipped, destPath), "collect")
	return report, nil
}

// writeMerged stores the merged dataset. Checkpoints overwrite the
// temp file and carry a progress fraction; the final write is
// exclusive.
func writeMerged(path string, m *mergedData, exclusive bool, progress float64) error {
	flags := hdf5.F_ACC_TRUNC
	if exclusive {
		flags = hdf5.F_ACC_EXCL
	}
	f, err := hdf5.CreateFile(path, flags)
	if err != nil {
		if exclusive {
			return &ErrDestinationExists{Filename: path}
		}
		return &ErrOpenFile{Filename: path, Err: err}
	}
	werr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				var ok bool
				if err, ok = r.(error); !ok {
					err = fmt.Errorf("error writing %s: %v", path, r)
				}
			}
		}()
		loc := &f.CommonFG
		writeDataset(loc, delaysDset, []uint{uint(len(m.Delays))}, hdf5.T_NATIVE_DOUBLE, m.Delays)
		writeDataset(loc, filesPerDelay, []uint{uint(len(m.FilesPerDelay))}, hdf5.T_NATIVE_INT64, m.FilesPerDelay)
		writeDataset(loc, confidenceDset, []uint{uint(len(m.Confidences))}, hdf5.T_NATIVE_DOUBLE, m.Confidences)
		writeDataset(loc, maskDset, []uint{uint(m.Height), uint(m.Width)}, hdf5.T_NATIVE_UINT16, m.Mask)
		writeMergedCondition(loc, pumpOnGroup, m.On, m)
		writeMergedCondition(loc, pumpOffGroup, m.Off, m)
		if progress >= 0 {
			writeScalar(loc, progressDset, hdf5.T_NATIVE_DOUBLE, progress)
		}
		return nil
	}()
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(path)
		return werr
	}
	return nil
}

func writeMergedCondition(loc *hdf5.CommonFG, name string, c *mergedCondition, m *mergedData) {
	g := createGroup(loc, name)
	defer g.Close()

	numDelays := uint(len(m.Delays))
	writeDataset(&g.CommonFG, avgDset, []uint{numDelays, uint(m.Height), uint(m.Width)}, hdf5.T_NATIVE_DOUBLE, c.Avg)
	writeDataset(&g.CommonFG, histogramDset, []uint{numDelays, HistogramBins}, hdf5.T_NATIVE_UINT64, c.Histogram)
	writeDataset(&g.CommonFG, sumDset, []uint{uint(len(c.Sums))}, hdf5.T_NATIVE_DOUBLE, c.Sums)

	rg := createGroup(&g.CommonFG, roisGroup)
	defer rg.Close()
	names := maps.Keys(c.ROISums)
	sort.Strings(names)
	for _, roiName := range names {
		sub := createGroup(&rg.CommonFG, roiName)
		trace := c.ROISums[roiName]
		writeDataset(&sub.CommonFG, sumDset, []uint{uint(len(trace))}, hdf5.T_NATIVE_DOUBLE, trace)
		sub.Close()
	}
}
