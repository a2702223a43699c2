package singleshot

import (
	"fmt"
	"os"
	"path/filepath"
)

// ProcessOptions carries everything Process needs besides the source
// path. Mask may be nil, which selects every pixel.
type ProcessOptions struct {
	RunDir  string
	DestDir string

	Mask       []uint16
	MaskHeight int
	MaskWidth  int

	ROIs ROISet

	BorderSize          int
	DiscardFirstLast    bool
	ConfidenceThreshold float64
	SampleWindowStart   int
}

// DestinationPath returns where the intermediate result of srcPath
// goes. With an empty DestDir the result sits next to the source;
// otherwise the run directory layout is mirrored under DestDir.
func (opts *ProcessOptions) DestinationPath(srcPath string) (string, error) {
	name := ProcessedName(filepath.Base(srcPath))
	if opts.DestDir == "" {
		return filepath.Join(filepath.Dir(srcPath), name), nil
	}
	rel, err := filepath.Rel(opts.RunDir, filepath.Dir(srcPath))
	if err != nil {
		return "", fmt.Errorf("error relating %s to run dir %s: %w", srcPath, opts.RunDir, err)
	}
	return filepath.Join(opts.DestDir, rel, name), nil
}

// Process reduces one acquisition file into an intermediate result.
// Files whose destination already exists are skipped, so a crashed run
// can simply be restarted over the same directories.
func Process(srcPath string, opts ProcessOptions) ([]Warning, error) {
	var warnings []Warning

	dest, err := opts.DestinationPath(srcPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dest); err == nil {
		return []Warning{&AlreadyProcessedWarning{Dest: dest}}, nil
	}

	delay, err := DelayFromFilename(srcPath)
	if err != nil {
		return nil, err
	}

	reader, err := OpenStack(srcPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	mask := opts.Mask
	if mask == nil {
		mask = OnesMask(reader.Height, reader.Width)
	} else if opts.MaskHeight != reader.Height || opts.MaskWidth != reader.Width {
		return nil, &ErrShapeMismatch{
			Filename: srcPath,
			Want:     [2]int{opts.MaskHeight, opts.MaskWidth},
			Got:      [2]int{reader.Height, reader.Width},
		}
	}
	if err := opts.ROIs.Validate(reader.Height, reader.Width); err != nil {
		return nil, fmt.Errorf("error processing %s: %w", srcPath, err)
	}

	borderSize := opts.BorderSize
	if borderSize <= 0 {
		borderSize = DefaultBorderSize
	}
	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}

	start, stop := SampleWindow(reader.Frames, opts.SampleWindowStart)
	evenSample, err := reader.ReadStrided(start, 2, (stop-start+1)/2)
	if err != nil {
		return nil, err
	}
	oddSample, err := reader.ReadStrided(start+1, 2, (stop-start)/2)
	if err != nil {
		return nil, err
	}

	borderMask := BorderMask(reader.Height, reader.Width, borderSize)
	pumpOnRange, pumpOffRange, confidence := DistinguishFrames(evenSample, oddSample, borderMask, opts.DiscardFirstLast)
	if confidence < threshold {
		warnings = append(warnings, &UndistinguishableWarning{Path: srcPath, Confidence: confidence})
	}

	logger.Info(fmt.Sprintf("reducing %s (delay %.3f ps, confidence %.1f)", filepath.Base(srcPath), delay, confidence), "processing")

	pumpOn, w, err := reduceCondition(reader, pumpOnRange, pumpOnGroup, srcPath, mask, opts.ROIs)
	if err != nil {
		return warnings, err
	}
	if w != nil {
		return append(warnings, w), nil
	}
	pumpOff, w, err := reduceCondition(reader, pumpOffRange, pumpOffGroup, srcPath, mask, opts.ROIs)
	if err != nil {
		return warnings, err
	}
	if w != nil {
		return append(warnings, w), nil
	}

	res := &IntermediateResult{
		Delay:      delay,
		Confidence: confidence,
		Height:     reader.Height,
		Width:      reader.Width,
		Mask:       mask,
		PumpOn:     *pumpOn,
		PumpOff:    *pumpOff,
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return warnings, err
	}
	if err := WriteIntermediate(dest, res); err != nil {
		if _, exists := err.(*ErrDestinationExists); exists {
			// Another worker got there first.
			return append(warnings, &AlreadyProcessedWarning{Dest: dest}), nil
		}
		return warnings, err
	}
	return warnings, nil
}

// reduceCondition reads the frames of one pump condition and computes
// its reduced quantities. A broken detector readout yields a warning
// instead of an error so the rest of the run keeps going.
func reduceCondition(reader *StackReader, fr FrameRange, condition, srcPath string, mask []uint16, rois ROISet) (*ConditionBlock, Warning, error) {
	stack, err := reader.ReadRange(fr)
	if err != nil {
		return nil, nil, err
	}
	if !CheckImageIntegrity(stack, mask) {
		w := &BrokenImageWarning{Path: srcPath, Condition: condition}
		return nil, w, nil
	}

	sums := MaskedSum(stack, mask)
	block := &ConditionBlock{
		FrameRange:     fr,
		SumIntensities: sums,
		AvgIntensities: NormedSum(stack, sums),
		Histogram:      MaskedHistogram(stack, mask),
		ROISums:        make(map[string][]float64, len(rois)),
	}
	for _, name := range rois.SortedNames() {
		block.ROISums[name] = IndexedMaskedSum(stack, rois[name], mask)
	}
	return block, nil, nil
}
