package singleshot

import (
	"fmt"
	"os"
	"sort"

	hdf5 "github.com/jmbenlloch/go-hdf5"
	"golang.org/x/exp/maps"
)

// Dataset and group names inside an intermediate result file.
const (
	confidenceDset  = "confidence"
	delayDset       = "delay"
	maskDset        = "mask"
	pumpOnGroup     = "pump_on"
	pumpOffGroup    = "pump_off"
	roisGroup       = "rois"
	sumDset         = "sum_intensities"
	avgDset         = "avg_intensities"
	histogramDset   = "histogram"
	frameRangeDset  = "frame_range"
	filesPerDelay   = "files_per_delay"
	progressDset    = "progress"
)

// ConditionBlock holds the reduced quantities of one pump condition.
type ConditionBlock struct {
	FrameRange     FrameRange
	SumIntensities []float64 // per-frame masked total
	AvgIntensities []float64 // height*width normalized average image
	Histogram      []uint64
	ROISums        map[string][]float64 // per-frame totals inside each window
}

// IntermediateResult is the per-acquisition reduction written next to
// (or mirroring) the raw file.
type IntermediateResult struct {
	Delay      float64
	Confidence float64
	Height     int
	Width      int
	Mask       []uint16
	PumpOn     ConditionBlock
	PumpOff    ConditionBlock
}

// WriteIntermediate stores res at path. The file is created
// exclusively: an existing file at path is never touched, which is
// what makes reprocessing a run idempotent. A partially written file
// is removed before the error is returned.
func WriteIntermediate(path string, res *IntermediateResult) error {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_EXCL)
	if err != nil {
		return &ErrDestinationExists{Filename: path}
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
		writeIntermediateDatasets(&f.CommonFG, res)
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

func writeIntermediateDatasets(loc *hdf5.CommonFG, res *IntermediateResult) {
	writeScalar(loc, confidenceDset, hdf5.T_NATIVE_DOUBLE, res.Confidence)
	writeScalar(loc, delayDset, hdf5.T_NATIVE_DOUBLE, res.Delay)
	dims := []uint{uint(res.Height), uint(res.Width)}
	writeDataset(loc, maskDset, dims, hdf5.T_NATIVE_UINT16, res.Mask)
	writeCondition(loc, pumpOnGroup, &res.PumpOn, dims)
	writeCondition(loc, pumpOffGroup, &res.PumpOff, dims)
}

func writeCondition(loc *hdf5.CommonFG, name string, c *ConditionBlock, imgDims []uint) {
	g := createGroup(loc, name)
	defer g.Close()

	writeDataset(&g.CommonFG, sumDset, []uint{uint(len(c.SumIntensities))}, hdf5.T_NATIVE_DOUBLE, c.SumIntensities)
	writeDataset(&g.CommonFG, avgDset, imgDims, hdf5.T_NATIVE_DOUBLE, c.AvgIntensities)
	writeDataset(&g.CommonFG, histogramDset, []uint{HistogramBins}, hdf5.T_NATIVE_UINT64, c.Histogram)
	encoded := EncodeRange(c.FrameRange)
	writeDataset(&g.CommonFG, frameRangeDset, []uint{rangeTupleLen}, hdf5.T_NATIVE_INT64, encoded[:])

	rg := createGroup(&g.CommonFG, roisGroup)
	defer rg.Close()
	names := maps.Keys(c.ROISums)
	sort.Strings(names)
	for _, roiName := range names {
		sub := createGroup(&rg.CommonFG, roiName)
		sums := c.ROISums[roiName]
		writeDataset(&sub.CommonFG, sumDset, []uint{uint(len(sums))}, hdf5.T_NATIVE_DOUBLE, sums)
		sub.Close()
	}
}

// ReadIntermediate loads a previously written intermediate result.
func ReadIntermediate(path string) (*IntermediateResult, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	defer f.Close()

	res := &IntermediateResult{}
	if res.Confidence, err = readScalar[float64](&f.CommonFG, confidenceDset); err != nil {
		return nil, err
	}
	if res.Delay, err = readScalar[float64](&f.CommonFG, delayDset); err != nil {
		return nil, err
	}
	mask, dims, err := readDataset[uint16](&f.CommonFG, maskDset)
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("mask in %s has rank %d, want 2", path, len(dims))
	}
	res.Mask = mask
	res.Height = int(dims[0])
	res.Width = int(dims[1])

	if res.PumpOn, err = readCondition(&f.CommonFG, pumpOnGroup); err != nil {
		return nil, err
	}
	if res.PumpOff, err = readCondition(&f.CommonFG, pumpOffGroup); err != nil {
		return nil, err
	}
	return res, nil
}

func readCondition(loc *hdf5.CommonFG, name string) (ConditionBlock, error) {
	var c ConditionBlock
	g, err := loc.OpenGroup(name)
	if err != nil {
		return c, fmt.Errorf("error opening group %q: %w", name, err)
	}
	defer g.Close()

	if c.SumIntensities, _, err = readDataset[float64](&g.CommonFG, sumDset); err != nil {
		return c, err
	}
	if c.AvgIntensities, _, err = readDataset[float64](&g.CommonFG, avgDset); err != nil {
		return c, err
	}
	if c.Histogram, _, err = readDataset[uint64](&g.CommonFG, histogramDset); err != nil {
		return c, err
	}
	encoded, _, err := readDataset[int64](&g.CommonFG, frameRangeDset)
	if err != nil {
		return c, err
	}
	if len(encoded) != rangeTupleLen {
		return c, fmt.Errorf("frame range in group %q has %d values, want %d", name, len(encoded), rangeTupleLen)
	}
	var tuple [rangeTupleLen]int64
	copy(tuple[:], encoded)
	c.FrameRange = DecodeRange(tuple)

	rg, err := g.OpenGroup(roisGroup)
	if err != nil {
		return c, fmt.Errorf("error opening group %q: %w", roisGroup, err)
	}
	defer rg.Close()
	n, err := rg.NumObjects()
	if err != nil {
		return c, err
	}
	c.ROISums = make(map[string][]float64, n)
	for i := uint(0); i < n; i++ {
		roiName, err := rg.ObjectNameByIndex(i)
		if err != nil {
			return c, err
		}
		sub, err := rg.OpenGroup(roiName)
		if err != nil {
			return c, fmt.Errorf("error opening group %q: %w", roiName, err)
		}
		sums, _, err := readDataset[float64](&sub.CommonFG, sumDset)
		sub.Close()
		if err != nil {
			return c, err
		}
		c.ROISums[roiName] = sums
	}
	return c, nil
}
