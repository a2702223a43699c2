package singleshot

import (
	"path/filepath"
	"testing"
)

// indexStack fills every pixel of frame i with the value i so reads
// can be traced back to their source frame.
func indexStack(frames, height, width int) *Stack {
	stack := NewStack(frames, height, width)
	for i := 0; i < frames; i++ {
		frame := stack.Frame(i)
		for p := range frame {
			frame[p] = uint16(i)
		}
	}
	return stack
}

func openFixture(t *testing.T, frames int) *StackReader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pumpon_+00000.000ps.h5")
	writeRawFixture(t, path, indexStack(frames, testHeight, testWidth))
	reader, err := OpenStack(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { reader.Close() })
	return reader
}

func TestOpenStackDims(t *testing.T) {
	reader := openFixture(t, 12)
	if reader.Frames != 12 || reader.Height != testHeight || reader.Width != testWidth {
		t.Errorf("dims (%d, %d, %d)", reader.Frames, reader.Height, reader.Width)
	}
	if want := uint64(12 * testHeight * testWidth * 2); reader.SizeBytes() != want {
		t.Errorf("size %d bytes, want %d", reader.SizeBytes(), want)
	}
}

func TestReadStrided(t *testing.T) {
	reader := openFixture(t, 12)
	stack, err := reader.ReadStrided(1, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if stack.Frames != 5 {
		t.Fatalf("read %d frames, want 5", stack.Frames)
	}
	for i, want := range []uint16{1, 3, 5, 7, 9} {
		if got := stack.Frame(i)[0]; got != want {
			t.Errorf("frame %d holds %d, want %d", i, got, want)
		}
	}
}

func TestReadRangeNegativeStop(t *testing.T) {
	reader := openFixture(t, 12)
	stack, err := reader.ReadRange(FrameRange{Start: Index(2), Stop: Index(-1), Step: Index(2)})
	if err != nil {
		t.Fatal(err)
	}
	// Frames 2, 4, 6, 8, 10 of 0..11 with the last one excluded.
	if stack.Frames != 5 {
		t.Fatalf("read %d frames, want 5", stack.Frames)
	}
	if got := stack.Frame(4)[0]; got != 10 {
		t.Errorf("last frame holds %d, want 10", got)
	}
}

func TestReadAll(t *testing.T) {
	reader := openFixture(t, 12)
	stack, err := reader.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if stack.Frames != 12 {
		t.Fatalf("read %d frames, want 12", stack.Frames)
	}
	for i := 0; i < 12; i++ {
		if got := stack.Frame(i)[0]; got != uint16(i) {
			t.Errorf("frame %d holds %d", i, got)
		}
	}
}

func TestOpenStackMissingFile(t *testing.T) {
	if _, err := OpenStack(filepath.Join(t.TempDir(), "absent.h5")); err == nil {
		t.Error("opening a missing file succeeded")
	}
}

func TestIntermediateRoundTrip(t *testing.T) {
	res := &IntermediateResult{
		Delay:      -46,
		Confidence: 321.5,
		Height:     testHeight,
		Width:      testWidth,
		Mask:       OnesMask(testHeight, testWidth),
		PumpOn: ConditionBlock{
			FrameRange:     FrameRange{Start: Index(2), Stop: Index(-1), Step: Index(2)},
			SumIntensities: []float64{1, 2, 3},
			AvgIntensities: make([]float64, testHeight*testWidth),
			Histogram:      make([]uint64, HistogramBins),
			ROISums:        map[string][]float64{"bragg_1": {4, 5, 6}},
		},
		PumpOff: ConditionBlock{
			FrameRange:     FrameRange{Start: Index(1), Stop: Index(-2), Step: Index(2)},
			SumIntensities: []float64{7, 8, 9},
			AvgIntensities: make([]float64, testHeight*testWidth),
			Histogram:      make([]uint64, HistogramBins),
			ROISums:        map[string][]float64{"bragg_1": {10, 11, 12}},
		},
	}
	path := filepath.Join(t.TempDir(), "pumpon_-00046.000ps_processed.h5")
	if err := WriteIntermediate(path, res); err != nil {
		t.Fatal(err)
	}

	got, err := ReadIntermediate(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Delay != res.Delay || got.Confidence != res.Confidence {
		t.Errorf("scalars (%g, %g), want (%g, %g)", got.Delay, got.Confidence, res.Delay, res.Confidence)
	}
	if got.PumpOn.FrameRange != res.PumpOn.FrameRange {
		t.Errorf("pump on range %+v", got.PumpOn.FrameRange)
	}
	if got.PumpOff.FrameRange != res.PumpOff.FrameRange {
		t.Errorf("pump off range %+v", got.PumpOff.FrameRange)
	}
	for i, v := range res.PumpOn.SumIntensities {
		if got.PumpOn.SumIntensities[i] != v {
			t.Errorf("pump on sum %d = %g", i, got.PumpOn.SumIntensities[i])
		}
	}
	roi := got.PumpOff.ROISums["bragg_1"]
	if len(roi) != 3 || roi[0] != 10 {
		t.Errorf("pump off window trace %v", roi)
	}

	// Writing to the same path again must fail without touching it.
	if err := WriteIntermediate(path, res); err == nil {
		t.Error("second exclusive write succeeded")
	}
	if _, err := ReadIntermediate(path); err != nil {
		t.Errorf("destination damaged by the refused write: %v", err)
	}
}
