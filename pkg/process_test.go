package singleshot

import (
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const (
	testFrames = 20
	testHeight = 8
	testWidth  = 160
	brightVal  = 2000
	darkVal    = 10
)

func testOptions(runDir string) ProcessOptions {
	return ProcessOptions{
		RunDir:           runDir,
		DiscardFirstLast: false,
		ROIs: ROISet{
			"bragg_1": {Rows: Span{2, 6}, Cols: Span{30, 90}},
		},
	}
}

func TestProcessWritesIntermediate(t *testing.T) {
	dir := t.TempDir()
	stack := interleavedStack(testFrames, testHeight, testWidth, brightVal, darkVal)
	src := rawFixture(t, dir, 3.5, stack)

	warnings, err := Process(src, testOptions(dir))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	dest := filepath.Join(dir, ProcessedName(src))
	res, err := ReadIntermediate(dest)
	if err != nil {
		t.Fatal(err)
	}
	if res.Delay != 3.5 {
		t.Errorf("delay %g, want 3.5", res.Delay)
	}
	if res.Confidence != 200 {
		t.Errorf("confidence %g, want 200", res.Confidence)
	}
	if res.Height != testHeight || res.Width != testWidth {
		t.Errorf("shape %dx%d, want %dx%d", res.Height, res.Width, testHeight, testWidth)
	}

	wantOn := FrameRange{Start: Index(0), Step: Index(2)}
	if res.PumpOn.FrameRange != wantOn {
		t.Errorf("pump on range %+v, want %+v", res.PumpOn.FrameRange, wantOn)
	}
	wantOff := FrameRange{Start: Index(1), Step: Index(2)}
	if res.PumpOff.FrameRange != wantOff {
		t.Errorf("pump off range %+v, want %+v", res.PumpOff.FrameRange, wantOff)
	}

	if len(res.PumpOn.SumIntensities) != testFrames/2 {
		t.Fatalf("pump on holds %d frames, want %d", len(res.PumpOn.SumIntensities), testFrames/2)
	}
	wantSum := float64(brightVal) * testHeight * testWidth
	for i, s := range res.PumpOn.SumIntensities {
		if s != wantSum {
			t.Fatalf("pump on frame %d sum %g, want %g", i, s, wantSum)
		}
	}
	wantAvg := float64(testFrames/2) / float64(testHeight*testWidth)
	for p, v := range res.PumpOn.AvgIntensities {
		if !almostEqual(v, wantAvg) {
			t.Fatalf("pump on avg pixel %d = %g, want %g", p, v, wantAvg)
		}
	}
	if got := res.PumpOn.Histogram[brightVal]; got != uint64(testFrames/2*testHeight*testWidth) {
		t.Errorf("pump on histogram bin %d = %d", brightVal, got)
	}
	if got := res.PumpOff.Histogram[darkVal]; got != uint64(testFrames/2*testHeight*testWidth) {
		t.Errorf("pump off histogram bin %d = %d", darkVal, got)
	}

	roiSums, ok := res.PumpOn.ROISums["bragg_1"]
	if !ok {
		t.Fatal("bragg_1 window missing from result")
	}
	wantROI := float64(brightVal) * 4 * 60
	for i, s := range roiSums {
		if s != wantROI {
			t.Fatalf("bragg_1 frame %d sum %g, want %g", i, s, wantROI)
		}
	}
}

func fileDigest(t *testing.T, path string) [sha256.Size]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return sha256.Sum256(data)
}

func TestProcessIdempotent(t *testing.T) {
	dir := t.TempDir()
	stack := interleavedStack(testFrames, testHeight, testWidth, brightVal, darkVal)
	src := rawFixture(t, dir, -1, stack)

	if _, err := Process(src, testOptions(dir)); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(dir, ProcessedName(src))
	before := fileDigest(t, dest)

	warnings, err := Process(src, testOptions(dir))
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
	}
	if _, ok := warnings[0].(*AlreadyProcessedWarning); !ok {
		t.Fatalf("got %T, want AlreadyProcessedWarning", warnings[0])
	}
	if fileDigest(t, dest) != before {
		t.Error("reprocessing modified the destination")
	}
}

func TestProcessLowConfidence(t *testing.T) {
	dir := t.TempDir()
	stack := interleavedStack(testFrames, testHeight, testWidth, 100, 10)
	src := rawFixture(t, dir, 2, stack)

	warnings, err := Process(src, testOptions(dir))
	if err != nil {
		t.Fatal(err)
	}
	var low *UndistinguishableWarning
	for _, w := range warnings {
		if u, ok := w.(*UndistinguishableWarning); ok {
			low = u
		}
	}
	if low == nil {
		t.Fatal("no low-confidence warning for a 10x ratio")
	}
	if low.Confidence != 10 {
		t.Errorf("warning carries confidence %g, want 10", low.Confidence)
	}
	// The best guess is still persisted.
	if _, err := os.Stat(filepath.Join(dir, ProcessedName(src))); err != nil {
		t.Error("low-confidence file was not written")
	}
}

func TestProcessOddWindowStartKeepsParity(t *testing.T) {
	dir := t.TempDir()
	// Enough frames for the 100-frame window to sit inside the stack
	// at the overridden start.
	stack := interleavedStack(120, testHeight, testWidth, brightVal, darkVal)
	src := rawFixture(t, dir, 2, stack)

	opts := testOptions(dir)
	opts.SampleWindowStart = 7

	warnings, err := Process(src, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range warnings {
		if _, ok := w.(*UndistinguishableWarning); ok {
			t.Fatalf("unexpected low-confidence warning: %v", w)
		}
	}
	res, err := ReadIntermediate(filepath.Join(dir, ProcessedName(src)))
	if err != nil {
		t.Fatal(err)
	}
	// The bright frames sit at even absolute indices; an odd window
	// start must not flip the assignment onto the dark frames.
	wantOn := FrameRange{Start: Index(0), Step: Index(2)}
	if res.PumpOn.FrameRange != wantOn {
		t.Errorf("pump on range %+v, want %+v", res.PumpOn.FrameRange, wantOn)
	}
	if res.PumpOn.SumIntensities[0] <= res.PumpOff.SumIntensities[0] {
		t.Error("pump on frames are darker than pump off")
	}
}

func TestProcessBrokenImage(t *testing.T) {
	dir := t.TempDir()
	stack := interleavedStack(testFrames, testHeight, testWidth, brightVal, darkVal)
	saturateColumn(stack, 0, BrokenPixelLimit+1)
	src := rawFixture(t, dir, 2, stack)

	warnings, err := Process(src, testOptions(dir))
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, w := range warnings {
		if _, ok := w.(*BrokenImageWarning); ok {
			found = true
		}
	}
	if !found {
		t.Fatal("no broken-image warning")
	}
	if _, err := os.Stat(filepath.Join(dir, ProcessedName(src))); !os.IsNotExist(err) {
		t.Error("broken file produced an intermediate result")
	}
}

func TestProcessShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	stack := interleavedStack(testFrames, testHeight, testWidth, brightVal, darkVal)
	src := rawFixture(t, dir, 2, stack)

	opts := testOptions(dir)
	opts.Mask = OnesMask(4, 4)
	opts.MaskHeight = 4
	opts.MaskWidth = 4

	_, err := Process(src, opts)
	var mismatch *ErrShapeMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("got %v, want ErrShapeMismatch", err)
	}
}

func TestProcessMirrorsRunLayout(t *testing.T) {
	runDir := t.TempDir()
	destDir := t.TempDir()
	scanDir := filepath.Join(runDir, "scan_0003")
	if err := os.MkdirAll(scanDir, 0755); err != nil {
		t.Fatal(err)
	}
	stack := interleavedStack(testFrames, testHeight, testWidth, brightVal, darkVal)
	src := rawFixture(t, scanDir, 2, stack)

	opts := testOptions(runDir)
	opts.DestDir = destDir
	if _, err := Process(src, opts); err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(destDir, "scan_0003", ProcessedName(src))
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("mirrored destination missing: %v", err)
	}
}
