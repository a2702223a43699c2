package singleshot

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// Full pipeline over a small synthetic run: two scans of two delay
// points each, processed concurrently and merged into one dataset.
func TestEndToEnd(t *testing.T) {
	runDir := t.TempDir()
	delays := []float64{-1, 2}
	var files []string
	for scan := 1; scan <= 2; scan++ {
		scanDir := filepath.Join(runDir, fmt.Sprintf("scan_%04d", scan))
		if err := os.MkdirAll(scanDir, 0755); err != nil {
			t.Fatal(err)
		}
		for _, delay := range delays {
			stack := interleavedStack(testFrames, testHeight, testWidth, 20000, darkVal)
			files = append(files, rawFixture(t, scanDir, delay, stack))
		}
	}

	opts := testOptions(runDir)
	results, err := RunProcessing(files, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	report := BuildRunReport(results)
	if report.Processed != 4 || report.Failed != 0 {
		t.Fatalf("run report %+v", report)
	}

	out := filepath.Join(t.TempDir(), "merged.h5")
	mergeReport, err := Collect(runDir, out, CollectOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if mergeReport.Sources != 4 || mergeReport.Skipped != 0 {
		t.Fatalf("merge report %+v", mergeReport)
	}
	for _, c := range mergeReport.Confidences {
		if math.IsNaN(c) || c < 1000 {
			t.Errorf("confidence %g, want >= 1000", c)
		}
	}

	gotDelays := readMergedDataset[float64](t, out, delaysDset)
	if len(gotDelays) != 2 || gotDelays[0] != -1 || gotDelays[1] != 2 {
		t.Fatalf("delay axis %v", gotDelays)
	}
	counts := readMergedDataset[int64](t, out, filesPerDelay)
	if counts[0] != 2 || counts[1] != 2 {
		t.Fatalf("files per delay %v", counts)
	}

	// Every pump-on frame is identical, so the per-delay average image
	// is flat at frames/(height*width) regardless of how many files
	// merged into it.
	avg := readMergedDataset[float64](t, out, pumpOnGroup+"/"+avgDset)
	want := float64(testFrames/2) / float64(testHeight*testWidth)
	for p, v := range avg {
		if !almostEqual(v, want) {
			t.Fatalf("avg value %d = %g, want %g", p, v, want)
		}
	}

	sums := readMergedDataset[float64](t, out, pumpOnGroup+"/"+sumDset)
	if len(sums) != 4*testFrames/2 {
		t.Fatalf("merged traces hold %d values", len(sums))
	}
	wantSum := float64(20000) * testHeight * testWidth
	for i, s := range sums {
		if s != wantSum {
			t.Fatalf("trace value %d = %g, want %g", i, s, wantSum)
		}
	}
}
