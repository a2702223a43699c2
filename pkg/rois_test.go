package singleshot

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleROIFile = `bragg_1:
  rows: [2, 6]
  cols: [30, 90]
beam_block:
  rows: [0, 4]
  cols: [100, 140]
`

func TestLoadROIs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rois.yml")
	if err := os.WriteFile(path, []byte(sampleROIFile), 0644); err != nil {
		t.Fatal(err)
	}
	rois, err := LoadROIs(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rois) != 2 {
		t.Fatalf("got %d windows, want 2", len(rois))
	}
	want := ROI{Rows: Span{Start: 2, Stop: 6}, Cols: Span{Start: 30, Stop: 90}}
	if rois["bragg_1"] != want {
		t.Errorf("bragg_1 = %+v, want %+v", rois["bragg_1"], want)
	}
}

func TestSortedNames(t *testing.T) {
	rois := ROISet{"zeta": {}, "alpha": {}, "mid": {}}
	names := rois.SortedNames()
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestValidate(t *testing.T) {
	ok := ROISet{"a": {Rows: Span{0, 8}, Cols: Span{0, 160}}}
	if err := ok.Validate(8, 160); err != nil {
		t.Errorf("valid set rejected: %v", err)
	}
	tooTall := ROISet{"a": {Rows: Span{0, 9}, Cols: Span{0, 160}}}
	if err := tooTall.Validate(8, 160); err == nil {
		t.Error("window taller than the frame accepted")
	}
	empty := ROISet{"a": {Rows: Span{4, 4}, Cols: Span{0, 10}}}
	if err := empty.Validate(8, 160); err == nil {
		t.Error("empty window accepted")
	}
	negative := ROISet{"a": {Rows: Span{-1, 4}, Cols: Span{0, 10}}}
	if err := negative.Validate(8, 160); err == nil {
		t.Error("negative start accepted")
	}
}
