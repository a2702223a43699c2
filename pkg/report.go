package singleshot

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
)

// RunReport summarizes a processing pass over a run directory.
// Dropped counts files whose images failed the integrity check and
// were left out of a condition, distinct from merely advisory warnings.
type RunReport struct {
	Processed int
	Skipped   int
	Dropped   int
	Failed    int
	Warnings  []Warning
}

// BuildRunReport folds per-file results into run totals. Files that
// only produced advisory warnings still count as processed.
func BuildRunReport(results []FileResult) *RunReport {
	report := &RunReport{}
	for _, r := range results {
		if r.Err != nil {
			report.Failed++
			continue
		}
		skipped, dropped := false, false
		for _, w := range r.Warnings {
			switch w.(type) {
			case *AlreadyProcessedWarning:
				skipped = true
			case *BrokenImageWarning:
				dropped = true
			}
			report.Warnings = append(report.Warnings, w)
		}
		switch {
		case skipped:
			report.Skipped++
		case dropped:
			report.Dropped++
		default:
			report.Processed++
		}
	}
	return report
}

// Summary renders the run totals for the log.
func (r *RunReport) Summary() string {
	return fmt.Sprintf("%d processed, %d skipped, %d dropped, %d failed, %d warnings",
		r.Processed, r.Skipped, r.Dropped, r.Failed, len(r.Warnings))
}

// ConfidenceSummary condenses the per-file confidence ratios of a
// merge into min/median/max. Skipped sources carry NaN and are left
// out.
func (r *MergeReport) ConfidenceSummary() string {
	valid := make([]float64, 0, len(r.Confidences))
	for _, c := range r.Confidences {
		if !math.IsNaN(c) {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return "no confidence values"
	}
	min, _ := stats.Min(valid)
	median, _ := stats.Median(valid)
	max, _ := stats.Max(valid)
	return fmt.Sprintf("confidence min %.1f, median %.1f, max %.1f", min, median, max)
}

// Summary renders the merge totals for the log.
func (r *MergeReport) Summary() string {
	return fmt.Sprintf("%d sources, %d skipped, %d delay points, %s",
		r.Sources, r.Skipped, len(r.Delays), r.ConfidenceSummary())
}
