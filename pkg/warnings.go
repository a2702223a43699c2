package singleshot

import "fmt"

// Warning is a recoverable per-file condition. Warnings are collected
// and returned to the caller instead of aborting the run.
type Warning interface {
	error
	warning()
}

// AlreadyProcessedWarning marks a destination that exists from an
// earlier run; processing of that file is a no-op.
type AlreadyProcessedWarning struct {
	Dest string
}

func (w *AlreadyProcessedWarning) Error() string {
	return fmt.Sprintf("%s already exists", w.Dest)
}

func (w *AlreadyProcessedWarning) warning() {}

// UndistinguishableWarning marks a file where the pump on/off
// assignment fell below the confidence threshold. The best-guess
// assignment is used regardless.
type UndistinguishableWarning struct {
	Path       string
	Confidence float64
}

func (w *UndistinguishableWarning) Error() string {
	return fmt.Sprintf("low confidence in distinguishing pump on/off: %s frac=%g", w.Path, w.Confidence)
}

func (w *UndistinguishableWarning) warning() {}

// BrokenImageWarning marks a file dropped wholesale because the
// integrity check found the saturated-column signature.
type BrokenImageWarning struct {
	Path      string
	Condition string
}

func (w *BrokenImageWarning) Error() string {
	return fmt.Sprintf("found broken image in %s (%s); skipping...", w.Path, w.Condition)
}

func (w *BrokenImageWarning) warning() {}

// ResourcePressureWarning marks a run where the memory heuristic could
// not fit a single raw stack; the pool is forced to one worker.
type ResourcePressureWarning struct {
	StackBytes uint64
	Available  uint64
}

func (w *ResourcePressureWarning) Error() string {
	return fmt.Sprintf("you might want to free up some system memory; "+
		"a whole dataset (%d bytes) does not fit into the %d available", w.StackBytes, w.Available)
}

func (w *ResourcePressureWarning) warning() {}

// MergeSourceWarning marks an intermediate file that could not be read
// during collection and was skipped.
type MergeSourceWarning struct {
	Path string
	Err  error
}

func (w *MergeSourceWarning) Error() string {
	return fmt.Sprintf("cannot read intermediate file %s: %v; skipping...", w.Path, w.Err)
}

func (w *MergeSourceWarning) warning() {}
