package singleshot

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

// ErrDestinationExists is returned when a write-once destination is
// already present. Merged datasets never silently skip; a full merge
// must not be confusable with a partial one.
type ErrDestinationExists struct {
	Filename string
}

func (e *ErrDestinationExists) Error() string {
	return fmt.Sprintf("destination %q already exists", e.Filename)
}

// ErrShapeMismatch represents incompatible array dimensions between an
// input and the shape established for the run.
type ErrShapeMismatch struct {
	Filename string
	Want     [2]int
	Got      [2]int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch in %q: want %dx%d, got %dx%d",
		e.Filename, e.Want[0], e.Want[1], e.Got[0], e.Got[1])
}

// ErrUnknownROI represents an ROI key found in an intermediate file
// that is not part of the configured ROI set.
type ErrUnknownROI struct {
	Filename string
	Name     string
}

func (e *ErrUnknownROI) Error() string {
	return fmt.Sprintf("ROI %q in %q is not in the configured ROI set", e.Name, e.Filename)
}

// ErrNoInputFiles is returned when an enumeration yields nothing to do.
type ErrNoInputFiles struct {
	Dir string
}

func (e *ErrNoInputFiles) Error() string {
	return fmt.Sprintf("no input files found under %q", e.Dir)
}

// ErrDelayParse represents a filename that does not follow the
// pumpon_{delay:+010.3f}ps naming convention.
type ErrDelayParse struct {
	Filename string
	Err      error
}

func (e *ErrDelayParse) Error() string {
	return fmt.Sprintf("cannot parse delay from %q: %v", e.Filename, e.Err)
}
