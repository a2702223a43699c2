package singleshot

import (
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
)

// The acquisition scripts name raw stacks pumpon_{delay:+010.3f}ps.h5,
// so the time-delay sits at a fixed offset in the basename and is
// extracted by slicing, not general parsing.
const (
	delayOffset = len("pumpon_")
	delayWidth  = 10

	// ProcessedSuffix tags intermediate result files.
	ProcessedSuffix = "_processed.h5"
)

// DelayFromFilename extracts the time-delay in picoseconds from a raw
// or processed stack filename. Historical runs used an 8-wide delay
// field, leaving "ps" inside the fixed-width slice; that unit suffix is
// trimmed before conversion so both generations parse.
func DelayFromFilename(filename string) (float64, error) {
	base := filepath.Base(filename)
	if len(base) < delayOffset+delayWidth {
		return 0, &ErrDelayParse{Filename: filename, Err: strconv.ErrSyntax}
	}
	field := base[delayOffset : delayOffset+delayWidth]
	field = strings.TrimSuffix(field, "ps")
	delay, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, &ErrDelayParse{Filename: filename, Err: err}
	}
	return delay, nil
}

// ProcessedName returns the intermediate result filename for a raw
// stack file: the stem with a _processed.h5 suffix.
func ProcessedName(src string) string {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + ProcessedSuffix
}

// ListRawFiles enumerates raw pump-probe stack files under dir
// recursively, in lexicographic order.
func ListRawFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "pumpon_") && strings.HasSuffix(name, "ps.h5") &&
			!strings.HasSuffix(name, ProcessedSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ListIntermediateFiles enumerates intermediate result files under dir
// recursively, in lexicographic order. The stable order keeps the
// per-file slot layout of the merged dataset reproducible.
func ListIntermediateFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ProcessedSuffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
