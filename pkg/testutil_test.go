package singleshot

import (
	"fmt"
	"path/filepath"
	"testing"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// interleavedStack builds a stack whose even-indexed frames hold
// evenVal everywhere and odd-indexed frames hold oddVal.
func interleavedStack(frames, height, width int, evenVal, oddVal uint16) *Stack {
	stack := NewStack(frames, height, width)
	for i := 0; i < frames; i++ {
		v := evenVal
		if i%2 == 1 {
			v = oddVal
		}
		frame := stack.Frame(i)
		for p := range frame {
			frame[p] = v
		}
	}
	return stack
}

// writeRawFixture stores a stack the way the detector server does, at
// entry/data/data.
func writeRawFixture(t *testing.T, path string, stack *Stack) {
	t.Helper()
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	entry := createGroup(&f.CommonFG, "entry")
	defer entry.Close()
	data := createGroup(&entry.CommonFG, "data")
	defer data.Close()
	dims := []uint{uint(stack.Frames), uint(stack.Height), uint(stack.Width)}
	writeDataset(&data.CommonFG, "data", dims, hdf5.T_NATIVE_UINT16, stack.Data)
}

// rawFixture writes an interleaved stack under dir with the producer's
// filename for the given delay and returns its path.
func rawFixture(t *testing.T, dir string, delay float64, stack *Stack) string {
	t.Helper()
	path := filepath.Join(dir, rawName(delay))
	writeRawFixture(t, path, stack)
	return path
}

func rawName(delay float64) string {
	return fmt.Sprintf("pumpon_%+010.3fps.h5", delay)
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
