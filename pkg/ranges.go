package singleshot

import "fmt"

// OptionalIndex is a frame index bound that may be unset. An unbounded
// slice end is expressed through Set=false rather than any in-band
// sentinel value.
type OptionalIndex struct {
	Value int
	Set   bool
}

// Index returns a set OptionalIndex.
func Index(v int) OptionalIndex {
	return OptionalIndex{Value: v, Set: true}
}

// FrameRange is a lazy start/stop/step view descriptor over the frame
// axis of a stack. Bounds follow slice semantics: the stop bound is
// exclusive and negative bounds count from the end of the stack.
type FrameRange struct {
	Start OptionalIndex
	Stop  OptionalIndex
	Step  OptionalIndex
}

// Resolve turns the descriptor into concrete (start, stop, step) values
// for a stack of n frames. Only forward iteration is used in this
// pipeline, so steps must be positive.
func (r FrameRange) Resolve(n int) (start, stop, step int, err error) {
	step = 1
	if r.Step.Set {
		step = r.Step.Value
	}
	if step <= 0 {
		return 0, 0, 0, fmt.Errorf("frame range step must be positive, got %d", step)
	}
	start = 0
	if r.Start.Set {
		start = r.Start.Value
		if start < 0 {
			start += n
		}
	}
	stop = n
	if r.Stop.Set {
		stop = r.Stop.Value
		if stop < 0 {
			stop += n
		}
	}
	if start < 0 {
		start = 0
	}
	if stop > n {
		stop = n
	}
	return start, stop, step, nil
}

// Count returns the number of frames selected from a stack of n frames.
func (r FrameRange) Count(n int) (int, error) {
	start, stop, step, err := r.Resolve(n)
	if err != nil {
		return 0, err
	}
	if stop <= start {
		return 0, nil
	}
	return (stop - start + step - 1) / step, nil
}

// rangeTupleLen is the serialized width of a FrameRange: a (set, value)
// int64 pair per bound.
const rangeTupleLen = 6

// EncodeRange packs a FrameRange into nullable-integer pairs for
// persistence inside a result file.
func EncodeRange(r FrameRange) [rangeTupleLen]int64 {
	var tuple [rangeTupleLen]int64
	bounds := [3]OptionalIndex{r.Start, r.Stop, r.Step}
	for i, b := range bounds {
		if b.Set {
			tuple[2*i] = 1
			tuple[2*i+1] = int64(b.Value)
		}
	}
	return tuple
}

// DecodeRange is the inverse of EncodeRange.
func DecodeRange(tuple [rangeTupleLen]int64) FrameRange {
	decode := func(i int) OptionalIndex {
		if tuple[2*i] == 0 {
			return OptionalIndex{}
		}
		return Index(int(tuple[2*i+1]))
	}
	return FrameRange{Start: decode(0), Stop: decode(1), Step: decode(2)}
}
