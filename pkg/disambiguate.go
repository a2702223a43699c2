package singleshot

// The raw stacks interleave pump-on and pump-off frames with unknown
// phase. The pump laser reflections elevate the border intensity only
// in frames coincident with the pump pulse, so summing a sample of each
// parity and comparing the border-masked totals identifies which
// sub-sequence is pump-on.

const (
	// DefaultBorderSize is the width of the frame-edge band used for
	// the comparison.
	DefaultBorderSize = 8
	// SampleWindowSize is the number of frames inspected for the
	// parity decision.
	SampleWindowSize = 100
	// DefaultConfidenceThreshold is the ratio below which the
	// assignment is flagged as unreliable. The result is still used.
	DefaultConfidenceThreshold = 100
	// confidenceEpsilon floors the ratio denominator against an
	// all-dark candidate.
	confidenceEpsilon = 1e-10
)

// SampleWindow returns the [start, stop) frame window sampled for
// parity detection in a stack of n frames. For long stacks the window
// sits a tenth of the way in (the tenth block of a hundred frames),
// past any warm-up transient at the very start; short stacks are
// sampled whole. A non-negative startOverride pins the window start
// when it fits. The start is always even: the even/odd candidate split
// downstream anchors its range descriptors at absolute frames 0 and 1,
// so a window starting on an odd frame would invert the assignment.
func SampleWindow(n, startOverride int) (start, stop int) {
	if startOverride >= 0 {
		startOverride &^= 1
	}
	if startOverride >= 0 && startOverride+SampleWindowSize <= n {
		return startOverride, startOverride + SampleWindowSize
	}
	if n > 10*SampleWindowSize {
		return 9 * SampleWindowSize, 10 * SampleWindowSize
	}
	return 0, n
}

// DistinguishFrames decides which interleaved sub-sequence of a stack
// is pump-on. The two candidate sample sub-stacks hold the even- and
// odd-indexed frames of the sampling window; frames are summed first
// and masked after. It returns full-stack range descriptors for both
// conditions and the confidence ratio (>= 1). With discardFirstLast
// set, the first and last frame of the stack are excluded from both
// ranges; those are frequently degenerate dark frames.
func DistinguishFrames(even, odd *Stack, borderMask []uint16, discardFirstLast bool) (pumpOn, pumpOff FrameRange, confidence float64) {
	border1 := maskedTotal(sumFrames(even), borderMask)
	border2 := maskedTotal(sumFrames(odd), borderMask)

	larger, smaller := border1, border2
	evenIsOn := border1 > border2
	if !evenIsOn {
		larger, smaller = border2, border1
	}
	if smaller < confidenceEpsilon {
		smaller = confidenceEpsilon
	}
	confidence = larger / smaller

	evenRange := FrameRange{Start: Index(0), Step: Index(2)}
	oddRange := FrameRange{Start: Index(1), Step: Index(2)}
	if discardFirstLast {
		evenRange = FrameRange{Start: Index(2), Stop: Index(-1), Step: Index(2)}
		oddRange = FrameRange{Start: Index(1), Stop: Index(-2), Step: Index(2)}
	}
	if evenIsOn {
		return evenRange, oddRange, confidence
	}
	return oddRange, evenRange, confidence
}
