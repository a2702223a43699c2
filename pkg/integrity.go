package singleshot

// In rare cases the detector produces broken images showing vertical
// stripes saturated at 2^16-1 = 65535. The failure mode saturates whole
// columns, so checking a single fixed column catches it without
// scanning every pixel.
const (
	// DiagnosticColumn is the column index sampled by the check.
	DiagnosticColumn = 150
	// BrokenPixelValue is the saturation signature.
	BrokenPixelValue = 65535
	// BrokenPixelLimit is the number of signature hits tolerated before
	// the sub-stack is declared corrupted.
	BrokenPixelLimit = 3
)

// CheckImageIntegrity reports whether a frame sub-stack is usable. It
// counts occurrences of the saturation signature in the diagnostic
// column, restricted to the masked region, across all frames. More than
// BrokenPixelLimit hits fail the whole sub-stack; the caller must then
// drop the entire file rather than persist partial results.
func CheckImageIntegrity(images *Stack, mask []uint16) bool {
	col := DiagnosticColumn
	if col >= images.Width {
		col = images.Width - 1
	}
	size := images.Height * images.Width
	hits := 0
	for i := 0; i < images.Frames; i++ {
		base := i * size
		for row := 0; row < images.Height; row++ {
			p := row*images.Width + col
			if mask[p] != 0 && images.Data[base+p] == BrokenPixelValue {
				hits++
				if hits > BrokenPixelLimit {
					return false
				}
			}
		}
	}
	return true
}
