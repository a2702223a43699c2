package singleshot

// Reduction kernels for 3-d uint16 frame stacks. These run over
// thousands of frames per file for thousands of files, so they are
// written as tight loops over the flat buffers with no per-pixel
// allocation or bounds-juggling. All of them are pure functions.

// HistogramBins is the number of bins in a pixel-value histogram, one
// bin per representable uint16 value.
const HistogramBins = 1 << 16

// MaskedSum computes, for each frame, the sum of image*mask over all
// pixels. The result doubles as the normalization weight of the frame.
// Safe for empty stacks (returns an empty slice).
func MaskedSum(images *Stack, mask []uint16) []float64 {
	size := images.Height * images.Width
	sums := make([]float64, images.Frames)
	for i := 0; i < images.Frames; i++ {
		frame := images.Data[i*size : (i+1)*size]
		var sum uint64
		for p, v := range frame {
			sum += uint64(v) * uint64(mask[p])
		}
		sums[i] = float64(sum)
	}
	return sums
}

// MaskedHistogram counts pixel values across all frames of the stack,
// restricted to pixels where the mask is nonzero. The returned slice
// always has HistogramBins entries; bin v counts masked pixels with raw
// value v. Saturated pixels (65535) land in the last bin, which is
// where the corruption signature shows up.
func MaskedHistogram(images *Stack, mask []uint16) []uint64 {
	size := images.Height * images.Width
	bins := make([]uint64, HistogramBins)
	for i := 0; i < images.Frames; i++ {
		frame := images.Data[i*size : (i+1)*size]
		for p, v := range frame {
			if mask[p] != 0 {
				bins[v]++
			}
		}
	}
	return bins
}

// NormedSum computes sum_i images[i]/norm[i] as a float64 image.
// A zero norm value is a caller error: callers validate the stack via
// the integrity check before normalizing, and this kernel does not
// second-guess them (the division yields +Inf, it does not crash).
func NormedSum(images *Stack, norm []float64) []float64 {
	size := images.Height * images.Width
	ret := make([]float64, size)
	for i := 0; i < images.Frames; i++ {
		frame := images.Data[i*size : (i+1)*size]
		n := norm[i]
		for p, v := range frame {
			ret[p] += float64(v) / n
		}
	}
	return ret
}

// IndexedMaskedSum computes, for each frame, the masked intensity sum
// restricted to the ROI sub-window.
func IndexedMaskedSum(images *Stack, roi ROI, mask []uint16) []float64 {
	size := images.Height * images.Width
	sums := make([]float64, images.Frames)
	for i := 0; i < images.Frames; i++ {
		frame := images.Data[i*size : (i+1)*size]
		var sum uint64
		for row := roi.Rows.Start; row < roi.Rows.Stop; row++ {
			base := row * images.Width
			for col := roi.Cols.Start; col < roi.Cols.Stop; col++ {
				sum += uint64(frame[base+col]) * uint64(mask[base+col])
			}
		}
		sums[i] = float64(sum)
	}
	return sums
}

// sumFrames accumulates the stack along the frame axis into a single
// per-pixel uint64 image.
func sumFrames(images *Stack) []uint64 {
	size := images.Height * images.Width
	ret := make([]uint64, size)
	for i := 0; i < images.Frames; i++ {
		frame := images.Data[i*size : (i+1)*size]
		for p, v := range frame {
			ret[p] += uint64(v)
		}
	}
	return ret
}

// maskedTotal sums a per-pixel accumulation image under a mask.
func maskedTotal(image []uint64, mask []uint16) float64 {
	var sum uint64
	for p, v := range image {
		sum += v * uint64(mask[p])
	}
	return float64(sum)
}
