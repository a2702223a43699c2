package singleshot

// Stack holds an ordered sequence of same-shaped uint16 detector
// frames, stored contiguously frame-major.
type Stack struct {
	Frames int
	Height int
	Width  int
	Data   []uint16
}

func NewStack(frames, height, width int) *Stack {
	return &Stack{
		Frames: frames,
		Height: height,
		Width:  width,
		Data:   make([]uint16, frames*height*width),
	}
}

// Frame returns the i-th frame as a view into the stack buffer.
func (s *Stack) Frame(i int) []uint16 {
	size := s.Height * s.Width
	return s.Data[i*size : (i+1)*size]
}

// OnesMask returns a mask keeping every pixel.
func OnesMask(height, width int) []uint16 {
	mask := make([]uint16, height*width)
	for i := range mask {
		mask[i] = 1
	}
	return mask
}

// BorderMask returns a mask with ones in a frame-edge band of the given
// width and zeros in the interior. The pump laser reflections
// concentrate near the detector edges, so this band carries the
// pump on/off discrimination signal.
func BorderMask(height, width, size int) []uint16 {
	mask := OnesMask(height, width)
	for row := size; row < height-size; row++ {
		for col := size; col < width-size; col++ {
			mask[row*width+col] = 0
		}
	}
	return mask
}
