package singleshot

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// RawDataPath is where the detector server stores the image series
// inside each acquisition file.
const RawDataPath = "entry/data/data"

// MaskDataPath is the dataset holding the detector mask in a mask file.
const MaskDataPath = "mask"

// StackReader gives strided access to an on-disk image series without
// loading the whole file. Frames are read through hyperslab selections
// so the pump-on and pump-off halves of an acquisition never have to
// coexist in memory with the full stack.
type StackReader struct {
	file *hdf5.File
	dset *hdf5.Dataset

	Frames int
	Height int
	Width  int
}

func OpenStack(filename string) (*StackReader, error) {
	f, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, &ErrOpenFile{Filename: filename, Err: err}
	}
	dset, err := f.OpenDataset(RawDataPath)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error opening dataset %q in %s: %w", RawDataPath, filename, err)
	}
	space := dset.Space()
	dims, _, err := space.SimpleExtentDims()
	space.Close()
	if err != nil {
		dset.Close()
		f.Close()
		return nil, fmt.Errorf("error reading extent of %s: %w", filename, err)
	}
	if len(dims) != 3 {
		dset.Close()
		f.Close()
		return nil, fmt.Errorf("dataset %q in %s has rank %d, want 3", RawDataPath, filename, len(dims))
	}
	return &StackReader{
		file:   f,
		dset:   dset,
		Frames: int(dims[0]),
		Height: int(dims[1]),
		Width:  int(dims[2]),
	}, nil
}

// SizeBytes is the in-memory footprint of the full stack.
func (r *StackReader) SizeBytes() uint64 {
	return uint64(r.Frames) * uint64(r.Height) * uint64(r.Width) * 2
}

// ReadStrided reads count frames starting at start, taking every
// stride-th frame.
func (r *StackReader) ReadStrided(start, stride, count int) (*Stack, error) {
	stack := NewStack(count, r.Height, r.Width)
	if count == 0 {
		return stack, nil
	}
	filespace := r.dset.Space()
	defer filespace.Close()

	offset := []uint{uint(start), 0, 0}
	strides := []uint{uint(stride), 1, 1}
	counts := []uint{uint(count), uint(r.Height), uint(r.Width)}
	if err := filespace.SelectHyperslab(offset, strides, counts, nil); err != nil {
		return nil, fmt.Errorf("error selecting frames [%d:%d:%d]: %w", start, start+count*stride, stride, err)
	}
	memspace, err := hdf5.CreateSimpleDataspace(counts, nil)
	if err != nil {
		return nil, err
	}
	defer memspace.Close()

	if err := r.dset.ReadSubset(&stack.Data, memspace, filespace); err != nil {
		return nil, fmt.Errorf("error reading frames [%d:%d:%d]: %w", start, start+count*stride, stride, err)
	}
	return stack, nil
}

// ReadRange reads the frames selected by fr.
func (r *StackReader) ReadRange(fr FrameRange) (*Stack, error) {
	start, _, step, err := fr.Resolve(r.Frames)
	if err != nil {
		return nil, err
	}
	count, err := fr.Count(r.Frames)
	if err != nil {
		return nil, err
	}
	return r.ReadStrided(start, step, count)
}

// ReadAll reads the complete stack.
func (r *StackReader) ReadAll() (*Stack, error) {
	return r.ReadStrided(0, 1, r.Frames)
}

func (r *StackReader) Close() error {
	r.dset.Close()
	return r.file.Close()
}

// LoadMask reads a 2D uint16 detector mask from its own file.
func LoadMask(filename string) ([]uint16, int, int, error) {
	f, err := hdf5.OpenFile(filename, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, 0, 0, &ErrOpenFile{Filename: filename, Err: err}
	}
	defer f.Close()

	mask, dims, err := readDataset[uint16](&f.CommonFG, MaskDataPath)
	if err != nil {
		return nil, 0, 0, err
	}
	if len(dims) != 2 {
		return nil, 0, 0, fmt.Errorf("mask in %s has rank %d, want 2", filename, len(dims))
	}
	return mask, int(dims[0]), int(dims[1]), nil
}
