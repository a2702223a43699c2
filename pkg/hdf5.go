package singleshot

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// CompressionLevel is the deflate level applied to bulk datasets.
const CompressionLevel = 4

// Write helpers panic on error; writes happen inside a worker (or the
// single-threaded collector) whose boundary recovers and converts the
// panic into a per-unit failure, the same way the decoder side of the
// beamline handles its HDF5 layer.

func createGroup(loc *hdf5.CommonFG, groupName string) *hdf5.Group {
	g, err := loc.CreateGroup(groupName)
	if err != nil {
		panic(fmt.Errorf("error creating group %q: %w", groupName, err))
	}
	return g
}

// chunkDims picks chunking for a compressed dataset: one frame per
// chunk for stacked images, capped flat chunks for long vectors.
func chunkDims(dims []uint) []uint {
	chunks := make([]uint, len(dims))
	copy(chunks, dims)
	if len(chunks) == 3 {
		chunks[0] = 1
	}
	if len(chunks) == 1 && chunks[0] > 32768 {
		chunks[0] = 32768
	}
	for i := range chunks {
		if chunks[i] == 0 {
			chunks[i] = 1
		}
	}
	return chunks
}

// writeDataset creates a chunked, deflate-compressed dataset and writes
// the flat data slice into it.
func writeDataset[T any](loc *hdf5.CommonFG, name string, dims []uint, dtype *hdf5.Datatype, data []T) {
	space, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		panic(err)
	}
	defer space.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		panic(err)
	}
	defer plist.Close()
	plist.SetChunk(chunkDims(dims))
	plist.SetDeflate(CompressionLevel)

	dset, err := loc.CreateDatasetWith(name, dtype, space, plist)
	if err != nil {
		panic(fmt.Errorf("error creating dataset %q: %w", name, err))
	}
	defer dset.Close()

	if len(data) == 0 {
		return
	}
	if err := dset.Write(&data); err != nil {
		panic(fmt.Errorf("error writing dataset %q: %w", name, err))
	}
}

// writeScalar stores a single value as a length-1 dataset. Scalars are
// not worth a chunked layout.
func writeScalar[T any](loc *hdf5.CommonFG, name string, dtype *hdf5.Datatype, value T) {
	space, err := hdf5.CreateSimpleDataspace([]uint{1}, nil)
	if err != nil {
		panic(err)
	}
	defer space.Close()

	dset, err := loc.CreateDataset(name, dtype, space)
	if err != nil {
		panic(fmt.Errorf("error creating dataset %q: %w", name, err))
	}
	defer dset.Close()

	data := []T{value}
	if err := dset.Write(&data); err != nil {
		panic(fmt.Errorf("error writing dataset %q: %w", name, err))
	}
}

// readDataset reads a whole dataset into a flat slice and returns the
// data alongside its dimensions.
func readDataset[T any](loc *hdf5.CommonFG, name string) ([]T, []uint, error) {
	dset, err := loc.OpenDataset(name)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening dataset %q: %w", name, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading extent of %q: %w", name, err)
	}
	n := uint(1)
	for _, d := range dims {
		n *= d
	}
	data := make([]T, n)
	if n == 0 {
		return data, dims, nil
	}
	if err := dset.Read(&data); err != nil {
		return nil, nil, fmt.Errorf("error reading dataset %q: %w", name, err)
	}
	return data, dims, nil
}

func readScalar[T any](loc *hdf5.CommonFG, name string) (T, error) {
	var zero T
	data, _, err := readDataset[T](loc, name)
	if err != nil {
		return zero, err
	}
	if len(data) == 0 {
		return zero, fmt.Errorf("dataset %q is empty", name)
	}
	return data[0], nil
}
