package hdf5

import (
	"fmt"

	"github.com/PrincetonUniversity/flock"
	"gonum.org/v1/hdf5"
)

// A Loader sequentially loads agent records from an HDF5 dataset.
type Loader struct {
	i uint // index of current slice
	n uint // total number of slices

	dims int      // dimensions of the recorded flock
	data []Record // data buffer

	file   *hdf5.File
	dset   *hdf5.Dataset
	fspace *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// NewLoader opens a dataset written by Run with the Agents dataset
// and returns an initialized loader.
func NewLoader(filepath, dataset string) (*Loader, error) {
	l := new(Loader)
	var err error
	l.file, err = hdf5.OpenFile(filepath, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	l.dims, err = readDimensions(l.file)
	if err != nil {
		checkClose(&err, l.file)
		return nil, err
	}
	l.dset, err = l.file.OpenDataset(dataset)
	if err != nil {
		checkClose(&err, l.file)
		return nil, err
	}
	l.fspace = l.dset.Space()
	dims, _, err := l.fspace.SimpleExtentDims()
	if err != nil {
		checkClose(&err, l.fspace)
		checkClose(&err, l.dset)
		checkClose(&err, l.file)
		return nil, err
	}
	if len(dims) != 2 {
		checkClose(&err, l.fspace)
		checkClose(&err, l.dset)
		checkClose(&err, l.file)
		return nil, fmt.Errorf("loader: expected 2 dimensions, got %d", len(dims))
	}
	l.n = dims[0]

	l.mspace, err = hdf5.CreateSimpleDataspace(dims[1:], nil)
	if err != nil {
		checkClose(&err, l.fspace)
		checkClose(&err, l.dset)
		checkClose(&err, l.file)
		return nil, err
	}

	start := []uint{0, 0}
	count := []uint{1, dims[1]}
	if err := l.fspace.SelectHyperslab(start, nil, count, nil); err != nil {
		l.Close()
		return nil, err
	}

	l.data = make([]Record, dims[1])

	return l, nil
}

// readDimensions reads the dimensionality saved in the config attributes.
func readDimensions(file *hdf5.File) (n int, err error) {
	dset, err := file.OpenDataset("config")
	if err != nil {
		return 0, err
	}
	defer checkClose(&err, dset)

	attr, err := dset.OpenAttribute("Dimensions")
	if err != nil {
		return 0, err
	}
	defer checkClose(&err, attr)

	dtype, err := hdf5.NewDatatypeFromValue(n)
	if err != nil {
		return 0, err
	}
	defer checkClose(&err, dtype)

	if err := attr.Read(&n, dtype); err != nil {
		return 0, err
	}
	if n < 1 || n > flock.MaxDimensions {
		return 0, fmt.Errorf("loader: bad dimensions %d", n)
	}
	return n, nil
}

// Steps returns the number of recorded steps.
func (l *Loader) Steps() int {
	return int(l.n)
}

// Dimensions returns the dimensionality of the recorded flock.
func (l *Loader) Dimensions() int {
	return l.dims
}

// Load loads the next step available into dst, resized to the recorded
// flock size, and cycles when everything has already been loaded.
func (l *Loader) Load(dst []flock.Agent) ([]flock.Agent, error) {
	start := []uint{l.i, 0}
	if err := l.fspace.SetOffset(start); err != nil {
		return dst, err
	}
	l.i = (l.i + 1) % l.n

	if err := l.dset.ReadSubset(&l.data, l.mspace, l.fspace); err != nil {
		return dst, err
	}

	dst = dst[:0]
	for _, r := range l.data {
		a := flock.NewAgent(r.Pos, l.dims)
		for k := 0; k < l.dims; k++ {
			if err := a.SetVelocity(k, r.Vel[k]); err != nil {
				return dst, err
			}
		}
		dst = append(dst, a)
	}
	return dst, nil
}

// Close releases the HDF5 resources held by the loader.
func (l *Loader) Close() (err error) {
	checkClose(&err, l.mspace)
	checkClose(&err, l.fspace)
	checkClose(&err, l.dset)
	checkClose(&err, l.file)
	return err
}
