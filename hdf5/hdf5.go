// Package hdf5 records flock simulations to HDF5 files and reads them back.
package hdf5

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/PrincetonUniversity/flock"
	"github.com/google/uuid"
	"gonum.org/v1/hdf5"
)

// A Dataset stipulates how to generate data and where to store them in the HDF5 file.
type Dataset struct {
	// Name the name of the dataset in the HDF5 file.
	Name string

	// Val is a value of the same concrete type as the underlying type of the data.
	Val interface{}

	// Dims are the dimensions of the data for a single step.
	Dims []int

	// Data is a function that produces the data
	// as a pointer to a slice of row-major concrete values,
	// or as a pointer to a single value when Dims is empty.
	Data func(f *flock.Flock) interface{}

	dset   *hdf5.Dataset
	fspace *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// Config holds the parameters of the HDF5 driver.
type Config struct {
	Output   string        // path of output file
	Steps    int           // total number of steps
	Step     func() error  // go to next step
	Datasets []*Dataset    // list of datasets
	Meta     interface{}   // struct whose scalar fields are saved as attributes, unless reserved
	RunID    string        // identifier of the run, generated if empty
	Progress io.Writer     // receives a percentage while running, may be nil
}

// Run runs a simulation and saves data to an HDF5 file.
func Run(f *flock.Flock, conf *Config) (err error) {
	if err := os.MkdirAll(filepath.Dir(conf.Output), 0755); err != nil {
		return err
	}

	file, err := hdf5.CreateFile(conf.Output, hdf5.F_ACC_TRUNC)
	if err != nil {
		return err
	}
	defer checkClose(&err, file)

	if conf.RunID == "" {
		conf.RunID = uuid.NewString()
	}
	if err := saveConfig(file, f, conf); err != nil {
		return err
	}

	for _, d := range conf.Datasets {
		if err := d.init(file, conf); err != nil {
			return err
		}
		defer checkClose(&err, d)
	}

	for k := uint(0); k < uint(conf.Steps); k++ {
		// show progress as percentage
		if conf.Progress != nil {
			fmt.Fprintf(conf.Progress, "\r% 3d%%", 100*k/uint(conf.Steps))
		}

		for _, d := range conf.Datasets {
			start := make([]uint, len(d.Dims)+1)
			start[0] = k
			if err := d.fspace.SetOffset(start); err != nil {
				return err
			}
			if err := d.dset.WriteSubset(d.Data(f), d.mspace, d.fspace); err != nil {
				return err
			}
		}

		if err := conf.Step(); err != nil {
			return err
		}
	}
	if conf.Progress != nil {
		fmt.Fprintf(conf.Progress, "\r100%%\n")
	}
	return nil
}

// A Record is what is stored for each agent at each step.
// This structure is mapped to a compound datatype in HDF5 so member names are important.
type Record struct {
	Pos flock.Vec // position
	Vel flock.Vec // velocity
}

// Agents returns the dataset of agent positions and velocities of a flock of the given size.
func Agents(size int) *Dataset {
	buf := make([]Record, size)
	var bodies []flock.Agent
	return &Dataset{
		Name: "agents",
		Val:  Record{},
		Dims: []int{size},
		Data: func(f *flock.Flock) interface{} {
			bodies = f.AppendBodies(bodies[:0])
			for i := range bodies {
				buf[i] = Record{Pos: bodies[i].Position(), Vel: bodies[i].Velocity()}
			}
			return &buf
		},
	}
}

// Settings is the record of the numeric settings in effect at each step.
type Settings struct {
	NeighborThresholdDist  float64
	RepulsionThresholdDist float64
	Repulsion              float64
	Attraction             float64
	Alignment              float64
	TargetSpeed            float64
	TargetSpeedMultiplier  float64
	Overlaid               int32 // 1 while a transient overlay is active
}

// EffectiveSettings returns the dataset of settings in effect, overlay included.
func EffectiveSettings() *Dataset {
	var s Settings
	return &Dataset{
		Name: "settings",
		Val:  Settings{},
		Data: func(f *flock.Flock) interface{} {
			p := f.Settings()
			s = Settings{
				NeighborThresholdDist:  p.NeighborThresholdDist,
				RepulsionThresholdDist: p.RepulsionThresholdDist,
				Repulsion:              p.Repulsion,
				Attraction:             p.Attraction,
				Alignment:              p.Alignment,
				TargetSpeed:            p.TargetSpeed,
				TargetSpeedMultiplier:  p.TargetSpeedMultiplier,
			}
			if f.Overlaid() {
				s.Overlaid = 1
			}
			return &s
		},
	}
}

// saveConfig creates a "config" dataset with a null dataspace whose attributes
// reflect the configuration plus some other appropriate metadata.
func saveConfig(file *hdf5.File, f *flock.Flock, conf *Config) (err error) {
	null, err := hdf5.CreateDataspace(hdf5.S_NULL)
	if err != nil {
		return err
	}
	defer checkClose(&err, null)

	anytype, err := hdf5.NewDatatypeFromValue(0)
	if err != nil {
		return err
	}
	defer checkClose(&err, anytype)

	dset, err := file.CreateDataset("config", anytype, null)
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer checkClose(&err, scalar)

	attrs := []struct {
		name string
		val  interface{}
	}{
		{"Time", time.Now().String()},
		{"RunID", conf.RunID},
		{"Dimensions", f.Dimensions()},
		{"Size", f.Len()},
		{"Overflow", f.Baseline().Overflow.String()},
	}
	reserved := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		reserved[a.name] = true
	}
	if conf.Meta != nil {
		v := reflect.Indirect(reflect.ValueOf(conf.Meta))
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() || !isScalar(v.Field(i).Kind()) || reserved[v.Type().Field(i).Name] {
				continue
			}
			attrs = append(attrs, struct {
				name string
				val  interface{}
			}{v.Type().Field(i).Name, v.Field(i).Interface()})
		}
	}

	for _, a := range attrs {
		if err := writeAttribute(dset, scalar, a.name, a.val); err != nil {
			return fmt.Errorf("hdf5: attribute %s: %w", a.name, err)
		}
	}
	return nil
}

// writeAttribute writes a scalar attribute on dset.
func writeAttribute(dset *hdf5.Dataset, scalar *hdf5.Dataspace, name string, val interface{}) (err error) {
	dtype, err := hdf5.NewDatatypeFromValue(val)
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	attr, err := dset.CreateAttribute(name, dtype, scalar)
	if err != nil {
		return err
	}
	defer checkClose(&err, attr)

	ptr := reflect.New(reflect.TypeOf(val))
	ptr.Elem().Set(reflect.ValueOf(val))
	return attr.Write(ptr.Interface(), dtype)
}

// isScalar reports whether values of kind k can be stored as a scalar attribute.
func isScalar(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// init creates the dataset and its dataspaces.
func (d *Dataset) init(file *hdf5.File, conf *Config) (err error) {
	dtype, err := hdf5.NewDatatypeFromValue(d.Val)
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	udims := make([]uint, len(d.Dims)+1)
	udims[0] = uint(conf.Steps)
	for i, n := range d.Dims {
		udims[i+1] = uint(n)
	}

	d.fspace, err = hdf5.CreateSimpleDataspace(udims, nil)
	if err != nil {
		return err
	}

	start := make([]uint, len(udims))
	count := make([]uint, len(udims))
	copy(count, udims)
	count[0] = 1

	if err := d.fspace.SelectHyperslab(start, nil, count, nil); err != nil {
		checkClose(&err, d.fspace)
		return err
	}

	if len(d.Dims) == 0 {
		d.mspace, err = hdf5.CreateDataspace(hdf5.S_SCALAR)
	} else {
		d.mspace, err = hdf5.CreateSimpleDataspace(udims[1:], nil)
	}
	if err != nil {
		checkClose(&err, d.fspace)
		return err
	}

	d.dset, err = file.CreateDataset(d.Name, dtype, d.fspace)
	if err != nil {
		checkClose(&err, d.fspace)
		checkClose(&err, d.mspace)
	}

	return err
}

// Close closes the HDF5 dataset and Dataspaces.
func (d *Dataset) Close() error {
	if err := d.dset.Close(); err != nil {
		return err
	}
	if err := d.mspace.Close(); err != nil {
		return err
	}
	if err := d.fspace.Close(); err != nil {
		return err
	}
	return nil
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
