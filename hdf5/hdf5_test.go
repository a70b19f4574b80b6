package hdf5

import (
	"io"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/PrincetonUniversity/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndReplay(t *testing.T) {
	f, err := flock.New(flock.Config{Size: 8, Dimensions: 3, Rand: rand.New(rand.NewSource(5))})
	require.NoError(t, err)

	var want [][]flock.Agent
	out := filepath.Join(t.TempDir(), "run", "flock.h5")
	meta := struct {
		Dt    float64
		Steps int
		Notes []string
	}{0.1, 4, []string{"skipped"}}

	err = Run(f, &Config{
		Output:   out,
		Steps:    4,
		Datasets: []*Dataset{Agents(f.Len()), EffectiveSettings()},
		Meta:     &meta,
		Progress: io.Discard,
		Step: func() error {
			want = append(want, f.Bodies())
			return f.Tick(0.1)
		},
	})
	require.NoError(t, err)
	require.Len(t, want, 4)

	l, err := NewLoader(out, "agents")
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, 4, l.Steps())
	assert.Equal(t, 3, l.Dimensions())

	var got []flock.Agent
	for k := 0; k < 4; k++ {
		got, err = l.Load(got)
		require.NoError(t, err)
		require.Len(t, got, 8)
		for i := range got {
			assert.Equal(t, want[k][i].Position(), got[i].Position())
			assert.Equal(t, want[k][i].Velocity(), got[i].Velocity())
		}
	}

	// loading cycles back to the first step
	got, err = l.Load(got)
	require.NoError(t, err)
	assert.Equal(t, want[0][0].Position(), got[0].Position())
}

func TestNewLoaderMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.h5"), "agents")
	assert.Error(t, err)
}
