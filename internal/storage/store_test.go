package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pidtune/internal/process"
)

func sample() process.Experiment {
	return process.Experiment{
		Time:   []float64{0, 0.5, 1, 1.5},
		Output: []float64{0, 0.1, 0.4, 0.6},
		Input:  []float64{0, 1, 1, 1},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	meta, err := st.Save("step.csv", sample())
	require.NoError(t, err)
	assert.NotEmpty(t, meta.ID)
	assert.Equal(t, 4, meta.Summary.Samples)

	loaded, err := st.Load(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, "step.csv", loaded.Name)
	assert.Equal(t, [2]float64{0, 0.6}, loaded.Summary.OutputRange)

	exp, err := st.LoadExperiment(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, sample(), exp)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	sets, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, sets)

	require.NoError(t, st.Init())
	a, err := st.Save("a", sample())
	require.NoError(t, err)
	b, err := st.Save("b", sample())
	require.NoError(t, err)

	// A stray directory without metadata is ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(st.datasetsDir(), "junk"), 0755))

	sets, err = st.List()
	require.NoError(t, err)
	require.Len(t, sets, 2)
	ids := []string{sets[0].ID, sets[1].ID}
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
}

func TestStoreNotFound(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	_, err := st.Load("6f1c1b8e-3a0e-4d7c-9f3e-2b1d1c0a9e8f")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.LoadExperiment("../../etc")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, st.Delete("nope"), ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	meta, err := st.Save("x", sample())
	require.NoError(t, err)

	require.NoError(t, st.Delete(meta.ID))
	_, err = st.Load(meta.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreSave_RejectsInvalid(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	exp := sample()
	exp.Time[2] = 0.2
	_, err := st.Save("bad", exp)
	assert.ErrorIs(t, err, process.ErrInvalidSeries)
}

func TestStoreSave_FailedWriteLeavesNoDataset(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"metadata", metadataFile},
		{"series", seriesFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := createFile
			t.Cleanup(func() { createFile = orig })
			createFile = func(path string) (*os.File, error) {
				if filepath.Base(path) == tt.file {
					return nil, os.ErrPermission
				}
				return orig(path)
			}

			base := t.TempDir()
			st := New(base)
			require.NoError(t, st.Init())
			_, err := st.Save("broken", sample())
			require.ErrorIs(t, err, os.ErrPermission)

			entries, err := os.ReadDir(filepath.Join(base, datasetsDir))
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
	}{
		{"with header", "tempo,saida,entrada\n0,0,0\n1,0.5,1\n2,0.9,1\n", 3},
		{"without header", "0,0,0\n1,0.5,1\n", 2},
		{"semicolons", "t;y;u\n0;0;0\n1;1;1\n", 2},
		{"extra columns and blank lines", "t,y,u,note\n0,0,0,a\n\n1,1,1,b\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := ParseCSV(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.n, exp.Len())
			assert.Equal(t, 1.0, exp.Time[1])
		})
	}
}

func TestParseCSV_Errors(t *testing.T) {
	for _, input := range []string{
		"",
		"t,y,u\n",
		"0,1\n",
		"0,0,0\nx,1,1\n",
	} {
		_, err := ParseCSV(strings.NewReader(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, sample()))
	assert.True(t, strings.HasPrefix(sb.String(), "time,output,input\n"))

	exp, err := ParseCSV(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, sample(), exp)
}
