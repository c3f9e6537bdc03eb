// Package storage keeps uploaded step-test datasets on disk, one directory
// per dataset holding metadata.json and series.csv.
package storage

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/pidtune/internal/process"
)

var ErrNotFound = errors.New("storage: dataset not found")

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
	datasetsDir  = "datasets"
	plotsDir     = "plots"
)

type Store struct {
	baseDir string
	log     *logrus.Entry
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		log:     logrus.WithField("component", "storage"),
	}
}

func (s *Store) Init() error {
	for _, dir := range []string{s.datasetsDir(), s.PlotsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	return nil
}

func (s *Store) datasetsDir() string { return filepath.Join(s.baseDir, datasetsDir) }

// PlotsDir is where rendered charts are written.
func (s *Store) PlotsDir() string { return filepath.Join(s.baseDir, plotsDir) }

type DatasetMetadata struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Timestamp time.Time       `json:"timestamp"`
	Summary   process.Summary `json:"summary"`
}

// Save validates exp and stores it under a fresh id.
func (s *Store) Save(name string, exp process.Experiment) (*DatasetMetadata, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	dir := filepath.Join(s.datasetsDir(), id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create dataset dir")
	}

	meta := DatasetMetadata{
		ID:        id,
		Name:      name,
		Timestamp: time.Now(),
		Summary:   exp.Summary(),
	}

	err := writeFile(filepath.Join(dir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(err, "write metadata")
	}
	err = writeFile(filepath.Join(dir, seriesFile), func(w io.Writer) error {
		return WriteCSV(w, exp)
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(err, "write series")
	}

	s.log.WithFields(logrus.Fields{
		"id":      id,
		"name":    name,
		"samples": meta.Summary.Samples,
	}).Info("dataset stored")
	return &meta, nil
}

var createFile = os.Create

func writeFile(path string, write func(io.Writer) error) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns all readable datasets, oldest first.
func (s *Store) List() ([]DatasetMetadata, error) {
	entries, err := os.ReadDir(s.datasetsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []DatasetMetadata{}, nil
		}
		return nil, err
	}

	sets := make([]DatasetMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.log.WithError(err).WithField("dir", entry.Name()).Debug("skipping unreadable dataset")
			continue
		}
		sets = append(sets, *meta)
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Timestamp.Before(sets[j].Timestamp) })
	return sets, nil
}

func (s *Store) Load(id string) (*DatasetMetadata, error) {
	dir, err := s.dir(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrNotFound, id)
		}
		return nil, err
	}

	var meta DatasetMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "decode metadata %s", id)
	}
	return &meta, nil
}

func (s *Store) LoadExperiment(id string) (process.Experiment, error) {
	dir, err := s.dir(id)
	if err != nil {
		return process.Experiment{}, err
	}
	f, err := os.Open(filepath.Join(dir, seriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return process.Experiment{}, errors.Wrap(ErrNotFound, id)
		}
		return process.Experiment{}, err
	}
	defer f.Close()

	exp, err := ParseCSV(f)
	if err != nil {
		return process.Experiment{}, errors.Wrapf(err, "dataset %s", id)
	}
	return exp, nil
}

func (s *Store) Delete(id string) error {
	dir, err := s.dir(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return errors.Wrap(ErrNotFound, id)
	}
	return os.RemoveAll(dir)
}

// dir rejects anything that is not a uuid so ids cannot escape baseDir.
func (s *Store) dir(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.Wrapf(ErrNotFound, "invalid id %q", id)
	}
	return filepath.Join(s.datasetsDir(), id), nil
}
