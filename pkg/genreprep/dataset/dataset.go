package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/srijoni68566/Music-Genre-classification/pkg/models"
	"github.com/srijoni68566/Music-Genre-classification/pkg/utils"
)

const indent = "    "

// ErrInvalidDataset is returned when a dataset violates its structural invariants.
var ErrInvalidDataset = errors.New("invalid dataset")

// Save writes ds to path as indented JSON, replacing any existing file. The
// data goes to a temporary file in the same directory first and is renamed
// into place, so readers never see a partial file.
func Save(path string, ds *models.Dataset) error {
	if err := Validate(ds); err != nil {
		return err
	}

	data, err := json.MarshalIndent(ds, "", indent)
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}

	dir := filepath.Dir(path)
	if err := utils.MakeDir(dir); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}

	return utils.MoveFile(tmpPath, path)
}

// Load reads a dataset file written by Save and validates it.
func Load(path string) (*models.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ds := models.NewDataset()
	if err := json.Unmarshal(data, ds); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := Validate(ds); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Validate checks that labels and matrices are parallel, every label indexes
// the mapping, all matrices share one shape and all values are finite.
func Validate(ds *models.Dataset) error {
	if ds == nil {
		return fmt.Errorf("%w: nil dataset", ErrInvalidDataset)
	}
	if len(ds.Labels) != len(ds.MFCC) {
		return fmt.Errorf("%w: %d labels but %d matrices", ErrInvalidDataset, len(ds.Labels), len(ds.MFCC))
	}

	rows, cols := -1, -1
	for i, label := range ds.Labels {
		if label < 0 || label >= len(ds.Mapping) {
			return fmt.Errorf("%w: label %d at index %d outside mapping of %d genres",
				ErrInvalidDataset, label, i, len(ds.Mapping))
		}

		m := ds.MFCC[i]
		if len(m) == 0 {
			return fmt.Errorf("%w: matrix %d is empty", ErrInvalidDataset, i)
		}
		if rows < 0 {
			rows, cols = len(m), len(m[0])
		}
		if len(m) != rows {
			return fmt.Errorf("%w: matrix %d has %d rows, want %d", ErrInvalidDataset, i, len(m), rows)
		}
		for r, row := range m {
			if len(row) != cols {
				return fmt.Errorf("%w: matrix %d row %d has %d columns, want %d",
					ErrInvalidDataset, i, r, len(row), cols)
			}
			for _, v := range row {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("%w: matrix %d row %d has a non-finite value", ErrInvalidDataset, i, r)
				}
			}
		}
	}
	return nil
}

// GenreCount is the number of segments stored for one genre.
type GenreCount struct {
	ID       int
	Name     string
	Segments int
}

// Summary describes a dataset without its feature values.
type Summary struct {
	Genres   []GenreCount
	Segments int
	Frames   int // Rows per matrix
	Coeffs   int // Columns per matrix
}

// Summarize counts segments per genre, in mapping order.
func Summarize(ds *models.Dataset) Summary {
	s := Summary{Genres: make([]GenreCount, len(ds.Mapping)), Segments: len(ds.Labels)}
	for i, name := range ds.Mapping {
		s.Genres[i] = GenreCount{ID: i, Name: name}
	}
	for _, label := range ds.Labels {
		if label >= 0 && label < len(s.Genres) {
			s.Genres[label].Segments++
		}
	}
	if len(ds.MFCC) > 0 && len(ds.MFCC[0]) > 0 {
		s.Frames = len(ds.MFCC[0])
		s.Coeffs = len(ds.MFCC[0][0])
	}
	return s
}
