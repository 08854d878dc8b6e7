package genreprep

import (
	"errors"

	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/audio"
	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/dataset"
	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/storage"
)

var (
	// ErrNoGenres is returned when the dataset root has no genre folders.
	ErrNoGenres      = errors.New("no genre folders found")
	ErrInvalidConfig = errors.New("invalid configuration")

	ErrNoAudioStream     = audio.ErrNoAudioStream
	ErrUnsupportedFormat = audio.ErrUnsupportedFormat
	ErrInvalidDataset    = dataset.ErrInvalidDataset
)

// ErrRunNotFound is returned by Ledger lookups for unknown run ids.
var ErrRunNotFound = storage.ErrRunNotFound
