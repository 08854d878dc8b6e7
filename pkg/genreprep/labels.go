package genreprep

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/srijoni68566/Music-Genre-classification/pkg/models"
	"github.com/srijoni68566/Music-Genre-classification/pkg/utils"
)

// LabelPolicy selects how genre ids are assigned to audio files.
type LabelPolicy string

const (
	// GenreFolders gives each immediate subdirectory of the root an id in
	// lexical order; files anywhere beneath it inherit that id.
	GenreFolders LabelPolicy = "genre-folders"
	// WalkOrder labels every directory below the root in pre-order visit
	// order, id = visit index - 1 with the root as visit 0. Nested folders
	// become labels of their own. Unlike Python's os.walk, hidden
	// directories are skipped and do not use up an id, and siblings are
	// visited in lexical order rather than directory-listing order.
	WalkOrder LabelPolicy = "walk-order"
)

func ParseLabelPolicy(s string) (LabelPolicy, error) {
	switch LabelPolicy(s) {
	case GenreFolders, "":
		return GenreFolders, nil
	case WalkOrder:
		return WalkOrder, nil
	default:
		return "", fmt.Errorf("%w: unknown label policy %q", ErrInvalidConfig, s)
	}
}

// Plan is the result of the label pass: the full mapping and every audio
// file to process, in processing order.
type Plan struct {
	Root    string
	Mapping []string
	Genres  []models.Genre
	Jobs    []models.AudioJob
}

// PlanDataset enumerates labels and audio files under root. It runs to
// completion before any audio is decoded.
func PlanDataset(root string, policy LabelPolicy, log Logger) (*Plan, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dataset root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dataset root %s is not a directory", root)
	}

	p := &Plan{Root: root, Mapping: []string{}}
	switch policy {
	case GenreFolders, "":
		err = p.planGenreFolders(log)
	case WalkOrder:
		err = p.planWalkOrder(log)
	default:
		_, err = ParseLabelPolicy(string(policy))
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plan) addGenre(name, path string) int {
	id := len(p.Mapping)
	p.Mapping = append(p.Mapping, name)
	p.Genres = append(p.Genres, models.Genre{ID: id, Name: name, Path: path})
	return id
}

func (p *Plan) addJob(path string, label int) {
	p.Jobs = append(p.Jobs, models.AudioJob{Index: len(p.Jobs), Path: path, Label: label})
}

func (p *Plan) planGenreFolders(log Logger) error {
	entries, err := os.ReadDir(p.Root)
	if err != nil {
		return fmt.Errorf("reading dataset root: %w", err)
	}

	// ReadDir sorts by name, so ids follow lexical order.
	for _, entry := range entries {
		if !entry.IsDir() || utils.IsHidden(entry.Name()) {
			continue
		}
		genreDir := filepath.Join(p.Root, entry.Name())
		id := p.addGenre(entry.Name(), genreDir)
		if err := walkTopDown(genreDir, func(dir string, files []string) error {
			for _, f := range files {
				p.collect(f, id, log)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) planWalkOrder(log Logger) error {
	visit := -1
	return walkTopDown(p.Root, func(dir string, files []string) error {
		visit++
		if utils.SamePath(dir, p.Root) {
			for _, f := range files {
				log.Debugf("Skipping %s: files directly under the dataset root carry no label", f)
			}
			return nil
		}
		label := visit - 1
		p.addGenre(filepath.Base(dir), dir)
		for _, f := range files {
			p.collect(f, label, log)
		}
		return nil
	})
}

func (p *Plan) collect(path string, label int, log Logger) {
	if utils.IsHidden(path) {
		return
	}
	if !utils.IsAudioFile(path) {
		log.Debugf("Skipping non-audio file %s", path)
		return
	}
	p.addJob(path, label)
}

// walkTopDown visits dir and then its subdirectories in pre-order. Each
// directory's regular files are handed to fn before any subdirectory is
// entered; entries are in lexical order and hidden directories are skipped.
func walkTopDown(dir string, fn func(dir string, files []string) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}

	var files, subdirs []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		switch {
		case entry.IsDir():
			if !utils.IsHidden(entry.Name()) {
				subdirs = append(subdirs, path)
			}
		case entry.Type().IsRegular():
			files = append(files, path)
		case entry.Type()&os.ModeSymlink != 0:
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				files = append(files, path)
			}
		}
	}

	if err := fn(dir, files); err != nil {
		return err
	}
	for _, sub := range subdirs {
		if err := walkTopDown(sub, fn); err != nil {
			return err
		}
	}
	return nil
}
