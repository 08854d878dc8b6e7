package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// audioExtensions lists the file extensions the loader knows how to decode,
// either natively or through ffmpeg.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".au":   true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".aiff": true,
	".aif":  true,
}

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// DeleteFile removes a file
func DeleteFile(path string) error {
	return os.Remove(path)
}

// MoveFile moves or renames a file
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move file from %s to %s: %w", src, dst, err)
	}
	return nil
}

// IsAudioFile reports whether path has a recognised audio extension.
func IsAudioFile(path string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsHidden reports whether the base name of path starts with a dot.
func IsHidden(path string) bool {
	name := filepath.Base(path)
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

// SamePath compares two paths after cleaning and making them absolute.
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// FileSize returns the size of path in bytes, or 0 if it cannot be stat'ed.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
