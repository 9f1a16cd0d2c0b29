package bootstrap

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

const staleRecordingAge = 24 * time.Hour

// CleanStaleRecordings removes recordings in dir last modified before
// now-maxAge. They are left behind when the process dies mid-cycle.
func CleanStaleRecordings(dir string, maxAge time.Duration, now time.Time) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "recording-*.wav"))
	if err != nil {
		return 0, err
	}

	removed := 0
	var errs []error
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
