package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Local is the folder yt-dlp writes into.
type Local struct {
	folder string
}

func NewLocal(folder string) *Local {
	return &Local{folder: folder}
}

func (l *Local) Folder() string {
	return l.folder
}

func (l *Local) Path(name string) string {
	return filepath.Join(l.folder, name)
}

func (l *Local) Ensure() error {
	return os.MkdirAll(l.folder, 0o755)
}

func (l *Local) Open(_ context.Context, name string) (*File, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	p := l.Path(name)
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotAFile
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}

	return &File{
		ReadSeekCloser: f,
		Name:           info.Name(),
		Size:           info.Size(),
		ModTime:        info.ModTime(),
	}, nil
}

// RemoveOlderThan deletes the files last modified before cutoff and returns
// their names. Failures on single files are logged and skipped.
func (l *Local) RemoveOlderThan(cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(l.folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	removed := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(l.Path(e.Name())); err != nil {
			zap.S().Named("storage").Errorw("failed to remove old file", "file", e.Name(), "error", err)
			continue
		}
		removed = append(removed, e.Name())
	}

	return removed, nil
}
