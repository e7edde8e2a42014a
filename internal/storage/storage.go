package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound  = errors.New("file not found")
	ErrNotAFile  = errors.New("not a file")
	ErrEmptyName = errors.New("empty file name")
)

// File is an open downloaded file.
type File struct {
	io.ReadSeekCloser
	Name    string
	Size    int64
	ModTime time.Time
}

type Reader interface {
	Open(ctx context.Context, name string) (*File, error)
}

// Fallback reads from the first reader holding the file.
type Fallback []Reader

func (f Fallback) Open(ctx context.Context, name string) (*File, error) {
	var lastErr error = ErrNotFound
	for _, r := range f {
		if r == nil {
			continue
		}
		file, err := r.Open(ctx, name)
		if err == nil {
			return file, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
