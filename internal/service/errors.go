package service

import (
	"fmt"
)

type ErrInvalidURL struct {
	error
}

func NewErrInvalidURL() *ErrInvalidURL {
	return &ErrInvalidURL{fmt.Errorf("Invalid URL provided")}
}

type ErrUnsupportedFormat struct {
	error
}

func NewErrUnsupportedFormat(format string) *ErrUnsupportedFormat {
	return &ErrUnsupportedFormat{fmt.Errorf("Unsupported format: %s", format)}
}

type ErrJobNotFound struct {
	error
}

func NewErrJobNotFound(id string) *ErrJobNotFound {
	return &ErrJobNotFound{fmt.Errorf("job %s not found", id)}
}

type ErrInvalidFilename struct {
	error
}

func NewErrInvalidFilename(name string) *ErrInvalidFilename {
	return &ErrInvalidFilename{fmt.Errorf("invalid filename %q", name)}
}

type ErrFileNotFound struct {
	error
}

func NewErrFileNotFound(name string) *ErrFileNotFound {
	return &ErrFileNotFound{fmt.Errorf("file %s not found", name)}
}

type ErrNotAFile struct {
	error
}

func NewErrNotAFile(name string) *ErrNotAFile {
	return &ErrNotAFile{fmt.Errorf("%s is not a file", name)}
}
