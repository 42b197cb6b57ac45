package io

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	ErrTooLarge  = errors.New("file is larger than the read limit")
	ErrShortRead = errors.New("read bytes mismatch")
)

const DefaultMaxFileBytes = 1 << 30

type FileReader struct {
	path   string
	file   *os.File
	opened bool

	exists bool
}

func NewFileReader(path string) *FileReader {

	_, err := os.Stat(path)

	freader := &FileReader{
		path:   path,
		exists: err == nil,
	}

	return freader
}

func (f *FileReader) Exists() bool {
	return f.exists
}

func (f *FileReader) Open() (topErr error) {

	f.file, topErr = os.OpenFile(f.path, os.O_RDONLY, 0)

	if topErr == nil {
		f.opened = true
	}

	return topErr
}

func (f *FileReader) Close() error {
	if !f.opened {
		return nil
	}

	f.opened = false
	return f.file.Close()
}

// ReadAll loads the whole file into a freshly allocated buffer. Files
// bigger than maxSize are refused before anything is allocated.
func (f *FileReader) ReadAll(maxSize int64) ([]byte, error) {
	if !f.opened {
		return nil, errors.New("file not opened")
	}

	info, statErr := f.file.Stat()
	if statErr != nil {
		return nil, statErr
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", f.path)
	}

	size := info.Size()
	if size > maxSize {
		return nil, fmt.Errorf("%w (%d > %d bytes)", ErrTooLarge, size, maxSize)
	}

	out := make([]byte, size)

	readBytes, readErr := io.ReadFull(f.file, out)
	if readErr != nil {
		if errors.Is(readErr, io.ErrUnexpectedEOF) || errors.Is(readErr, io.EOF) {
			return nil, fmt.Errorf("%w (%d of %d bytes)", ErrShortRead, readBytes, size)
		}
		return nil, readErr
	}

	return out, nil
}

// ReadFile opens, loads and closes path.
func ReadFile(path string, maxSize int64) ([]byte, error) {

	reader := NewFileReader(path)

	if openErr := reader.Open(); openErr != nil {
		return nil, openErr
	}
	defer reader.Close()

	return reader.ReadAll(maxSize)
}
