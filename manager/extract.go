package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
	cpio "github.com/dot5enko/halo2-color-plate-extractor/io"
	"github.com/dot5enko/halo2-color-plate-extractor/plate"
	"github.com/dot5enko/halo2-color-plate-extractor/tag"
)

var (
	ErrAlreadyExists   = errors.New("destination already exists")
	ErrRead            = errors.New("tag could not be read")
	ErrOutOfMemory     = plate.ErrOutOfMemory
	ErrDirectoryCreate = errors.New("directory could not be made")
	ErrWrite           = errors.New("image could not be written")
	ErrBadExtension    = errors.New("tag path does not end with " + tag.Extension)
	ErrNotFound        = errors.New("tag does not exist")
	ErrExtractionPanic = errors.New("extraction panicked")
)

// bytes of a bad compressed block shown at debug level
const dumpHeadSize = 64

// Outcome is the result of one tag, as reported to the user.
type Outcome struct {
	TagPath string
	Ok      bool
	Message string
}

// Extract turns the color plate of tagFile into an image at dataFile.
// Parser and decoder errors are returned as they are.
func (m *Manager) Extract(tagFile, dataFile string, overwrite bool) error {

	if !overwrite && cpio.NewFileReader(dataFile).Exists() {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, dataFile)
	}

	input, readErr := cpio.ReadFile(tagFile, m.config.MaxTagBytes)
	if readErr != nil {
		if errors.Is(readErr, cpio.ErrTooLarge) {
			return fmt.Errorf("%w to read the tag: %s", ErrOutOfMemory, readErr.Error())
		}
		return fmt.Errorf("%w: %s", ErrRead, readErr.Error())
	}

	header, headerErr := tag.ParseHeader(input)
	if headerErr != nil {
		return headerErr
	}

	pixels, decodeErr := m.decoder.Decode(input, header)
	if decodeErr != nil {
		if errors.Is(decodeErr, plate.ErrDecompressionFailed) {
			m.dumpBlockHead(tagFile, input, header)
		}
		return decodeErr
	}

	parent := filepath.Dir(dataFile)
	if mkdirErr := os.MkdirAll(parent, 0o755); mkdirErr != nil {
		return fmt.Errorf("%w: %s: %s", ErrDirectoryCreate, parent, mkdirErr.Error())
	}

	if writeErr := m.writeImage(dataFile, pixels); writeErr != nil {
		return writeErr
	}

	m.extracted.Add(1)

	return nil
}

// imageSink is the scanline writer an extraction streams pixels into.
type imageSink interface {
	WriteScanline(y int, row []uint32) error
	Close() error
	Abort() error
}

func createTiffSink(path string, width, height int) (imageSink, error) {
	sink, err := cpio.CreateTiff(path, width, height)
	if err != nil {
		return nil, err
	}
	return sink, nil
}

// writeImage streams pixels into a new image at dataFile. A failed write
// removes the partial file.
func (m *Manager) writeImage(dataFile string, pixels *plate.Pixels) error {

	sink, createErr := m.createSink(dataFile, pixels.Width, pixels.Height)
	if createErr != nil {
		return fmt.Errorf("%w: %s", ErrWrite, createErr.Error())
	}

	for y := 0; y < pixels.Height; y++ {
		if rowErr := sink.WriteScanline(y, pixels.Row(y)); rowErr != nil {
			sink.Abort()
			return fmt.Errorf("%w: %s", ErrWrite, rowErr.Error())
		}
	}

	if closeErr := sink.Close(); closeErr != nil {
		sink.Abort()
		return fmt.Errorf("%w: %s", ErrWrite, closeErr.Error())
	}

	return nil
}

func (m *Manager) dumpBlockHead(tagFile string, input []byte, header tag.Header) {

	if !m.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	block, blockErr := header.Block(input)
	if blockErr != nil {
		return
	}

	m.logger.Debug("compressed block head", "path", tagFile, "block_length", len(block),
		"dump", spew.Sdump(block[:min(len(block), dumpHeadSize)]))
}

// ExtractOne resolves a tag path relative to the tags root, extracts it and
// reports the result on the console. It never panics.
func (m *Manager) ExtractOne(rel string, overwrite bool) (outcome Outcome) {

	rel = NormalizeTagPath(rel)
	outcome.TagPath = rel

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("extraction panicked", "path", rel, "panic", r)
			outcome.Ok = false
			outcome.Message = fmt.Sprintf("%s: %s: %v", rel, ErrExtractionPanic.Error(), r)
			m.console.Failuref("%s", outcome.Message)
		}
	}()

	err := m.extractRelative(rel, overwrite)
	if err != nil {
		outcome.Message = fmt.Sprintf("%s: %s", rel, err.Error())
		m.console.Failuref("%s", outcome.Message)
		return outcome
	}

	outcome.Ok = true
	outcome.Message = "Extracted " + rel
	m.console.Successf("%s", outcome.Message)

	return outcome
}

func (m *Manager) extractRelative(rel string, overwrite bool) error {

	if filepath.Ext(rel) != tag.Extension {
		return ErrBadExtension
	}

	tagFile := m.TagFilePath(rel)
	if !cpio.NewFileReader(tagFile).Exists() {
		return fmt.Errorf("%w: %s", ErrNotFound, tagFile)
	}

	return m.Extract(tagFile, m.DataFilePath(rel), overwrite)
}
