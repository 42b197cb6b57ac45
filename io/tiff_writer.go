package io

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/dot5enko/halo2-color-plate-extractor/bits"
)

var ErrScanline = errors.New("bad scanline")

const tiffHeader = "II\x2A\x00"

// IFD entry field types
const (
	dtShort = 3
	dtLong  = 4
)

// IFD tags
const (
	tImageWidth                = 256
	tImageLength               = 257
	tBitsPerSample             = 258
	tCompression               = 259
	tPhotometricInterpretation = 262
	tStripOffsets              = 273
	tOrientation               = 274
	tSamplesPerPixel           = 277
	tRowsPerStrip              = 278
	tStripByteCounts           = 279
	tPlanarConfiguration       = 284
	tExtraSamples              = 338
	tSampleFormat              = 339
)

const (
	compressionNone    = 1
	photometricRGB     = 2
	orientationTopLeft = 1
	planarContiguous   = 1
	extraUnassocAlpha  = 2
	sampleFormatUint   = 1
)

const (
	tiffHeaderSize  = 8
	ifdEntrySize    = 12
	samplesPerPixel = 4
)

// TiffWriter is a scanline sink producing an uncompressed 8-bit RGBA TIFF
// with unassociated alpha, one row per strip. Pixels carry red in bits
// 0-7, green in 8-15, blue in 16-23 and alpha in 24-31.
//
// Strips are written as they arrive, right after the file header; the IFD
// follows the last strip.
type TiffWriter struct {
	path string
	file *os.File
	out  *bufio.Writer

	width  int
	height int

	strip []byte
	next  int

	closed bool
}

// CreateTiff opens path for writing, truncating an existing file, and
// writes the file header.
func CreateTiff(path string, width, height int) (*TiffWriter, error) {

	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid image size %d x %d", width, height)
	}

	stripSize := uint64(width) * samplesPerPixel
	ifdOffset := tiffHeaderSize + stripSize*uint64(height)
	if ifdOffset > math.MaxUint32 {
		return nil, fmt.Errorf("image %d x %d does not fit a classic tiff", width, height)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	w := &TiffWriter{
		path:   path,
		file:   f,
		out:    bufio.NewWriter(f),
		width:  width,
		height: height,
		strip:  make([]byte, stripSize),
	}

	header := bits.NewEncodeBuffer(make([]byte, tiffHeaderSize), binary.LittleEndian)
	header.Write([]byte(tiffHeader))
	header.PutUint32(uint32(ifdOffset))

	// write errors stick to the bufio writer and surface on Close
	w.out.Write(header.Bytes())

	return w, nil
}

func (w *TiffWriter) stripSize() uint32 {
	return uint32(len(w.strip))
}

// WriteScanline writes row y as its own strip. Rows have to arrive top to
// bottom.
func (w *TiffWriter) WriteScanline(y int, row []uint32) error {

	if w.closed {
		return fmt.Errorf("%w: writer closed", ErrScanline)
	}
	if y != w.next || y >= w.height {
		return fmt.Errorf("%w: row %d, expected %d of %d", ErrScanline, y, w.next, w.height)
	}
	if len(row) != w.width {
		return fmt.Errorf("%w: row %d has %d pixels, expected %d", ErrScanline, y, len(row), w.width)
	}

	for x, v := range row {
		binary.LittleEndian.PutUint32(w.strip[x*samplesPerPixel:], v)
	}

	if _, err := w.out.Write(w.strip); err != nil {
		return err
	}

	w.next++
	return nil
}

// Close writes the IFD and closes the file. It fails if not every
// scanline was written.
func (w *TiffWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.next != w.height {
		w.file.Close()
		return fmt.Errorf("%w: %d of %d rows written", ErrScanline, w.next, w.height)
	}

	_, writeErr := w.out.Write(w.encodeIFD())
	if writeErr == nil {
		writeErr = w.out.Flush()
	}

	closeErr := w.file.Close()

	if writeErr != nil {
		return writeErr
	}
	return closeErr
}

// Abort closes the file and removes whatever was written so far.
func (w *TiffWriter) Abort() error {
	if !w.closed {
		w.closed = true
		w.file.Close()
	}
	return os.Remove(w.path)
}

type ifdEntry struct {
	tag    uint16
	kind   uint16
	values []uint32
}

func (e ifdEntry) size() int {
	if e.kind == dtShort {
		return 2 * len(e.values)
	}
	return 4 * len(e.values)
}

func (e ifdEntry) put(bw *bits.BitWriter) {
	for _, v := range e.values {
		if e.kind == dtShort {
			bw.PutUint16(uint16(v))
		} else {
			bw.PutUint32(v)
		}
	}
}

func (w *TiffWriter) encodeIFD() []byte {

	offsets := make([]uint32, w.height)
	counts := make([]uint32, w.height)
	for y := range offsets {
		offsets[y] = tiffHeaderSize + uint32(y)*w.stripSize()
		counts[y] = w.stripSize()
	}

	// sorted by tag
	entries := []ifdEntry{
		{tImageWidth, dtLong, []uint32{uint32(w.width)}},
		{tImageLength, dtLong, []uint32{uint32(w.height)}},
		{tBitsPerSample, dtShort, []uint32{8, 8, 8, 8}},
		{tCompression, dtShort, []uint32{compressionNone}},
		{tPhotometricInterpretation, dtShort, []uint32{photometricRGB}},
		{tStripOffsets, dtLong, offsets},
		{tOrientation, dtShort, []uint32{orientationTopLeft}},
		{tSamplesPerPixel, dtShort, []uint32{samplesPerPixel}},
		{tRowsPerStrip, dtLong, []uint32{1}},
		{tStripByteCounts, dtLong, counts},
		{tPlanarConfiguration, dtShort, []uint32{planarContiguous}},
		{tExtraSamples, dtShort, []uint32{extraUnassocAlpha}},
		{tSampleFormat, dtShort, []uint32{sampleFormatUint, sampleFormatUint, sampleFormatUint, sampleFormatUint}},
	}

	ifdOffset := tiffHeaderSize + uint32(w.height)*w.stripSize()
	// values over 4 bytes go right after the entry table and next-IFD link
	valuesOffset := ifdOffset + 2 + uint32(len(entries))*ifdEntrySize + 4

	table := bits.NewEncodeBuffer(nil, binary.LittleEndian)
	table.EnableGrowing()
	values := bits.NewEncodeBuffer(nil, binary.LittleEndian)
	values.EnableGrowing()

	table.PutUint16(uint16(len(entries)))

	for _, e := range entries {
		table.PutUint16(e.tag)
		table.PutUint16(e.kind)
		table.PutUint32(uint32(len(e.values)))

		if e.size() <= 4 {
			start := table.Position()
			e.put(&table)
			table.PadTo(start + 4)
			continue
		}

		table.PutUint32(valuesOffset + uint32(values.Position()))
		e.put(&values)
	}

	// no next IFD
	table.PutUint32(0)
	table.Write(values.Bytes())

	return table.Bytes()
}
