package plate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"

	"github.com/dot5enko/halo2-color-plate-extractor/bits"
	"github.com/dot5enko/halo2-color-plate-extractor/compression"
	"github.com/dot5enko/halo2-color-plate-extractor/tag"
)

var (
	ErrSizeMismatch        = errors.New("invalid color plate data")
	ErrDecompressionFailed = errors.New("invalid compressed color plate data")
	ErrOutOfMemory         = errors.New("not enough memory")
)

const DefaultMaxPlateBytes = 1 << 30

// Pixels is a normalized color plate. Each value holds red in bits 0-7,
// green in 8-15, blue in 16-23 and alpha in 24-31.
type Pixels struct {
	Width  int
	Height int
	Data   []uint32
}

// Row returns scanline y.
func (p *Pixels) Row(y int) []uint32 {
	return p.Data[y*p.Width : (y+1)*p.Width]
}

type Decoder struct {
	// ceiling for the declared decompressed size, 0 means DefaultMaxPlateBytes
	MaxPlateBytes uint64
}

// Decode inflates and normalizes the color plate of a tag whose header
// passed tag.ParseHeader.
func (d Decoder) Decode(input []byte, header tag.Header) (*Pixels, error) {

	block, blockErr := header.Block(input)
	if blockErr != nil {
		return nil, fmt.Errorf("%w: %s", tag.ErrOutOfBounds, blockErr.Error())
	}

	declared := uint64(binary.BigEndian.Uint32(block[:tag.LengthPrefixSize]))
	expected := header.DecompressedSize()

	// checked before anything is allocated from the untrusted length
	if declared != expected {
		return nil, fmt.Errorf("%w (%d x %d x %d != %d)", ErrSizeMismatch,
			header.Width, header.Height, tag.BytesPerPixel, declared)
	}

	limit := d.MaxPlateBytes
	if limit == 0 {
		limit = DefaultMaxPlateBytes
	}
	if declared > limit {
		return nil, fmt.Errorf("%w to decompress %d bytes (limit %d)", ErrOutOfMemory, declared, limit)
	}

	raw, allocErr := allocate(int(declared))
	if allocErr != nil {
		return nil, allocErr
	}

	inflateErr := compression.InflateZlibExact(block[tag.LengthPrefixSize:], raw)
	if inflateErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecompressionFailed, inflateErr.Error())
	}

	result := &Pixels{
		Width:  int(header.Width),
		Height: int(header.Height),
		Data:   make([]uint32, header.PixelCount()),
	}

	// stored little-endian, decoded to native values
	if readErr := bits.ReadU32Array(raw, binary.LittleEndian, result.Data); readErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecompressionFailed, readErr.Error())
	}

	SwapRedBlue(result.Data)

	return result, nil
}

// allocate turns a refused allocation into ErrOutOfMemory.
func allocate(n int) (buf []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rtErr, ok := r.(runtime.Error); ok {
				err = fmt.Errorf("%w to decompress %d bytes: %s", ErrOutOfMemory, n, rtErr.Error())
				return
			}
			panic(r)
		}
	}()

	return make([]byte, n), nil
}
