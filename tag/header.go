package tag

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dot5enko/halo2-color-plate-extractor/bits"
)

var (
	ErrTooSmall     = errors.New("tag is too small")
	ErrBadMagic     = errors.New("tag is not a bitmap tag")
	ErrBadVersion   = errors.New("unsupported bitmap tag version")
	ErrNoColorPlate = errors.New("tag has no color plate data")
	ErrOutOfBounds  = errors.New("color plate block is out of bounds")
)

// Header is the part of a bitmap tag needed to find the color plate.
type Header struct {
	Width  uint16
	Height uint16

	// absolute offset of the block, length prefix included
	BlockOffset uint64
	// block length, length prefix included
	CompressedLength uint32
}

// ParseHeader validates the fixed header of a bitmap tag and locates the
// compressed color plate block. The returned block is guaranteed to lie
// inside input.
func ParseHeader(input []byte) (header Header, topErr error) {

	if len(input) < MinHeaderSize {
		return header, fmt.Errorf("%w (%d < %d bytes)", ErrTooSmall, len(input), MinHeaderSize)
	}

	reader := bits.NewFieldReader(input, binary.LittleEndian)

	magic := reader.MustU32At(MagicOffset)
	if magic != BitmapMagic {
		return header, fmt.Errorf("%w (magic 0x%08X)", ErrBadMagic, magic)
	}

	version := reader.MustU16At(VersionOffset)
	if version != BitmapVersion {
		return header, fmt.Errorf("%w (version %d, expected %d)", ErrBadVersion, version, BitmapVersion)
	}

	header.Width = reader.MustU16At(WidthOffset)
	header.Height = reader.MustU16At(HeightOffset)
	header.CompressedLength = reader.MustU32At(CompressedLengthOffset)

	if header.CompressedLength == 0 {
		return header, ErrNoColorPlate
	}

	// both terms are at most 2^32, the uint64 sum cannot wrap
	header.BlockOffset = uint64(reader.MustU32At(BlockOffsetOffset)) + BlockOffsetBase

	length := uint64(header.CompressedLength)
	if length+header.BlockOffset > uint64(len(input)) || length < LengthPrefixSize {
		return header, fmt.Errorf("%w (%d + %d > %d || %d < %d)", ErrOutOfBounds,
			length, header.BlockOffset, len(input), length, LengthPrefixSize)
	}

	return header, nil
}

// DecompressedSize is the byte size the color plate must inflate to.
func (header Header) DecompressedSize() uint64 {
	return uint64(header.Width) * uint64(header.Height) * BytesPerPixel
}

func (header Header) PixelCount() int {
	return int(header.Width) * int(header.Height)
}

// Block returns the compressed block (length prefix included) of a tag
// that passed ParseHeader.
func (header Header) Block(input []byte) ([]byte, error) {
	return bits.NewFieldReader(input, binary.LittleEndian).Slice(header.BlockOffset, uint64(header.CompressedLength))
}
