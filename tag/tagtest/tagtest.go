// Package tagtest builds bitmap tag files for tests.
package tagtest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/dot5enko/halo2-color-plate-extractor/bits"
	"github.com/dot5enko/halo2-color-plate-extractor/tag"
	"github.com/klauspost/compress/zlib"
)

// Plate describes one synthetic tag. Zero override fields mean "derive a
// consistent value".
type Plate struct {
	Width  uint16
	Height uint16

	// stored pixel values, written little-endian before compression
	Pixels []uint32

	Magic   uint32
	Version uint16

	DeclaredLength *uint32
	// replaces the zlib stream
	Payload []byte
	// replaces the block length field
	CompressedLength *uint32
	// replaces the relative block offset field
	RelativeOffset *uint32
}

// Valid returns a plate with every field consistent for the given size,
// filled with a deterministic pixel pattern.
func Valid(width, height uint16) Plate {
	pixels := make([]uint32, int(width)*int(height))
	for i := range pixels {
		pixels[i] = 0xFF000000 | uint32(i)*0x010203
	}
	return Plate{Width: width, Height: height, Pixels: pixels}
}

func U32(v uint32) *uint32 {
	return &v
}

// Compress zlib-compresses raw pixels the way the tag format stores them.
func Compress(t testing.TB, pixels []uint32) []byte {
	t.Helper()

	raw := make([]byte, len(pixels)*4)
	for i, p := range pixels {
		binary.LittleEndian.PutUint32(raw[i*4:], p)
	}

	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing fixture compressor: %v", err)
	}
	return out.Bytes()
}

// Build encodes p as a complete tag file. The block starts right after
// the minimum header.
func Build(t testing.TB, p Plate) []byte {
	t.Helper()

	payload := p.Payload
	if payload == nil {
		payload = Compress(t, p.Pixels)
	}

	magic := p.Magic
	if magic == 0 {
		magic = tag.BitmapMagic
	}
	version := p.Version
	if version == 0 {
		version = tag.BitmapVersion
	}

	declared := uint32(int(p.Width) * int(p.Height) * tag.BytesPerPixel)
	if p.DeclaredLength != nil {
		declared = *p.DeclaredLength
	}

	blockLength := uint32(len(payload) + tag.LengthPrefixSize)
	if p.CompressedLength != nil {
		blockLength = *p.CompressedLength
	}

	relative := uint32(tag.MinHeaderSize - tag.BlockOffsetBase)
	if p.RelativeOffset != nil {
		relative = *p.RelativeOffset
	}

	bw := bits.NewEncodeBuffer(nil, binary.LittleEndian)
	bw.EnableGrowing()

	pad := func(offset int) {
		if err := bw.PadTo(offset); err != nil {
			t.Fatalf("encoding fixture header: %v", err)
		}
	}

	pad(tag.MagicOffset)
	bw.PutUint32(magic)
	pad(tag.VersionOffset)
	bw.PutUint16(version)
	pad(tag.BlockOffsetOffset)
	bw.PutUint32(relative)
	pad(tag.WidthOffset)
	bw.PutUint16(p.Width)
	bw.PutUint16(p.Height)
	bw.PutUint32(blockLength)
	pad(tag.MinHeaderSize)

	bw.PutUint32Order(declared, binary.BigEndian)
	if _, err := bw.Write(payload); err != nil {
		t.Fatalf("encoding fixture payload: %v", err)
	}

	return bytes.Clone(bw.Bytes())
}

// WriteFile builds p and stores it under root at the relative path rel.
func WriteFile(t testing.TB, root, rel string, p Plate) string {
	t.Helper()

	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating fixture directory: %v", err)
	}
	if err := os.WriteFile(path, Build(t, p), 0o644); err != nil {
		t.Fatalf("writing fixture %s: %v", path, err)
	}
	return path
}
