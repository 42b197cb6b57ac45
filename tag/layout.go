package tag

// Field offsets inside a bitmap tag. All header fields are little-endian.
const (
	MinHeaderSize = 0x100

	MagicOffset            = 0x24
	VersionOffset          = 0x38
	BlockOffsetOffset      = 0x4C
	WidthOffset            = 0x68
	HeightOffset           = 0x6A
	CompressedLengthOffset = 0x6C
)

// added to the relative block offset stored at BlockOffsetOffset
const BlockOffsetBase uint64 = 0x50

// 'bitm' packed as a little-endian uint32
const BitmapMagic uint32 = 'b'<<24 | 'i'<<16 | 't'<<8 | 'm'

const BitmapVersion uint16 = 7

const (
	// big-endian decompressed length in front of the zlib stream
	LengthPrefixSize = 4

	BytesPerPixel = 4

	Extension = ".bitmap"
)
