package bits

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrOutOfRange   = errors.New("field out of range")
	ErrReadMismatch = errors.New("read size mismatch")
)

// FieldReader reads fixed-offset fields out of an immutable byte buffer.
// Every read is bounds checked, nothing is reinterpreted in place.
type FieldReader struct {
	buf   []byte
	order binary.ByteOrder
}

func NewFieldReader(buf []byte, order binary.ByteOrder) FieldReader {
	return FieldReader{buf: buf, order: order}
}

// Slice returns buf[off:off+n]. off and n are widened before the sum so
// values close to the uint32 limit cannot wrap into range.
func (r FieldReader) Slice(off, n uint64) ([]byte, error) {

	end := off + n

	if end < off || end > uint64(len(r.buf)) {
		return nil, fmt.Errorf("%w: [%d, %d) of %d bytes", ErrOutOfRange, off, end, len(r.buf))
	}

	return r.buf[off:end], nil
}

func (r FieldReader) U16At(off uint64) (uint16, error) {
	b, err := r.Slice(off, 2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r FieldReader) MustU16At(off uint64) uint16 {
	v, err := r.U16At(off)
	if err != nil {
		panic(err)
	}
	return v
}

func (r FieldReader) U32At(off uint64) (uint32, error) {
	b, err := r.Slice(off, 4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r FieldReader) MustU32At(off uint64) uint32 {
	v, err := r.U32At(off)
	if err != nil {
		panic(err)
	}
	return v
}

// ReadU32Array decodes len(out) consecutive 32-bit values starting at the
// beginning of src.
func ReadU32Array(src []byte, order binary.ByteOrder, out []uint32) error {

	if len(src) != len(out)*4 {
		return fmt.Errorf("%w: %d bytes for %d values", ErrReadMismatch, len(src), len(out))
	}

	for i := range out {
		out[i] = order.Uint32(src[i*4:])
	}

	return nil
}
