package bits

import (
	"encoding/binary"
	"fmt"
)

// BitWriter appends fixed-size fields to a byte buffer.
type BitWriter struct {
	data  []byte
	pos   int
	order binary.ByteOrder

	growingEnabled bool
}

func NewEncodeBuffer(buf []byte, order binary.ByteOrder) BitWriter {
	return BitWriter{data: buf, order: order}
}

func (this *BitWriter) EnableGrowing() {
	this.growingEnabled = true
}

func (this BitWriter) Position() int {
	return this.pos
}

// reserve hands out the next n bytes and moves past them. Without growing
// a write past the end of the buffer panics.
func (this *BitWriter) reserve(n int) []byte {

	end := this.pos + n

	if end > len(this.data) {
		if !this.growingEnabled {
			panic(fmt.Sprintf("bit writer growing is disabled on pos : %d, need %d, size : %d", this.pos, n, len(this.data)))
		}

		grown := make([]byte, max(2*len(this.data), end))
		copy(grown, this.data[:this.pos])
		this.data = grown
	}

	out := this.data[this.pos:end]
	this.pos = end

	return out
}

func (this *BitWriter) Write(p []byte) (int, error) {
	return copy(this.reserve(len(p)), p), nil
}

// PadTo writes zeroes up to an absolute offset. Offsets behind the current
// position are an error, fields are laid out in increasing order.
func (this *BitWriter) PadTo(offset int) error {
	if offset < this.pos {
		return fmt.Errorf("pad to %d: already at %d", offset, this.pos)
	}
	clear(this.reserve(offset - this.pos))
	return nil
}

func (this *BitWriter) Bytes() []byte {
	return this.data[:this.pos]
}

func (this *BitWriter) PutUint16(v uint16) {
	this.order.PutUint16(this.reserve(2), v)
}

func (this *BitWriter) PutUint32(v uint32) {
	this.order.PutUint32(this.reserve(4), v)
}

// PutUint32Order writes v with an explicit byte order, for the odd field
// that does not follow the buffer's order.
func (this *BitWriter) PutUint32Order(v uint32, order binary.ByteOrder) {
	order.PutUint32(this.reserve(4), v)
}
