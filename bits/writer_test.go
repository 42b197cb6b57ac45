package bits

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestBitWriterGrowsPastDoubleSize(t *testing.T) {

	bw := NewEncodeBuffer(make([]byte, 2), binary.LittleEndian)
	bw.EnableGrowing()

	bw.PutUint16(0x0102)

	payload := bytes.Repeat([]byte{0xAB}, 9)
	if n, err := bw.Write(payload); err != nil || n != len(payload) {
		t.Fatalf("Expected %d bytes written, got %d (%v)", len(payload), n, err)
	}

	if bw.Position() != 11 {
		t.Errorf("Expected position 11 but got %d", bw.Position())
	}
	if !bytes.Equal(bw.Bytes()[:2], []byte{0x02, 0x01}) {
		t.Errorf("prefix lost after grow: %v", bw.Bytes()[:2])
	}
}

func TestBitWriterPadTo(t *testing.T) {

	bw := NewEncodeBuffer(nil, binary.LittleEndian)
	bw.EnableGrowing()

	if err := bw.PadTo(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bw.PutUint32(0xA1B2C3D4)
	bw.PutUint32Order(0x01020304, binary.BigEndian)

	expected := []byte{0, 0, 0, 0, 0xD4, 0xC3, 0xB2, 0xA1, 0x01, 0x02, 0x03, 0x04}
	if !bytes.Equal(bw.Bytes(), expected) {
		t.Errorf("Expected %v but got %v", expected, bw.Bytes())
	}

	if err := bw.PadTo(2); err == nil {
		t.Errorf("Expected error padding backwards")
	}
}

func TestBitWriterPanicsWithoutGrowing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Expected panic when writing past a fixed buffer")
		}
	}()

	bw := NewEncodeBuffer(make([]byte, 2), binary.LittleEndian)
	bw.PutUint32(1)
}

func TestBitWriterPadToZeroesReusedBuffer(t *testing.T) {

	bw := NewEncodeBuffer(bytes.Repeat([]byte{0xFF}, 6), binary.LittleEndian)

	bw.PutUint16(0x0102)
	if err := bw.PadTo(6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []byte{0x02, 0x01, 0, 0, 0, 0}
	if !bytes.Equal(bw.Bytes(), expected) {
		t.Errorf("Expected %v but got %v", expected, bw.Bytes())
	}
}
