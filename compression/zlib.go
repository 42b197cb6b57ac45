package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

var (
	ErrShortOutput    = errors.New("stream ended before the expected size")
	ErrTrailingOutput = errors.New("stream inflates past the expected size")
	ErrTrailingInput  = errors.New("input continues after the end of the stream")
)

// InflateZlibExact inflates a whole zlib stream from src into out in one
// shot. The stream must end exactly at len(out) bytes of output and must
// consume all of src.
func InflateZlibExact(src []byte, out []byte) error {

	input := bytes.NewReader(src)

	zr, err := zlib.NewReader(input)
	if err != nil {
		return fmt.Errorf("zlib header: %w", err)
	}
	defer zr.Close()

	n, err := io.ReadFull(zr, out)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return fmt.Errorf("%w (%d of %d bytes)", ErrShortOutput, n, len(out))
		}
		return fmt.Errorf("inflate: %w", err)
	}

	// the next read has to hit the end of the stream, which also verifies
	// the adler32 trailer
	var probe [1]byte
	extra, err := zr.Read(probe[:])
	if extra != 0 {
		return ErrTrailingOutput
	}
	if err != io.EOF {
		if err == nil {
			return ErrTrailingOutput
		}
		return fmt.Errorf("inflate: %w", err)
	}

	if input.Len() != 0 {
		return fmt.Errorf("%w (%d bytes left)", ErrTrailingInput, input.Len())
	}

	return nil
}
