package artifact

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// readChunk bounds how many elements are allocated ahead of the bytes that
// back them, so a lying length runs into EOF instead of a huge allocation.
const readChunk = 1 << 16

// ReadSlice reads n little endian values. Memory grows with the data
// actually read, never with n alone.
func ReadSlice[T uint16 | uint64 | float32](r io.Reader, n uint64) ([]T, error) {
	out := make([]T, 0, min(n, readChunk))
	buf := make([]T, min(n, readChunk))
	for remaining := n; remaining > 0; {
		chunk := buf[:min(remaining, readChunk)]
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, fmt.Errorf("%w: %d of %d values present: %w", ErrCorrupt, len(out), n, eofAsUnexpected(err))
		}
		out = append(out, chunk...)
		remaining -= uint64(len(chunk))
	}
	return out, nil
}

// ReadBytes reads exactly n bytes, growing its buffer as they arrive.
func ReadBytes(r io.Reader, n uint64) ([]byte, error) {
	if n > math.MaxInt64 {
		return nil, fmt.Errorf("%w: length %d out of range", ErrCorrupt, n)
	}
	var buf bytes.Buffer
	got, err := io.CopyN(&buf, r, int64(n))
	if err != nil {
		return nil, fmt.Errorf("%w: %d of %d bytes present: %w", ErrCorrupt, got, n, eofAsUnexpected(err))
	}
	return buf.Bytes(), nil
}

func eofAsUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
