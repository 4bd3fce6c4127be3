/*
Package artifact frames the two persisted thesaurus files.

Each file starts with

	magic   [4]byte  "WSIM"
	hdrLen  uint32   little endian
	header  [hdrLen]byte  msgpack-encoded Header

followed by a kind-specific body. The header is versioned. ReadHeader refuses
headers written by a newer release and passes older ones through Upgrade,
which is the single place where a schema change maps old fields onto the
current meaning. Field meanings never change silently: a change in meaning is
a version bump plus an Upgrade case.
*/
package artifact

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Kind names what a persisted file holds.
type Kind string

const (
	KindKeys   Kind = "keys"
	KindScores Kind = "scores"
)

// CurrentVersion is the header version written by this release.
const CurrentVersion = 1

const (
	// KeysFile holds the prefix index.
	KeysFile = "keys.idx"
	// ScoresFile holds the score store.
	ScoresFile = "scores.bin"

	maxHeaderLen = 1 << 20

	// MaxCount is the most entries an artifact can hold: ids are uint32.
	MaxCount = 1 << 32
)

var magic = [4]byte{'W', 'S', 'I', 'M'}

var (
	ErrBadMagic           = errors.New("artifact: bad magic")
	ErrUnsupportedVersion = errors.New("artifact: unsupported version")
	ErrWrongKind          = errors.New("artifact: wrong kind")
	ErrArtifactMissing    = errors.New("artifact: missing")
	ErrCorrupt            = errors.New("artifact: corrupt")
)

// Header describes a persisted file. Count is the number of entries; the keys
// and scores files of one thesaurus must agree on it.
type Header struct {
	Kind      Kind   `msgpack:"kind"`
	Version   int    `msgpack:"version"`
	Count     uint64 `msgpack:"count"`
	BlockSize int    `msgpack:"block_size,omitempty"`
	Precision string `msgpack:"precision,omitempty"`
	Separator string `msgpack:"separator,omitempty"`
}

// WriteHeader writes magic, length and the msgpack header. Version is forced
// to CurrentVersion.
func WriteHeader(w io.Writer, h Header) error {
	h.Version = CurrentVersion
	data, err := msgpack.Marshal(&h)
	if err != nil {
		return fmt.Errorf("encode %s header: %w", h.Kind, err)
	}
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadHeader reads and validates a header of the expected kind.
func ReadHeader(r io.Reader, want Kind) (Header, error) {
	var got [4]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return Header{}, fmt.Errorf("read magic: %w", err)
	}
	if !bytes.Equal(got[:], magic[:]) {
		return Header{}, fmt.Errorf("%w: %q", ErrBadMagic, got[:])
	}

	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return Header{}, fmt.Errorf("read header length: %w", err)
	}
	if n == 0 || n > maxHeaderLen {
		return Header{}, fmt.Errorf("artifact: header length %d out of range", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}

	var h Header
	if err := msgpack.Unmarshal(data, &h); err != nil {
		return Header{}, fmt.Errorf("decode header: %w", err)
	}
	h, err := Upgrade(h)
	if err != nil {
		return Header{}, err
	}
	if h.Kind != want {
		return Header{}, fmt.Errorf("%w: got %q, want %q", ErrWrongKind, h.Kind, want)
	}
	if h.Count > MaxCount {
		return Header{}, fmt.Errorf("%w: count %d exceeds %d", ErrCorrupt, h.Count, uint64(MaxCount))
	}
	return h, nil
}

// Upgrade maps a header of any supported version onto CurrentVersion.
// Version 1 is the first schema, so there is nothing to map yet. A future
// version 2 adds `case 1:` here filling the new fields from the old ones.
func Upgrade(h Header) (Header, error) {
	switch {
	case h.Version > CurrentVersion:
		return Header{}, fmt.Errorf("%w: %d (this build reads up to %d)", ErrUnsupportedVersion, h.Version, CurrentVersion)
	case h.Version < 1:
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	return h, nil
}
