/*
Package scores holds the dense score vector of a thesaurus: position i is the
score of the key whose index id is i.

Scores are stored at half precision by default. A distributional similarity
needs two or three significant digits, which binary16 keeps for the usual
[0, 1] range while halving the file. Single precision is available when the
corpus carries scores outside the range half precision represents well.
*/
package scores

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/bastiangx/wordsim/pkg/artifact"
	"github.com/x448/float16"
)

// Precision selects the element type of a Store.
type Precision int

const (
	Half Precision = iota
	Single
)

// String returns the name used in config files and artifact headers.
func (p Precision) String() string {
	switch p {
	case Half:
		return "float16"
	case Single:
		return "float32"
	default:
		return fmt.Sprintf("precision(%d)", int(p))
	}
}

// Bytes returns the size of one element.
func (p Precision) Bytes() int {
	if p == Single {
		return 4
	}
	return 2
}

// ParsePrecision accepts "float16", "half", "float32" and "single".
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float16", "half", "f16", "":
		return Half, nil
	case "float32", "single", "f32":
		return Single, nil
	default:
		return Half, fmt.Errorf("unknown score precision %q", s)
	}
}

// Store is a fixed-length score vector. Set is only used while building;
// after that a Store is read-only and safe for concurrent readers.
type Store struct {
	precision Precision
	half      []uint16
	single    []float32
}

// New returns a zeroed store of n scores.
func New(n int, p Precision) *Store {
	s := &Store{precision: p}
	if p == Single {
		s.single = make([]float32, n)
	} else {
		s.half = make([]uint16, n)
	}
	return s
}

// Len returns the number of scores.
func (s *Store) Len() int {
	if s.precision == Single {
		return len(s.single)
	}
	return len(s.half)
}

// Precision returns the element type.
func (s *Store) Precision() Precision { return s.precision }

// SizeBytes returns the memory held by the score vector.
func (s *Store) SizeBytes() int { return s.Len() * s.precision.Bytes() }

// Set stores v at id, rounding it to the store precision. Values beyond the
// half precision range saturate to infinity.
func (s *Store) Set(id uint32, v float64) {
	if s.precision == Single {
		s.single[id] = float32(v)
		return
	}
	s.half[id] = float16.Fromfloat32(float32(v)).Bits()
}

// Get returns the score at id.
func (s *Store) Get(id uint32) float32 {
	if s.precision == Single {
		return s.single[id]
	}
	return float16.Frombits(s.half[id]).Float32()
}

// Write persists the store, little endian.
func (s *Store) Write(w io.Writer) error {
	h := artifact.Header{
		Kind:      artifact.KindScores,
		Count:     uint64(s.Len()),
		Precision: s.precision.String(),
	}
	if err := artifact.WriteHeader(w, h); err != nil {
		return err
	}
	var err error
	if s.precision == Single {
		err = binary.Write(w, binary.LittleEndian, s.single)
	} else {
		err = binary.Write(w, binary.LittleEndian, s.half)
	}
	if err != nil {
		return fmt.Errorf("write scores: %w", err)
	}
	return nil
}

// ReadStore loads a store written by Write.
func ReadStore(r io.Reader) (*Store, artifact.Header, error) {
	h, err := artifact.ReadHeader(r, artifact.KindScores)
	if err != nil {
		return nil, h, err
	}
	p, err := ParsePrecision(h.Precision)
	if err != nil {
		return nil, h, err
	}

	s := &Store{precision: p}
	if p == Single {
		s.single, err = artifact.ReadSlice[float32](r, h.Count)
	} else {
		s.half, err = artifact.ReadSlice[uint16](r, h.Count)
	}
	if err != nil {
		return nil, h, fmt.Errorf("read %d scores: %w", h.Count, err)
	}
	return s, h, nil
}
