/*
Package index implements the immutable prefix index of composite keys.

Keys are kept in byte-lexicographic order and a key's id is its rank in that
order, so ids are a property of the key set alone: the same keys always give
the same ids, whatever order they were added in.

Storage is front-coded. Keys are grouped into blocks of BlockSize; the first
key of a block is stored whole and every other key as the length of the
prefix it shares with its predecessor plus the remaining suffix. Thesaurus
keys of one source word share that word as a prefix, so most of the key bytes
collapse into a shared-length varint. Only block heads are kept as strings,
which is what binary search runs on.

An Index is never mutated after construction and is safe for concurrent
readers.
*/
package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultBlockSize trades lookup cost (a linear decode inside one block)
// against the per-block head and offset overhead.
const DefaultBlockSize = 16

// Entry is one key with its id.
type Entry struct {
	Key string
	ID  uint32
}

// Index maps composite keys to dense ids in [0, Len()).
type Index struct {
	blockSize int
	count     int
	offsets   []uint64 // start of each block in data
	heads     []string // first key of each block
	data      []byte
}

// Len returns the number of keys.
func (ix *Index) Len() int { return ix.count }

// BlockSize returns the number of keys per block.
func (ix *Index) BlockSize() int { return ix.blockSize }

// SizeBytes approximates the memory held by the index.
func (ix *Index) SizeBytes() int {
	size := len(ix.data) + 8*len(ix.offsets)
	for _, h := range ix.heads {
		size += len(h) + 16
	}
	return size
}

// IDOf returns the id of key.
func (ix *Index) IDOf(key string) (uint32, bool) {
	block := ix.blockFor(key)
	if block < 0 {
		return 0, false
	}

	var (
		id    uint32
		found bool
	)
	ix.scanBlock(block, func(k []byte, i uint32) bool {
		switch cmp := strings.Compare(string(k), key); {
		case cmp == 0:
			id, found = i, true
			return false
		case cmp > 0:
			return false
		}
		return true
	})
	return id, found
}

// Contains reports whether key is indexed.
func (ix *Index) Contains(key string) bool {
	_, ok := ix.IDOf(key)
	return ok
}

// Key returns the key with the given id.
func (ix *Index) Key(id uint32) (string, bool) {
	if int64(id) >= int64(ix.count) {
		return "", false
	}
	block := int(id) / ix.blockSize
	var key string
	ix.scanBlock(block, func(k []byte, i uint32) bool {
		if i == id {
			key = string(k)
			return false
		}
		return true
	})
	return key, true
}

// VisitPrefix calls fn for every key starting with prefix, in ascending key
// order, until fn returns false. The cost is one binary search over block
// heads plus a decode of the matching range.
func (ix *Index) VisitPrefix(prefix string, fn func(key string, id uint32) bool) {
	if ix.count == 0 {
		return
	}
	block := ix.blockFor(prefix)
	if block < 0 {
		block = 0
	}

	for ; block < len(ix.offsets); block++ {
		stop := false
		ix.scanBlock(block, func(k []byte, id uint32) bool {
			key := string(k)
			if strings.HasPrefix(key, prefix) {
				if !fn(key, id) {
					stop = true
					return false
				}
				return true
			}
			if key > prefix {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// KeysWithPrefix collects VisitPrefix into a slice.
func (ix *Index) KeysWithPrefix(prefix string) []Entry {
	var entries []Entry
	ix.VisitPrefix(prefix, func(key string, id uint32) bool {
		entries = append(entries, Entry{Key: key, ID: id})
		return true
	})
	return entries
}

// CountPrefix returns the number of keys starting with prefix.
func (ix *Index) CountPrefix(prefix string) int {
	n := 0
	ix.VisitPrefix(prefix, func(string, uint32) bool {
		n++
		return true
	})
	return n
}

// Visit calls fn for every key in id order until fn returns false.
func (ix *Index) Visit(fn func(key string, id uint32) bool) {
	ix.VisitPrefix("", fn)
}

// blockFor returns the last block whose head is <= key, or -1.
func (ix *Index) blockFor(key string) int {
	return sort.Search(len(ix.heads), func(i int) bool {
		return ix.heads[i] > key
	}) - 1
}

// scanBlock decodes block keys in order. The slice passed to fn is reused
// between calls.
func (ix *Index) scanBlock(block int, fn func(key []byte, id uint32) bool) {
	start := ix.offsets[block]
	end := uint64(len(ix.data))
	if block+1 < len(ix.offsets) {
		end = ix.offsets[block+1]
	}
	data := ix.data[start:end]

	id := uint32(block * ix.blockSize)
	var key []byte
	for len(data) > 0 {
		shared, n := binary.Uvarint(data)
		data = data[n:]
		suffixLen, n := binary.Uvarint(data)
		data = data[n:]
		key = append(key[:shared], data[:suffixLen]...)
		data = data[suffixLen:]
		if !fn(key, id) {
			return
		}
		id++
	}
}

// encoder appends strictly ascending keys into front-coded blocks.
type encoder struct {
	blockSize int
	count     int
	offsets   []uint64
	heads     []string
	data      []byte
	prev      string
	scratch   [binary.MaxVarintLen64]byte
}

func newEncoder(blockSize int) *encoder {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &encoder{blockSize: blockSize}
}

func (e *encoder) add(key string) error {
	if e.count > 0 && key <= e.prev {
		return fmt.Errorf("index: keys out of order: %q after %q", key, e.prev)
	}
	if e.count == math.MaxUint32 {
		return fmt.Errorf("index: more than %d keys", uint64(math.MaxUint32))
	}

	shared := 0
	if e.count%e.blockSize == 0 {
		e.offsets = append(e.offsets, uint64(len(e.data)))
		e.heads = append(e.heads, key)
	} else {
		shared = commonPrefixLen(e.prev, key)
	}
	e.putUvarint(uint64(shared))
	e.putUvarint(uint64(len(key) - shared))
	e.data = append(e.data, key[shared:]...)

	e.prev = key
	e.count++
	return nil
}

func (e *encoder) putUvarint(v uint64) {
	n := binary.PutUvarint(e.scratch[:], v)
	e.data = append(e.data, e.scratch[:n]...)
}

func (e *encoder) finish() *Index {
	return &Index{
		blockSize: e.blockSize,
		count:     e.count,
		offsets:   e.offsets,
		heads:     e.heads,
		data:      e.data,
	}
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// FromSorted builds an index from strictly ascending keys.
func FromSorted(keys []string, blockSize int) (*Index, error) {
	enc := newEncoder(blockSize)
	for _, k := range keys {
		if err := enc.add(k); err != nil {
			return nil, err
		}
	}
	return enc.finish(), nil
}

