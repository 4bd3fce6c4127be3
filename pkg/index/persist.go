package index

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bastiangx/wordsim/pkg/artifact"
)

// Write persists the index. separator is recorded in the header so a reader
// can refuse keys built with a different codec.
func (ix *Index) Write(w io.Writer, separator string) error {
	h := artifact.Header{
		Kind:      artifact.KindKeys,
		Count:     uint64(ix.count),
		BlockSize: ix.blockSize,
		Separator: separator,
	}
	if err := artifact.WriteHeader(w, h); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(ix.offsets))); err != nil {
		return fmt.Errorf("write block count: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, ix.offsets); err != nil {
		return fmt.Errorf("write block offsets: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(ix.data))); err != nil {
		return fmt.Errorf("write data length: %w", err)
	}
	if _, err := w.Write(ix.data); err != nil {
		return fmt.Errorf("write key data: %w", err)
	}
	return nil
}

// ReadIndex loads an index written by Write and checks its structure.
func ReadIndex(r io.Reader) (*Index, artifact.Header, error) {
	h, err := artifact.ReadHeader(r, artifact.KindKeys)
	if err != nil {
		return nil, h, err
	}
	if h.BlockSize <= 0 {
		return nil, h, fmt.Errorf("index: invalid block size %d", h.BlockSize)
	}

	var nblocks uint64
	if err := binary.Read(r, binary.LittleEndian, &nblocks); err != nil {
		return nil, h, fmt.Errorf("read block count: %w", err)
	}
	wantBlocks := (h.Count + uint64(h.BlockSize) - 1) / uint64(h.BlockSize)
	if nblocks != wantBlocks {
		return nil, h, fmt.Errorf("index: %d blocks for %d keys of block size %d", nblocks, h.Count, h.BlockSize)
	}
	offsets, err := artifact.ReadSlice[uint64](r, nblocks)
	if err != nil {
		return nil, h, fmt.Errorf("read block offsets: %w", err)
	}

	var dataLen uint64
	if err := binary.Read(r, binary.LittleEndian, &dataLen); err != nil {
		return nil, h, fmt.Errorf("read data length: %w", err)
	}
	data, err := artifact.ReadBytes(r, dataLen)
	if err != nil {
		return nil, h, fmt.Errorf("read key data: %w", err)
	}

	ix := &Index{
		blockSize: h.BlockSize,
		count:     int(h.Count),
		offsets:   offsets,
		data:      data,
	}
	if err := ix.check(); err != nil {
		return nil, h, err
	}
	return ix, h, nil
}

// check decodes every block with bounds checks, rebuilds the block heads
// and verifies ordering and counts. Lookups use the unchecked decoder.
func (ix *Index) check() error {
	ix.heads = make([]string, len(ix.offsets))
	total := 0
	var prev []byte
	for b, start := range ix.offsets {
		end := uint64(len(ix.data))
		if b+1 < len(ix.offsets) {
			end = ix.offsets[b+1]
		}
		if start > end || end > uint64(len(ix.data)) {
			return fmt.Errorf("index: block %d offsets [%d, %d) out of range", b, start, end)
		}
		data := ix.data[start:end]
		var key []byte
		inBlock := 0
		for len(data) > 0 {
			shared, n := binary.Uvarint(data)
			if n <= 0 {
				return fmt.Errorf("index: block %d: bad shared length", b)
			}
			data = data[n:]
			suffixLen, n := binary.Uvarint(data)
			if n <= 0 || suffixLen > uint64(len(data)-n) {
				return fmt.Errorf("index: block %d: bad suffix length", b)
			}
			data = data[n:]
			if shared > uint64(len(key)) || (inBlock == 0 && shared != 0) {
				return fmt.Errorf("index: block %d: shared length %d exceeds previous key", b, shared)
			}
			key = append(key[:shared], data[:suffixLen]...)
			data = data[suffixLen:]

			if inBlock == 0 {
				ix.heads[b] = string(key)
			}
			if total > 0 && string(key) <= string(prev) {
				return fmt.Errorf("index: key %d out of order", total)
			}
			prev = append(prev[:0], key...)
			inBlock++
			total++
		}
		if inBlock == 0 || inBlock > ix.blockSize || (b+1 < len(ix.offsets) && inBlock != ix.blockSize) {
			return fmt.Errorf("index: block %d holds %d keys, block size %d", b, inBlock, ix.blockSize)
		}
	}
	if total != ix.count {
		return fmt.Errorf("index: header says %d keys, data holds %d", ix.count, total)
	}
	return nil
}
