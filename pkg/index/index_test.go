package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/bastiangx/wordsim/pkg/artifact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleKeys = []string{
	"cat\tdog",
	"cat\tmouse",
	"cat\tstone",
	"catfish\teel",
	"dog\tcat",
	"dog\twolf",
	"граф\tграфиня",
	"граф\tкнязь",
}

func buildFrom(t *testing.T, keys []string, blockSize int) *Index {
	t.Helper()
	b := NewBuilder()
	for _, k := range keys {
		b.Add(k)
	}
	ix, err := b.Build(blockSize)
	require.NoError(t, err)
	return ix
}

func shuffled(keys []string, seed int64) []string {
	out := append([]string(nil), keys...)
	rand.New(rand.NewSource(seed)).Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestIDsFollowSortedOrder(t *testing.T) {
	for _, blockSize := range []int{1, 2, 3, 16} {
		t.Run(fmt.Sprintf("block_%d", blockSize), func(t *testing.T) {
			ix := buildFrom(t, shuffled(sampleKeys, int64(blockSize)), blockSize)
			require.Equal(t, len(sampleKeys), ix.Len())

			sorted := append([]string(nil), sampleKeys...)
			sort.Strings(sorted)
			for want, key := range sorted {
				id, ok := ix.IDOf(key)
				require.True(t, ok, key)
				assert.Equal(t, uint32(want), id, key)

				back, ok := ix.Key(id)
				require.True(t, ok)
				assert.Equal(t, key, back)
			}
		})
	}
}

func TestInsertionOrderDoesNotMatter(t *testing.T) {
	a := buildFrom(t, sampleKeys, 4)
	b := buildFrom(t, shuffled(sampleKeys, 99), 4)

	var bufA, bufB bytes.Buffer
	require.NoError(t, a.Write(&bufA, "\t"))
	require.NoError(t, b.Write(&bufB, "\t"))
	assert.Equal(t, bufA.Bytes(), bufB.Bytes())
}

func TestDuplicatesCollapse(t *testing.T) {
	b := NewBuilder()
	assert.True(t, b.Add("a\tb"))
	assert.False(t, b.Add("a\tb"))
	assert.True(t, b.Add("a\tc"))
	assert.Equal(t, 2, b.Len())

	ix, err := b.Build(DefaultBlockSize)
	require.NoError(t, err)
	assert.Equal(t, 2, ix.Len())
}

func TestIDOfMissing(t *testing.T) {
	ix := buildFrom(t, sampleKeys, 3)
	for _, key := range []string{"", "a", "cat", "cat\t", "cat\tdo", "cat\tdogs", "zzz"} {
		_, ok := ix.IDOf(key)
		assert.False(t, ok, "%q", key)
		assert.False(t, ix.Contains(key), "%q", key)
	}
	assert.True(t, ix.Contains("cat\tdog"))

	_, ok := ix.Key(uint32(ix.Len()))
	assert.False(t, ok)
}

func TestKeysWithPrefix(t *testing.T) {
	for _, blockSize := range []int{1, 2, 5, 16} {
		t.Run(fmt.Sprintf("block_%d", blockSize), func(t *testing.T) {
			ix := buildFrom(t, sampleKeys, blockSize)

			entries := ix.KeysWithPrefix("cat\t")
			require.Len(t, entries, 3)
			assert.Equal(t, "cat\tdog", entries[0].Key)
			assert.Equal(t, "cat\tmouse", entries[1].Key)
			assert.Equal(t, "cat\tstone", entries[2].Key)
			for i := 1; i < len(entries); i++ {
				assert.Equal(t, entries[i-1].ID+1, entries[i].ID)
			}

			assert.Len(t, ix.KeysWithPrefix("cat"), 4, "catfish shares the bare prefix")
			assert.Len(t, ix.KeysWithPrefix("граф\t"), 2)
			assert.Empty(t, ix.KeysWithPrefix("bird\t"))
			assert.Empty(t, ix.KeysWithPrefix("zzz"))
			assert.Len(t, ix.KeysWithPrefix(""), len(sampleKeys))
			assert.Equal(t, 2, ix.CountPrefix("dog\t"))
		})
	}
}

func TestVisitPrefixStopsEarly(t *testing.T) {
	ix := buildFrom(t, sampleKeys, 2)
	seen := 0
	ix.VisitPrefix("cat\t", func(string, uint32) bool {
		seen++
		return seen < 2
	})
	assert.Equal(t, 2, seen)
}

func TestEmptyIndex(t *testing.T) {
	ix, err := NewBuilder().Build(DefaultBlockSize)
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.KeysWithPrefix(""))
	_, ok := ix.IDOf("a")
	assert.False(t, ok)

	var buf bytes.Buffer
	require.NoError(t, ix.Write(&buf, "\t"))
	back, _, err := ReadIndex(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, back.Len())
}

func TestPersistRoundTrip(t *testing.T) {
	keys := make([]string, 0, 500)
	for i := 0; i < 50; i++ {
		for j := 0; j < 10; j++ {
			keys = append(keys, fmt.Sprintf("word%03d\tneighbour%03d", i, j*7))
		}
	}
	ix := buildFrom(t, shuffled(keys, 1), 16)

	var buf bytes.Buffer
	require.NoError(t, ix.Write(&buf, "\t"))
	back, h, err := ReadIndex(&buf)
	require.NoError(t, err)
	assert.Equal(t, "\t", h.Separator)
	assert.Equal(t, 16, h.BlockSize)
	require.Equal(t, ix.Len(), back.Len())

	for _, k := range keys {
		want, ok := ix.IDOf(k)
		require.True(t, ok)
		got, ok := back.IDOf(k)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, ix.KeysWithPrefix("word007\t"), back.KeysWithPrefix("word007\t"))
}

func TestFrontCodingSharesPrefixes(t *testing.T) {
	keys := make([]string, 0, 1000)
	for j := 0; j < 1000; j++ {
		keys = append(keys, fmt.Sprintf("a-rather-long-source-word\tn%04d", j))
	}
	ix := buildFrom(t, keys, 16)

	raw := 0
	for _, k := range keys {
		raw += len(k)
	}
	assert.Less(t, ix.SizeBytes(), raw/2)
}

func TestReadIndexRejectsCorruption(t *testing.T) {
	ix := buildFrom(t, sampleKeys, 2)
	var buf bytes.Buffer
	require.NoError(t, ix.Write(&buf, "\t"))
	good := buf.Bytes()

	truncated := good[:len(good)-3]
	_, _, err := ReadIndex(bytes.NewReader(truncated))
	require.Error(t, err)

	wrongKind := bytes.NewBufferString("WSIM")
	_, _, err = ReadIndex(wrongKind)
	require.Error(t, err)

	// Bump the first suffix length byte past the end of the data.
	tampered := append([]byte(nil), good...)
	dataStart := len(good) - len(ix.data)
	tampered[dataStart+1] = 0x7F
	_, _, err = ReadIndex(bytes.NewReader(tampered))
	require.Error(t, err)

	oversized := func(count, nblocks uint64, dataLen *uint64) []byte {
		var buf bytes.Buffer
		require.NoError(t, artifact.WriteHeader(&buf, artifact.Header{Kind: artifact.KindKeys, Count: count, BlockSize: 1}))
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, nblocks))
		if dataLen != nil {
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, make([]uint64, nblocks)))
			require.NoError(t, binary.Write(&buf, binary.LittleEndian, *dataLen))
		}
		return buf.Bytes()
	}
	hugeData := uint64(1 << 40)
	for name, raw := range map[string][]byte{
		"count beyond id range": oversized(1<<45, 1<<45, nil),
		"block count":           oversized(1<<31, 1<<31, nil),
		"data length":           oversized(1, 1, &hugeData),
	} {
		_, _, err := ReadIndex(bytes.NewReader(raw))
		require.ErrorIs(t, err, artifact.ErrCorrupt, name)
	}
}

func TestFromSortedRejectsUnsorted(t *testing.T) {
	_, err := FromSorted([]string{"b", "a"}, 4)
	require.Error(t, err)

	_, err = FromSorted([]string{"a", "a"}, 4)
	require.Error(t, err)

	ix, err := FromSorted([]string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, ix.Len())
}
