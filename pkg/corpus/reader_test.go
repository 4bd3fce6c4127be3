package corpus

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func writeCorpus(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readAll(t *testing.T, r *Reader, path string, format Format) ([]Relation, Stats) {
	t.Helper()
	var rels []Relation
	stats, err := r.Each(path, format, func(rel Relation) error {
		rels = append(rels, rel)
		return nil
	})
	require.NoError(t, err)
	return rels, stats
}

func TestParseFormat(t *testing.T) {
	testCases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"pair", PairPerLine, false},
		{"word_word_score", PairPerLine, false},
		{"PAIR_PER_LINE", PairPerLine, false},
		{"neighbors", NeighborListPerLine, false},
		{"word_neighbors", NeighborListPerLine, false},
		{" neighbor_list_per_line ", NeighborListPerLine, false},
		{"csv", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPairPerLineThreshold(t *testing.T) {
	path := writeCorpus(t, "pairs.txt", "cat\tdog\t0.9\ncat\tmouse\t0.7\ncat\tstone\t0.1\n")
	opts := DefaultOptions()
	opts.MinSimilarity = 0.2

	rels, stats := readAll(t, NewReader(opts, nil), path, PairPerLine)

	assert.Equal(t, []Relation{
		{"cat", "dog", 0.9},
		{"cat", "mouse", 0.7},
	}, rels)
	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, 2, stats.Relations)
	assert.Equal(t, 1, stats.Filtered)
}

func TestScoreEqualToThresholdIsKept(t *testing.T) {
	path := writeCorpus(t, "pairs.txt", "a\tb\t0.5\n")
	opts := DefaultOptions()
	opts.MinSimilarity = 0.5

	rels, _ := readAll(t, NewReader(opts, nil), path, PairPerLine)
	require.Len(t, rels, 1)
}

func TestNegativeAndLargeScoresAccepted(t *testing.T) {
	path := writeCorpus(t, "pairs.txt", "a\tb\t-3.5\na\tc\t1e6\n")
	opts := DefaultOptions()
	opts.MinSimilarity = -10

	rels, _ := readAll(t, NewReader(opts, nil), path, PairPerLine)
	require.Len(t, rels, 2)
	assert.Equal(t, -3.5, rels[0].Score)
	assert.Equal(t, 1e6, rels[1].Score)
}

func TestNeighborListMatchesPairs(t *testing.T) {
	pairs := writeCorpus(t, "pairs.txt", "cat\tdog\t0.9\ncat\tmouse\t0.7\n")
	neighbors := writeCorpus(t, "neighbors.txt", "cat\tdog:0.9,mouse:0.7\n")
	r := NewReader(DefaultOptions(), nil)

	fromPairs, _ := readAll(t, r, pairs, PairPerLine)
	fromNeighbors, stats := readAll(t, r, neighbors, NeighborListPerLine)

	assert.Equal(t, fromPairs, fromNeighbors)
	assert.Equal(t, 1, stats.Lines)
	assert.Equal(t, 2, stats.Relations)
}

func TestMalformedLinesAreSkipped(t *testing.T) {
	content := strings.Join([]string{
		"cat\tdog\t0.9",
		"only two\tfields",
		"cat\tmouse\tnot-a-number",
		"",
		"a\tb\tc\td",
		"cat\tmouse\t0.7",
		"\tnobody\t0.3",
		"cat\tbird\tNaN",
		"dog\tcat\t0.8\r",
	}, "\n")
	path := writeCorpus(t, "pairs.txt", content)

	rels, stats := readAll(t, NewReader(DefaultOptions(), nil), path, PairPerLine)

	assert.Equal(t, []Relation{
		{"cat", "dog", 0.9},
		{"cat", "mouse", 0.7},
		{"dog", "cat", 0.8},
	}, rels)
	assert.Equal(t, 9, stats.Lines)
	assert.Equal(t, 5, stats.MalformedLines)
}

func TestMalformedNeighborEntryDropsOnlyThatEntry(t *testing.T) {
	content := "cat\tdog:0.9,broken,mouse:x,bird:0.5,\n" +
		"no neighbours here\n" +
		"dog\tcat:0.8\n"
	path := writeCorpus(t, "neighbors.txt", content)

	rels, stats := readAll(t, NewReader(DefaultOptions(), nil), path, NeighborListPerLine)

	assert.Equal(t, []Relation{
		{"cat", "dog", 0.9},
		{"cat", "bird", 0.5},
		{"dog", "cat", 0.8},
	}, rels)
	assert.Equal(t, 2, stats.MalformedEntries)
	assert.Equal(t, 1, stats.MalformedLines)
}

func TestCustomSeparators(t *testing.T) {
	opts := DefaultOptions()
	opts.FieldSeparator = "|"
	opts.ScoreSeparator = "="
	opts.ListSeparator = ";"
	path := writeCorpus(t, "neighbors.txt", "cat|dog=0.9;mouse=0.7\n")

	rels, _ := readAll(t, NewReader(opts, nil), path, NeighborListPerLine)
	require.Len(t, rels, 2)
	assert.Equal(t, "mouse", rels[1].Target)
}

func TestCompressedCorpora(t *testing.T) {
	content := "cat\tdog\t0.9\ncat\tmouse\t0.7\n"
	dir := t.TempDir()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	gzPath := filepath.Join(dir, "pairs.txt.gz")
	require.NoError(t, os.WriteFile(gzPath, gz.Bytes(), 0644))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zstPath := filepath.Join(dir, "pairs.txt.zst")
	require.NoError(t, os.WriteFile(zstPath, enc.EncodeAll([]byte(content), nil), 0644))
	require.NoError(t, enc.Close())

	plainPath := filepath.Join(dir, "pairs.txt")
	require.NoError(t, os.WriteFile(plainPath, []byte(content), 0644))

	r := NewReader(DefaultOptions(), nil)
	plain, _ := readAll(t, r, plainPath, PairPerLine)
	fromGzip, _ := readAll(t, r, gzPath, PairPerLine)
	fromZstd, _ := readAll(t, r, zstPath, PairPerLine)

	assert.Equal(t, plain, fromGzip)
	assert.Equal(t, plain, fromZstd)
}

func TestUnreadableCorpus(t *testing.T) {
	r := NewReader(DefaultOptions(), nil)

	_, err := r.Open(filepath.Join(t.TempDir(), "missing.txt"), PairPerLine)
	require.ErrorIs(t, err, ErrCorpusUnreadable)

	notGzip := writeCorpus(t, "fake.gz", "this is not gzip")
	_, err = r.Open(notGzip, PairPerLine)
	require.ErrorIs(t, err, ErrCorpusUnreadable)
}

func TestReopenYieldsSameSequence(t *testing.T) {
	path := writeCorpus(t, "neighbors.txt", "a\tb:0.1,c:0.2\nb\ta:0.3\n")
	r := NewReader(DefaultOptions(), nil)

	first, _ := readAll(t, r, path, NeighborListPerLine)
	second, _ := readAll(t, r, path, NeighborListPerLine)
	assert.Equal(t, first, second)
}

func TestEachStopsOnCallbackError(t *testing.T) {
	path := writeCorpus(t, "pairs.txt", "a\tb\t0.1\na\tc\t0.2\n")
	stop := errors.New("stop")
	calls := 0

	_, err := NewReader(DefaultOptions(), nil).Each(path, PairPerLine, func(Relation) error {
		calls++
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestDetectCompression(t *testing.T) {
	assert.Equal(t, Gzip, DetectCompression("x.txt.GZ"))
	assert.Equal(t, Zstd, DetectCompression("x.zst"))
	assert.Equal(t, Zstd, DetectCompression("x.zstd"))
	assert.Equal(t, Plain, DetectCompression("x.csv"))
}
