/*
Package corpus streams (source, target, score) relations out of a
distributional thesaurus dump.

Two line formats are supported, see Format. Either may be gzip or zstd
compressed, which is decided by the file extension. A malformed line (or a
single malformed entry of a neighbour list) is logged and skipped; it never
aborts the stream. Only a corpus that cannot be opened at all is an error.

A Stream is lazy and forward-only. Reading the same file again means calling
Open again, which yields the same sequence as long as the file is unchanged.
*/
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/bastiangx/wordsim/pkg/keycodec"
	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrCorpusUnreadable is returned when the corpus file cannot be opened or decoded.
	ErrCorpusUnreadable = errors.New("corpus unreadable")
	// ErrMalformedLine describes a skipped line or entry. It is only logged.
	ErrMalformedLine = errors.New("malformed line")
)

const (
	DefaultFieldSeparator = "\t"
	DefaultScoreSeparator = ":"
	DefaultListSeparator  = ","
	// DefaultMaxLineBytes bounds a single line; neighbour lists of frequent
	// words can be long.
	DefaultMaxLineBytes = 16 << 20

	maxLoggedLine = 256
)

// Relation is one (source, target, score) triple with both words normalized.
type Relation struct {
	Source string
	Target string
	Score  float64
}

// Stats counts what a stream has seen so far.
type Stats struct {
	Lines            int // lines read, blank ones included
	Relations        int // relations emitted
	Filtered         int // relations dropped by MinSimilarity
	MalformedLines   int
	MalformedEntries int // bad neighbour entries inside otherwise valid lines
}

// Options configures parsing. Zero separators fall back to the defaults.
type Options struct {
	FieldSeparator string
	ScoreSeparator string
	ListSeparator  string
	MinSimilarity  float64
	Verbose        bool
	MaxLineBytes   int
	Logger         *log.Logger
}

// DefaultOptions returns tab/colon/comma separators and a 0.0 threshold.
func DefaultOptions() Options {
	return Options{
		FieldSeparator: DefaultFieldSeparator,
		ScoreSeparator: DefaultScoreSeparator,
		ListSeparator:  DefaultListSeparator,
		MinSimilarity:  0.0,
		MaxLineBytes:   DefaultMaxLineBytes,
	}
}

// Reader opens corpus streams with a fixed configuration.
type Reader struct {
	opts  Options
	codec *keycodec.Codec
	log   *log.Logger
}

// NewReader returns a Reader. codec supplies the separator normalization
// applied to every word; nil means keycodec.Default().
func NewReader(opts Options, codec *keycodec.Codec) *Reader {
	def := DefaultOptions()
	if opts.FieldSeparator == "" {
		opts.FieldSeparator = def.FieldSeparator
	}
	if opts.ScoreSeparator == "" {
		opts.ScoreSeparator = def.ScoreSeparator
	}
	if opts.ListSeparator == "" {
		opts.ListSeparator = def.ListSeparator
	}
	if opts.MaxLineBytes <= 0 {
		opts.MaxLineBytes = def.MaxLineBytes
	}
	if codec == nil {
		codec = keycodec.Default()
	}
	l := opts.Logger
	if l == nil {
		l = log.Default()
	}
	return &Reader{opts: opts, codec: codec, log: l}
}

// Options returns the effective options.
func (r *Reader) Options() Options { return r.opts }

// Open starts a new stream over path in the given format.
func (r *Reader) Open(path string, format Format) (*Stream, error) {
	if _, ok := GetFormatInfo(format); !ok {
		return nil, fmt.Errorf("open corpus %s: unsupported format %v", path, format)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorpusUnreadable, err)
	}

	body, err := decompress(file, DetectCompression(path))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrCorpusUnreadable, path, err)
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), r.opts.MaxLineBytes)

	return &Stream{
		reader:  r,
		path:    path,
		format:  format,
		file:    file,
		body:    body,
		scanner: scanner,
	}, nil
}

// Each streams every relation of path into fn. It stops at the first error
// returned by fn.
func (r *Reader) Each(path string, format Format, fn func(Relation) error) (Stats, error) {
	s, err := r.Open(path, format)
	if err != nil {
		return Stats{}, err
	}
	defer s.Close()

	for s.Next() {
		if err := fn(s.Relation()); err != nil {
			return s.Stats(), err
		}
	}
	return s.Stats(), s.Err()
}

func decompress(f *os.File, c Compression) (io.ReadCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewReader(f)
	case Zstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(f), nil
	}
}

// Stream is a forward-only sequence of relations. It is not safe for
// concurrent use.
type Stream struct {
	reader  *Reader
	path    string
	format  Format
	file    *os.File
	body    io.ReadCloser
	scanner *bufio.Scanner

	pending []Relation
	current Relation
	stats   Stats
	err     error
	done    bool
}

// Next advances to the next relation. It returns false at the end of the
// corpus or on a read error; check Err afterwards.
func (s *Stream) Next() bool {
	for len(s.pending) == 0 {
		if s.done {
			return false
		}
		if !s.scanner.Scan() {
			s.finish()
			return false
		}
		s.stats.Lines++
		s.parseLine(s.scanner.Text())
	}
	s.current = s.pending[0]
	s.pending = s.pending[1:]
	return true
}

// Relation returns the relation produced by the last successful Next.
func (s *Stream) Relation() Relation { return s.current }

// Err returns the first read error, if any. Malformed input is not an error.
func (s *Stream) Err() error { return s.err }

// Stats returns the counters accumulated so far.
func (s *Stream) Stats() Stats { return s.stats }

// Close releases the decompressor and the file.
func (s *Stream) Close() error {
	bodyErr := s.body.Close()
	fileErr := s.file.Close()
	if bodyErr != nil {
		return bodyErr
	}
	return fileErr
}

func (s *Stream) finish() {
	s.done = true
	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("read corpus %s at line %d: %w", s.path, s.stats.Lines+1, err)
		s.reader.log.Errorf("Reading corpus %s stopped: %v", s.path, s.err)
	}
	s.reader.log.Info("Corpus read",
		"path", s.path,
		"relations", s.stats.Relations,
		"lines", s.stats.Lines,
		"filtered", s.stats.Filtered,
		"malformedLines", s.stats.MalformedLines,
		"malformedEntries", s.stats.MalformedEntries)
}

func (s *Stream) parseLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	switch s.format {
	case PairPerLine:
		s.parsePair(line)
	case NeighborListPerLine:
		s.parseNeighbors(line)
	}
}

func (s *Stream) parsePair(line string) {
	opts := s.reader.opts
	fields := strings.Split(line, opts.FieldSeparator)
	if len(fields) != 3 {
		s.malformedLine(line, fmt.Errorf("%w: expected 3 fields, got %d", ErrMalformedLine, len(fields)))
		return
	}
	score, err := parseScore(fields[2])
	if err != nil {
		s.malformedLine(line, err)
		return
	}
	if fields[0] == "" || fields[1] == "" {
		s.malformedLine(line, fmt.Errorf("%w: empty word", ErrMalformedLine))
		return
	}
	s.emit(fields[0], fields[1], score)
}

func (s *Stream) parseNeighbors(line string) {
	opts := s.reader.opts
	fields := strings.Split(line, opts.FieldSeparator)
	if len(fields) != 2 {
		s.malformedLine(line, fmt.Errorf("%w: expected 2 fields, got %d", ErrMalformedLine, len(fields)))
		return
	}
	source := fields[0]
	if source == "" {
		s.malformedLine(line, fmt.Errorf("%w: empty source word", ErrMalformedLine))
		return
	}

	for _, entry := range strings.Split(fields[1], opts.ListSeparator) {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		parts := strings.Split(entry, opts.ScoreSeparator)
		if len(parts) != 2 || parts[0] == "" {
			s.malformedEntry(entry, fmt.Errorf("%w: bad neighbour entry", ErrMalformedLine))
			continue
		}
		score, err := parseScore(parts[1])
		if err != nil {
			s.malformedEntry(entry, err)
			continue
		}
		s.emit(source, parts[0], score)
	}
}

func (s *Stream) emit(source, target string, score float64) {
	if score < s.reader.opts.MinSimilarity {
		s.stats.Filtered++
		return
	}
	s.stats.Relations++
	s.pending = append(s.pending, Relation{
		Source: s.reader.codec.Normalize(source),
		Target: s.reader.codec.Normalize(target),
		Score:  score,
	})
}

func (s *Stream) malformedLine(line string, err error) {
	s.stats.MalformedLines++
	s.reader.log.Warn("Skipping corpus line", "line", s.stats.Lines, "err", err, "raw", clip(line))
}

func (s *Stream) malformedEntry(entry string, err error) {
	s.stats.MalformedEntries++
	if s.reader.opts.Verbose {
		s.reader.log.Warn("Skipping neighbour entry", "line", s.stats.Lines, "err", err, "raw", clip(entry))
		return
	}
	s.reader.log.Debug("Skipping neighbour entry", "line", s.stats.Lines, "err", err)
}

func parseScore(raw string) (float64, error) {
	score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad score %q: %w", ErrMalformedLine, raw, err)
	}
	if math.IsNaN(score) {
		return 0, fmt.Errorf("%w: score is NaN", ErrMalformedLine)
	}
	return score, nil
}

func clip(s string) string {
	if len(s) <= maxLoggedLine {
		return s
	}
	return s[:maxLoggedLine] + "..."
}
