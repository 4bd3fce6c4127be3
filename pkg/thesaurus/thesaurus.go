/*
Package thesaurus stores a distributional thesaurus and answers "which words
are most similar to W" queries.

A thesaurus is two files in one directory: a prefix index over the composite
(source, target) keys and a dense score vector addressed by key id. Build
reads the corpus twice. The first pass collects keys, which fixes the ids;
the second writes every score at the id of its key. Load reads both files
back.

A loaded Thesaurus is read-only and safe for concurrent queries. Build is not
meant to run alongside queries on the same value.
*/
package thesaurus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bastiangx/wordsim/internal/logger"
	"github.com/bastiangx/wordsim/internal/utils"
	"github.com/bastiangx/wordsim/pkg/artifact"
	"github.com/bastiangx/wordsim/pkg/corpus"
	"github.com/bastiangx/wordsim/pkg/index"
	"github.com/bastiangx/wordsim/pkg/keycodec"
	"github.com/bastiangx/wordsim/pkg/scores"
	"github.com/bastiangx/wordsim/pkg/suggest"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Neighbor is one similar word with its score.
type Neighbor struct {
	Word  string
	Score float32
}

// data is what a loaded thesaurus serves from. It is replaced as a whole.
type data struct {
	index  *index.Index
	scores *scores.Store
	cache  *suggest.HotCache[[]Neighbor]

	vocabOnce sync.Once
	vocab     *suggest.Vocabulary
}

// Thesaurus is either unloaded or holds one index and one score store of
// equal length.
type Thesaurus struct {
	dir   string
	opts  Options
	codec *keycodec.Codec
	log   *log.Logger

	data atomic.Pointer[data]

	buildStats  corpus.Stats
	missingKeys int
}

// New returns an unloaded Thesaurus persisting to dir. Invalid separators
// fall back to the default codec.
func New(opts Options, dir string) *Thesaurus {
	opts = opts.withDefaults()
	l := opts.Logger
	if l == nil {
		l = logger.New("thesaurus")
	}
	l = logger.Verbose(l, opts.Corpus.Verbose)
	opts.Corpus.Logger = l

	codec, err := keycodec.New(opts.Corpus.FieldSeparator, opts.Placeholder)
	if err != nil {
		l.Warnf("Invalid key separators (%v), using defaults", err)
		codec = keycodec.Default()
		opts.Corpus.FieldSeparator = codec.Separator()
		opts.Placeholder = codec.Placeholder()
	}

	return &Thesaurus{
		dir:   dir,
		opts:  opts,
		codec: codec,
		log:   l,
	}
}

// Dir returns the artifact directory.
func (t *Thesaurus) Dir() string { return t.dir }

// Loaded reports whether the thesaurus holds data.
func (t *Thesaurus) Loaded() bool { return t.data.Load() != nil }

// Len returns the number of stored relations.
func (t *Thesaurus) Len() int {
	d := t.data.Load()
	if d == nil {
		return 0
	}
	return d.index.Len()
}

// Build reads corpusPath in the given format, persists the index and the
// scores into the thesaurus directory and leaves the thesaurus loaded with
// the result. When a relation with the same key occurs more than once the
// last score wins.
func (t *Thesaurus) Build(corpusPath string, format corpus.Format) error {
	start := time.Now()
	reader := corpus.NewReader(t.opts.Corpus, t.codec)

	builder := index.NewBuilder()
	stats, err := reader.Each(corpusPath, format, func(r corpus.Relation) error {
		builder.Add(t.codec.Encode(r.Source, r.Target))
		return nil
	})
	if err != nil {
		return fmt.Errorf("build thesaurus: %w", err)
	}

	ix, err := builder.Build(t.opts.BlockSize)
	if err != nil {
		return fmt.Errorf("build thesaurus index: %w", err)
	}
	t.log.Infof("Indexed %d keys from %d relations", ix.Len(), stats.Relations)

	store := scores.New(ix.Len(), t.opts.Precision)
	missing := 0
	_, err = reader.Each(corpusPath, format, func(r corpus.Relation) error {
		key := t.codec.Encode(r.Source, r.Target)
		id, ok := ix.IDOf(key)
		if !ok {
			// The corpus changed between the two passes.
			missing++
			t.log.Warn("Key missing from index, score dropped", "source", r.Source, "target", r.Target)
			return nil
		}
		store.Set(id, r.Score)
		return nil
	})
	if err != nil {
		return fmt.Errorf("build thesaurus scores: %w", err)
	}
	if missing > 0 {
		t.log.Warnf("%d relations had no key in the index; was %s modified during the build?", missing, corpusPath)
	}

	if err := t.persist(ix, store); err != nil {
		return err
	}

	t.buildStats = stats
	t.missingKeys = missing
	t.swap(&data{index: ix, scores: store})
	t.log.Info("Thesaurus built",
		"dir", t.dir,
		"keys", ix.Len(),
		"precision", store.Precision(),
		"took", time.Since(start).Round(time.Millisecond))
	return nil
}

func (t *Thesaurus) persist(ix *index.Index, store *scores.Store) error {
	if err := utils.EnsureDir(t.dir); err != nil {
		return fmt.Errorf("create thesaurus dir %s: %w", t.dir, err)
	}
	keysPath := artifact.Path(t.dir, artifact.KindKeys)
	if err := utils.WriteFileAtomic(keysPath, func(w io.Writer) error {
		return ix.Write(w, t.codec.Separator())
	}); err != nil {
		return fmt.Errorf("write %s: %w", keysPath, err)
	}
	t.log.Debugf("Keys written to %s (%d bytes in memory)", keysPath, ix.SizeBytes())

	scoresPath := artifact.Path(t.dir, artifact.KindScores)
	if err := utils.WriteFileAtomic(scoresPath, store.Write); err != nil {
		return fmt.Errorf("write %s: %w", scoresPath, err)
	}
	t.log.Debugf("Scores written to %s (%d bytes in memory)", scoresPath, store.SizeBytes())
	return nil
}

// Load opens the thesaurus persisted in dir. Missing artifacts are not an
// error: the result is an unloaded Thesaurus and a warning is logged.
// Damaged or mismatched artifacts are an error.
func Load(dir string, opts Options) (*Thesaurus, error) {
	t := New(opts, dir)
	if err := t.Reload(); err != nil {
		if errors.Is(err, artifact.ErrArtifactMissing) {
			t.log.Warn("Cannot load thesaurus", "dir", dir, "err", err)
			return t, nil
		}
		return nil, err
	}
	return t, nil
}

// Reload reads the artifacts of the thesaurus directory again. On error the
// current data is kept.
func (t *Thesaurus) Reload() error {
	if missing := artifact.Missing(t.dir); len(missing) > 0 {
		return fmt.Errorf("%w: %v", artifact.ErrArtifactMissing, missing)
	}
	start := time.Now()

	var (
		ix      *index.Index
		keysHdr artifact.Header
		store   *scores.Store
		g       errgroup.Group
	)
	g.Go(func() error {
		var err error
		ix, keysHdr, err = readArtifact(artifact.Path(t.dir, artifact.KindKeys), index.ReadIndex)
		return err
	})
	g.Go(func() error {
		var err error
		store, _, err = readArtifact(artifact.Path(t.dir, artifact.KindScores), scores.ReadStore)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load thesaurus from %s: %w", t.dir, err)
	}

	if keysHdr.Separator != "" && keysHdr.Separator != t.codec.Separator() {
		return fmt.Errorf("load thesaurus from %s: %w: keys use %q, configured %q",
			t.dir, ErrSeparatorMismatch, keysHdr.Separator, t.codec.Separator())
	}
	if ix.Len() != store.Len() {
		return fmt.Errorf("load thesaurus from %s: %w: %d keys, %d scores",
			t.dir, ErrCardinalityMismatch, ix.Len(), store.Len())
	}

	t.swap(&data{index: ix, scores: store})
	t.log.Info("Thesaurus loaded",
		"dir", t.dir,
		"keys", ix.Len(),
		"precision", store.Precision(),
		"took", time.Since(start).Round(time.Millisecond))
	return nil
}

func readArtifact[T any](path string, read func(io.Reader) (T, artifact.Header, error)) (T, artifact.Header, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, artifact.Header{}, err
	}
	defer f.Close()

	v, h, err := read(bufio.NewReaderSize(f, 1<<20))
	if err != nil {
		return zero, h, fmt.Errorf("%s: %w", path, err)
	}
	return v, h, nil
}

func (t *Thesaurus) swap(d *data) {
	d.cache = suggest.NewHotCache[[]Neighbor](t.opts.CacheSize)
	t.data.Store(d)
}

// Stats reports sizes of the loaded data, the last build and the result
// cache.
func (t *Thesaurus) Stats() map[string]int {
	stats := map[string]int{"loaded": 0}
	if d := t.data.Load(); d != nil {
		stats["loaded"] = 1
		stats["keys"] = d.index.Len()
		stats["indexBytes"] = d.index.SizeBytes()
		stats["scoreBytes"] = d.scores.SizeBytes()
		stats["blockSize"] = d.index.BlockSize()
		for k, v := range d.cache.Stats() {
			stats[k] = v
		}
	}
	if t.buildStats.Lines > 0 {
		stats["corpusLines"] = t.buildStats.Lines
		stats["corpusRelations"] = t.buildStats.Relations
		stats["corpusFiltered"] = t.buildStats.Filtered
		stats["corpusMalformedLines"] = t.buildStats.MalformedLines
		stats["corpusMalformedEntries"] = t.buildStats.MalformedEntries
		stats["missingKeys"] = t.missingKeys
	}
	return stats
}
