package thesaurus

import (
	"github.com/bastiangx/wordsim/pkg/corpus"
	"github.com/bastiangx/wordsim/pkg/index"
	"github.com/bastiangx/wordsim/pkg/keycodec"
	"github.com/bastiangx/wordsim/pkg/scores"
	"github.com/charmbracelet/log"
)

const (
	// DefaultTopN is the neighbour count returned when callers do not ask
	// for a specific number.
	DefaultTopN = 20
	// DefaultCacheSize bounds the cached MostSimilar results.
	DefaultCacheSize = 1024
)

// Options configures building and querying. The field separator of Corpus
// doubles as the composite key separator.
type Options struct {
	Corpus      corpus.Options
	Placeholder string
	Precision   scores.Precision
	BlockSize   int
	// CacheSize of 0 disables result caching.
	CacheSize int
	Logger    *log.Logger
}

// DefaultOptions returns tab separated keys, half precision scores and the
// default block and cache sizes.
func DefaultOptions() Options {
	return Options{
		Corpus:      corpus.DefaultOptions(),
		Placeholder: keycodec.DefaultPlaceholder,
		Precision:   scores.Half,
		BlockSize:   index.DefaultBlockSize,
		CacheSize:   DefaultCacheSize,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Corpus.FieldSeparator == "" {
		o.Corpus.FieldSeparator = def.Corpus.FieldSeparator
	}
	if o.Placeholder == "" {
		o.Placeholder = def.Placeholder
	}
	if o.BlockSize <= 0 {
		o.BlockSize = def.BlockSize
	}
	return o
}
