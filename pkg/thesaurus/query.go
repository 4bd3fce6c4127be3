package thesaurus

import (
	"slices"
	"strconv"

	"github.com/bastiangx/wordsim/pkg/suggest"
)

// MostSimilar returns up to topN neighbours of word, highest score first and
// alphabetically among equal scores. An unknown word, an unloaded thesaurus
// or a non-positive topN give an empty result; none of them is an error.
func (t *Thesaurus) MostSimilar(word string, topN int) []Neighbor {
	if topN <= 0 {
		return []Neighbor{}
	}
	d := t.data.Load()
	if d == nil {
		t.log.Warn("Query on empty thesaurus", "word", word, "err", ErrIndexUnloaded)
		return []Neighbor{}
	}

	cacheKey := word + "\x00" + strconv.Itoa(topN)
	cache := d.cache
	if hit, ok := cache.Get(cacheKey); ok {
		return slices.Clone(hit)
	}

	prefix := t.codec.Prefix(word)
	best := newTopN(topN)
	d.index.VisitPrefix(prefix, func(key string, id uint32) bool {
		best.offer(candidate{
			word:  t.codec.Target(key, prefix),
			score: d.scores.Get(id),
		})
		return true
	})

	ranked := best.sorted()
	result := make([]Neighbor, len(ranked))
	for i, c := range ranked {
		result[i] = Neighbor{Word: c.word, Score: c.score}
	}
	cache.Put(cacheKey, result)
	return slices.Clone(result)
}

// Score returns the stored score of the (source, target) relation.
func (t *Thesaurus) Score(source, target string) (float32, bool) {
	d := t.data.Load()
	if d == nil {
		t.log.Warn("Query on empty thesaurus", "word", source, "err", ErrIndexUnloaded)
		return 0, false
	}
	id, ok := d.index.IDOf(t.codec.Encode(source, target))
	if !ok {
		return 0, false
	}
	return d.scores.Get(id), true
}

// NeighborCount returns the number of stored neighbours of word.
func (t *Thesaurus) NeighborCount(word string) int {
	d := t.data.Load()
	if d == nil {
		return 0
	}
	return d.index.CountPrefix(t.codec.Prefix(word))
}

// Vocabulary returns the source words with their neighbour counts. It is
// built on first use and nil while the thesaurus is unloaded.
func (t *Thesaurus) Vocabulary() *suggest.Vocabulary {
	d := t.data.Load()
	if d == nil {
		return nil
	}
	d.vocabOnce.Do(func() {
		v := suggest.NewVocabulary()
		var (
			current string
			count   int
		)
		// Keys of one source are contiguous in key order.
		d.index.Visit(func(key string, _ uint32) bool {
			source, _, ok := t.codec.Decode(key)
			if !ok {
				return true
			}
			if source != current && count > 0 {
				v.Add(current, count)
				count = 0
			}
			current = source
			count++
			return true
		})
		if count > 0 {
			v.Add(current, count)
		}
		d.vocab = v
		t.log.Debugf("Vocabulary built with %d source words", v.Len())
	})
	return d.vocab
}
