package index

import (
	"github.com/tchap/go-patricia/v2/patricia"
)

// Builder collects the distinct keys of an index. Keys live in a patricia
// trie while building, so keys of one source word share their common prefix
// in memory and duplicates collapse on insert. A Builder is not safe for
// concurrent use.
type Builder struct {
	trie *patricia.Trie
	n    int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{trie: patricia.NewTrie()}
}

// Add inserts key and reports whether it was new.
func (b *Builder) Add(key string) bool {
	if b.trie.Insert(patricia.Prefix(key), true) {
		b.n++
		return true
	}
	return false
}

// Len returns the number of distinct keys added.
func (b *Builder) Len() int { return b.n }

// Build encodes the collected keys. The trie walk yields keys in
// byte-lexicographic order, which fixes the ids.
func (b *Builder) Build(blockSize int) (*Index, error) {
	enc := newEncoder(blockSize)
	err := b.trie.Visit(func(p patricia.Prefix, _ patricia.Item) error {
		return enc.add(string(p))
	})
	if err != nil {
		return nil, err
	}
	return enc.finish(), nil
}
