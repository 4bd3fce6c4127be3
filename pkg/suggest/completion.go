package suggest

import (
	"sort"
	"sync"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Suggestion is one completed source word.
type Suggestion struct {
	Word      string
	Neighbors int
}

// Vocabulary is the set of source words of a thesaurus in a patricia trie.
// Trie walks reorder child lists in place, so every access goes through mu.
type Vocabulary struct {
	mu           sync.Mutex
	trie         *patricia.Trie
	totalWords   int
	maxNeighbors int
	minNeighbors int
}

// NewVocabulary returns an empty Vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{trie: patricia.NewTrie()}
}

// SetMinNeighbors hides words with fewer neighbours from Complete.
func (v *Vocabulary) SetMinNeighbors(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.minNeighbors = n
}

// Add records word with its neighbour count. Adding a word again replaces
// its count.
func (v *Vocabulary) Add(word string, neighbors int) {
	if word == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.trie.Insert(patricia.Prefix(word), neighbors) {
		v.totalWords++
	} else {
		v.trie.Set(patricia.Prefix(word), neighbors)
	}
	if neighbors > v.maxNeighbors {
		v.maxNeighbors = neighbors
	}
}

// Contains reports whether word was added.
func (v *Vocabulary) Contains(word string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.trie.Get(patricia.Prefix(word)) != nil
}

// Complete returns up to limit words starting with prefix, most neighbours
// first and alphabetically among equals. A limit <= 0 returns all matches.
func (v *Vocabulary) Complete(prefix string, limit int) []Suggestion {
	v.mu.Lock()
	suggestions := SearchTrie(v.trie, prefix, v.minNeighbors)
	v.mu.Unlock()

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Neighbors != suggestions[j].Neighbors {
			return suggestions[i].Neighbors > suggestions[j].Neighbors
		}
		return suggestions[i].Word < suggestions[j].Word
	})

	if len(suggestions) > limit && limit > 0 {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// Len returns the number of distinct words.
func (v *Vocabulary) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.totalWords
}

func (v *Vocabulary) Stats() map[string]int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return map[string]int{
		"totalWords":   v.totalWords,
		"maxNeighbors": v.maxNeighbors,
	}
}
