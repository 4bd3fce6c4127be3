package suggest

import (
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// SearchTrie collects every word under prefix whose count is at least
// minCount. An empty prefix visits the whole trie.
func SearchTrie(trie *patricia.Trie, prefix string, minCount int) []Suggestion {
	if trie == nil {
		return []Suggestion{}
	}

	var suggestions []Suggestion
	visit := func(p patricia.Prefix, item patricia.Item) error {
		count := 1
		switch v := item.(type) {
		case int:
			count = v
		case uint32:
			count = int(v)
		default:
			log.Errorf("Unknown item type: %T for word %s", item, p)
		}
		if count < minCount {
			return nil
		}
		suggestions = append(suggestions, Suggestion{
			Word:      string(p),
			Neighbors: count,
		})
		return nil
	}

	var err error
	if prefix == "" {
		err = trie.Visit(visit)
	} else {
		err = trie.VisitSubtree(patricia.Prefix(prefix), visit)
	}
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
	}
	return suggestions
}
