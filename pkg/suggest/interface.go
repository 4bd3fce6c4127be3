// Package suggest completes source words of a thesaurus from a typed prefix, ranking them by how many neighbours they carry.
package suggest

// ICompleter defines the interface for word completion engines
type ICompleter interface {
	// Complete returns suggestions for a given prefix with a limit
	Complete(prefix string, limit int) []Suggestion

	// Add adds a word with its neighbour count to the completer
	Add(word string, neighbors int)

	// Stats returns statistics about the loaded vocabulary
	Stats() map[string]int
}
