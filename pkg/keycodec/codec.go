/*
Package keycodec joins a (source, target) word pair into the single composite
key stored in the prefix index, and splits it back.

A key is

	normalize(source) + separator + normalize(target)

where normalize replaces every occurrence of the separator inside a word with
the placeholder. The replacement is lossy: a word that contained the
separator decodes with the placeholder in its place.

All keys of one source word share the prefix Prefix(source), which is what
makes neighbour enumeration a single prefix scan.
*/
package keycodec

import (
	"errors"
	"strings"
)

const (
	// DefaultSeparator matches the corpus field separator.
	DefaultSeparator = "\t"
	// DefaultPlaceholder is substituted for separators found inside words.
	DefaultPlaceholder = "_"
)

var (
	ErrEmptySeparator   = errors.New("keycodec: separator must not be empty")
	ErrSeparatorLength  = errors.New("keycodec: separator must be a single byte")
	ErrEmptyPlaceholder = errors.New("keycodec: placeholder must not be empty")
	ErrPlaceholderClash = errors.New("keycodec: placeholder must not contain the separator")
)

// Codec encodes word pairs into composite keys. It is immutable and safe for
// concurrent use.
type Codec struct {
	separator   string
	placeholder string
	replacer    *strings.Replacer
}

// New returns a Codec using separator between the two words and placeholder
// in place of separators embedded in a word. The separator is one byte: with
// a longer one a word ending in part of it would shift the split point.
func New(separator, placeholder string) (*Codec, error) {
	if separator == "" {
		return nil, ErrEmptySeparator
	}
	if len(separator) != 1 {
		return nil, ErrSeparatorLength
	}
	if placeholder == "" {
		return nil, ErrEmptyPlaceholder
	}
	if strings.Contains(placeholder, separator) {
		return nil, ErrPlaceholderClash
	}
	return &Codec{
		separator:   separator,
		placeholder: placeholder,
		replacer:    strings.NewReplacer(separator, placeholder),
	}, nil
}

// Default returns the tab/underscore codec.
func Default() *Codec {
	c, _ := New(DefaultSeparator, DefaultPlaceholder)
	return c
}

// Separator returns the key separator.
func (c *Codec) Separator() string { return c.separator }

// Placeholder returns the placeholder substituted for embedded separators.
func (c *Codec) Placeholder() string { return c.placeholder }

// Normalize replaces embedded separators in word with the placeholder.
func (c *Codec) Normalize(word string) string {
	if !strings.Contains(word, c.separator) {
		return word
	}
	return c.replacer.Replace(word)
}

// Encode builds the composite key for (source, target).
func (c *Codec) Encode(source, target string) string {
	source = c.Normalize(source)
	target = c.Normalize(target)

	var b strings.Builder
	b.Grow(len(source) + len(c.separator) + len(target))
	b.WriteString(source)
	b.WriteString(c.separator)
	b.WriteString(target)
	return b.String()
}

// Prefix returns the key prefix shared by every neighbour of word.
func (c *Codec) Prefix(word string) string {
	return c.Normalize(word) + c.separator
}

// Decode splits key at the first separator. ok is false when key holds no
// separator.
func (c *Codec) Decode(key string) (source, target string, ok bool) {
	return strings.Cut(key, c.separator)
}

// Target returns the target word of a key known to start with prefix.
func (c *Codec) Target(key, prefix string) string {
	return strings.TrimPrefix(key, prefix)
}
