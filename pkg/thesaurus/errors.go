package thesaurus

import "errors"

var (
	// ErrIndexUnloaded is logged when a query reaches a thesaurus that holds
	// no data. Queries never return it.
	ErrIndexUnloaded = errors.New("thesaurus not loaded")
	// ErrCardinalityMismatch means the keys and scores files disagree on the
	// number of entries.
	ErrCardinalityMismatch = errors.New("keys and scores cardinality mismatch")
	// ErrSeparatorMismatch means the keys file was built with another key
	// separator than the one configured.
	ErrSeparatorMismatch = errors.New("key separator mismatch")
)
