package reconcile

import "github.com/lehigh-university-libraries/bookmerge/internal/source"

// IDIndex is the set of canonical ids of a table.
type IDIndex map[string]struct{}

// NewIDIndex indexes the ids of books.
func NewIDIndex(books []Book) IDIndex {
	idx := make(IDIndex, len(books))
	for _, b := range books {
		idx[b.BookID] = struct{}{}
	}
	return idx
}

// Contains reports whether id is a canonical id; nil is never contained.
func (idx IDIndex) Contains(id *string) bool {
	if id == nil {
		return false
	}
	_, ok := idx[*id]
	return ok
}

// MarkChosen flags each record whose own ISBN-10 or ISBN-13 equals a
// canonical id. This is an id-based back-reference, not a check of group
// membership: a record can be marked through an id that another group
// produced.
func MarkChosen(records []source.Record, books []Book) []bool {
	idx := NewIDIndex(books)
	chosen := make([]bool, len(records))
	for i := range records {
		chosen[i] = idx.Contains(records[i].ISBN10) || idx.Contains(records[i].ISBN13)
	}
	return chosen
}
