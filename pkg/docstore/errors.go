package docstore

import "errors"

var (
	// ErrNotOpen is returned when fetching from a store whose file handle is closed
	ErrNotOpen = errors.New("document store is not open")

	// ErrNotFound is returned when a document ID has no offset entry
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateID is returned when appending a record whose ID already exists
	ErrDuplicateID = errors.New("duplicate document id")
)
