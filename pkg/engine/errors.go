package engine

import "errors"

var (
	// ErrEmptyQuery is returned when a search query is empty after trimming
	ErrEmptyQuery = errors.New("empty query")

	// ErrMissingField is returned when an added document lacks a required field
	ErrMissingField = errors.New("missing required field")

	// ErrDuplicateDoc is returned when a generated document ID collides twice
	ErrDuplicateDoc = errors.New("document already exists")
)
