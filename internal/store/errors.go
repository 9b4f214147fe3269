package store

import "errors"

// Sentinel errors returned by store operations.
var (
	// ErrBookNotFound is returned when a book ID does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrBookExists is returned when creating a book whose ID is taken.
	ErrBookExists = errors.New("book already exists")

	// ErrEventNotFound is returned when an event ID does not exist.
	ErrEventNotFound = errors.New("event not found")
)
