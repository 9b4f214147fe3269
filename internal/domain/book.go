// Package domain contains the core business entities and domain logic for the Shelfmark reading tracker.
package domain

import (
	"time"

	"github.com/shelfmark/shelfmark-server/internal/errors"
)

// ReadingState is the lifecycle state of a book on the shelf.
type ReadingState string

// Reading states. A book moves forward only: not_started -> in_progress -> finished.
const (
	StateNotStarted ReadingState = "not_started"
	StateInProgress ReadingState = "in_progress"
	StateFinished   ReadingState = "finished"
)

// Valid returns true if the state is a recognized value.
func (s ReadingState) Valid() bool {
	switch s {
	case StateNotStarted, StateInProgress, StateFinished:
		return true
	default:
		return false
	}
}

// allowedTransitions is the full transition table. finished is terminal.
var allowedTransitions = map[ReadingState][]ReadingState{
	StateNotStarted: {StateInProgress},
	StateInProgress: {StateFinished},
	StateFinished:   {},
}

// CanTransition reports whether a book in state s may move to target.
func (s ReadingState) CanTransition(target ReadingState) bool {
	for _, next := range allowedTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// GenreUnknown is the sentinel genre used when a book has no genre or an
// event's book can no longer be resolved.
const GenreUnknown = "Unknown"

// Progress tracks position within a book. TotalPages of 0 means unknown.
type Progress struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

// Book represents a single book on the user's shelf.
type Book struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Author   string       `json:"author,omitempty"`
	State    ReadingState `json:"state"`
	Progress Progress     `json:"progress"`
	Genre    string       `json:"genre,omitempty"`
	IsOwned  bool         `json:"is_owned"`
	Rating   *int         `json:"rating,omitempty"`

	AddedAt    time.Time  `json:"added_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// EffectiveGenre returns the book's genre, or the Unknown sentinel when unset.
func (b *Book) EffectiveGenre() string {
	if b.Genre == "" {
		return GenreUnknown
	}
	return b.Genre
}

// InitTimestamps sets AddedAt and UpdatedAt to now.
// Call this when creating a new book.
func (b *Book) InitTimestamps() {
	now := time.Now()
	b.AddedAt = now
	b.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
func (b *Book) Touch(now time.Time) {
	b.UpdatedAt = now
}

// Apply moves the book to target, validating against the transition table.
// StartedAt is set exactly once, on not_started -> in_progress; FinishedAt
// exactly once, on entry to finished. Neither is ever overwritten.
// The book is left unchanged when the transition is rejected.
func (b *Book) Apply(target ReadingState, now time.Time) error {
	if !target.Valid() {
		return errors.Validationf("unknown reading state %q", target)
	}
	if !b.State.CanTransition(target) {
		return errors.InvalidTransitionf("cannot move from %s to %s", b.State, target)
	}

	if target == StateInProgress && b.StartedAt == nil {
		started := now
		b.StartedAt = &started
	}
	if target == StateFinished && b.FinishedAt == nil {
		finished := now
		b.FinishedAt = &finished
	}

	b.State = target
	b.UpdatedAt = now
	return nil
}

// ApplyProgress updates the current page after bounds validation.
// The book is left unchanged when the new page is out of range.
func (b *Book) ApplyProgress(newPage int, now time.Time) error {
	if newPage < 0 {
		return errors.OutOfRangeProgressf("page %d is negative", newPage)
	}
	if b.Progress.TotalPages > 0 && newPage > b.Progress.TotalPages {
		return errors.OutOfRangeProgressf("page %d exceeds total pages %d", newPage, b.Progress.TotalPages)
	}

	b.Progress.CurrentPage = newPage
	b.UpdatedAt = now
	return nil
}

// BookPatch is a partial update applied by ManualUpdate. Nil fields are
// left untouched; pointer-to-zero values are applied.
type BookPatch struct {
	Title       *string       `json:"title,omitempty"`
	Author      *string       `json:"author,omitempty"`
	State       *ReadingState `json:"state,omitempty"`
	CurrentPage *int          `json:"current_page,omitempty"`
	TotalPages  *int          `json:"total_pages,omitempty"`
	Genre       *string       `json:"genre,omitempty"`
	IsOwned     *bool         `json:"is_owned,omitempty"`
	Rating      *int          `json:"rating,omitempty"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
}

// ManualUpdate applies a partial patch WITHOUT transition validation.
// This is the explicit escape hatch for user-driven data correction: a book
// stuck in a bad state can be fixed here without satisfying the transition
// table. It is never reachable through Apply/ApplyProgress.
func (b *Book) ManualUpdate(patch BookPatch, now time.Time) error {
	if patch.State != nil && !patch.State.Valid() {
		return errors.Validationf("unknown reading state %q", *patch.State)
	}

	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Author != nil {
		b.Author = *patch.Author
	}
	if patch.State != nil {
		b.State = *patch.State
	}
	if patch.CurrentPage != nil {
		b.Progress.CurrentPage = *patch.CurrentPage
	}
	if patch.TotalPages != nil {
		b.Progress.TotalPages = *patch.TotalPages
	}
	if patch.Genre != nil {
		b.Genre = *patch.Genre
	}
	if patch.IsOwned != nil {
		b.IsOwned = *patch.IsOwned
	}
	if patch.Rating != nil {
		b.Rating = patch.Rating
	}
	if patch.StartedAt != nil {
		b.StartedAt = patch.StartedAt
	}
	if patch.FinishedAt != nil {
		b.FinishedAt = patch.FinishedAt
	}

	b.UpdatedAt = now
	return nil
}
