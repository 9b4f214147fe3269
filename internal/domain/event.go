package domain

import "time"

// EventType identifies the kind of ledger event.
type EventType string

const (
	// EventStateChange is recorded when a book moves through the reading
	// state machine.
	EventStateChange EventType = "state_change"

	// EventProgressUpdate is recorded when the current page changes.
	// These are the only events the monthly activity matrix consumes.
	EventProgressUpdate EventType = "progress_update"

	// EventRatingAdded is recorded when the user rates a book.
	EventRatingAdded EventType = "rating_added"

	// EventNoteAdded is recorded when the user attaches a free-text note.
	EventNoteAdded EventType = "note_added"
)

// StateChangePayload carries the states around a transition.
type StateChangePayload struct {
	PreviousState ReadingState `json:"previous_state"`
	NewState      ReadingState `json:"new_state"`
}

// ProgressUpdatePayload carries the pages around a progress change.
type ProgressUpdatePayload struct {
	PreviousPage int `json:"previous_page"`
	NewPage      int `json:"new_page"`
}

// RatingAddedPayload carries the assigned rating.
type RatingAddedPayload struct {
	Rating int `json:"rating"`
}

// NoteAddedPayload carries a free-text note.
type NoteAddedPayload struct {
	Text string `json:"text"`
}

// Event is one immutable entry in the progress ledger. Events are append-only:
// never mutated or deleted as an independent operation. BookID is a weak
// reference - deleting a book leaves its events in place, and analytics
// resolve them to the Unknown genre.
//
// The payload is a tagged union keyed by Type: exactly one of the payload
// fields is non-nil, matching the event type.
type Event struct {
	ID         string    `json:"id"`
	BookID     string    `json:"book_id"`
	UserID     string    `json:"user_id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	StateChange    *StateChangePayload    `json:"state_change,omitempty"`
	ProgressUpdate *ProgressUpdatePayload `json:"progress_update,omitempty"`
	RatingAdded    *RatingAddedPayload    `json:"rating_added,omitempty"`
	NoteAdded      *NoteAddedPayload      `json:"note_added,omitempty"`
}

// NewStateChangeEvent builds a state_change ledger entry.
func NewStateChangeEvent(id, userID, bookID string, previous, next ReadingState, at time.Time) *Event {
	return &Event{
		ID:         id,
		BookID:     bookID,
		UserID:     userID,
		Type:       EventStateChange,
		OccurredAt: at,
		StateChange: &StateChangePayload{
			PreviousState: previous,
			NewState:      next,
		},
	}
}

// NewProgressUpdateEvent builds a progress_update ledger entry.
func NewProgressUpdateEvent(id, userID, bookID string, previousPage, newPage int, at time.Time) *Event {
	return &Event{
		ID:         id,
		BookID:     bookID,
		UserID:     userID,
		Type:       EventProgressUpdate,
		OccurredAt: at,
		ProgressUpdate: &ProgressUpdatePayload{
			PreviousPage: previousPage,
			NewPage:      newPage,
		},
	}
}

// NewRatingAddedEvent builds a rating_added ledger entry.
func NewRatingAddedEvent(id, userID, bookID string, rating int, at time.Time) *Event {
	return &Event{
		ID:         id,
		BookID:     bookID,
		UserID:     userID,
		Type:       EventRatingAdded,
		OccurredAt: at,
		RatingAdded: &RatingAddedPayload{
			Rating: rating,
		},
	}
}

// NewNoteAddedEvent builds a note_added ledger entry.
func NewNoteAddedEvent(id, userID, bookID, text string, at time.Time) *Event {
	return &Event{
		ID:         id,
		BookID:     bookID,
		UserID:     userID,
		Type:       EventNoteAdded,
		OccurredAt: at,
		NoteAdded: &NoteAddedPayload{
			Text: text,
		},
	}
}

// PageDelta returns the clamped page delta for a progress_update event.
// Negative deltas (corrections, undo) clamp to zero so regressions never
// subtract from aggregates. Returns 0 for non-progress events.
func (e *Event) PageDelta() int {
	if e.Type != EventProgressUpdate || e.ProgressUpdate == nil {
		return 0
	}
	delta := e.ProgressUpdate.NewPage - e.ProgressUpdate.PreviousPage
	if delta < 0 {
		return 0
	}
	return delta
}
