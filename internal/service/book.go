// Package service implements the application logic between the HTTP API and
// the store. Services validate input, apply domain rules, and commit book
// mutations together with their ledger events.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/validation"
)

// BookService handles book lifecycle and the progress ledger.
type BookService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewBookService creates a new book service.
func NewBookService(store *store.Store, validator *validation.Validator, logger *slog.Logger) *BookService {
	return &BookService{
		store:     store,
		validator: validator,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateBookRequest contains the data for registering a book.
type CreateBookRequest struct {
	Title      string `json:"title" validate:"required,max=512"`
	Author     string `json:"author" validate:"required,max=256"`
	Genre      string `json:"genre" validate:"max=128"`
	TotalPages int    `json:"total_pages" validate:"required,gt=0"`
	IsOwned    bool   `json:"is_owned"`
}

// CreateBook registers a new book in the not_started state. Creation itself
// writes no ledger event; the ledger records activity, not catalog changes.
func (s *BookService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bookID, err := id.Generate("bk")
	if err != nil {
		return nil, errors.Internalf("generate book ID: %v", err)
	}

	book := &domain.Book{
		ID:       bookID,
		Title:    req.Title,
		Author:   req.Author,
		Genre:    req.Genre,
		State:    domain.StateNotStarted,
		Progress: domain.Progress{TotalPages: req.TotalPages},
		IsOwned:  req.IsOwned,
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Info("book created",
		"book_id", book.ID,
		"title", book.Title,
	)

	return book, nil
}

// GetBook retrieves a single book.
func (s *BookService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, errors.NotFoundf("book %s not found", bookID)
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// ListBooks returns every registered book.
func (s *BookService) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// DeleteBook removes a book record. Ledger events for the book are retained
// and surface in analytics under the Unknown genre.
func (s *BookService) DeleteBook(ctx context.Context, bookID string) error {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return errors.NotFoundf("book %s not found", bookID)
		}
		return fmt.Errorf("get book: %w", err)
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// TransitionRequest names the target reading state.
type TransitionRequest struct {
	State string `json:"state" validate:"required,oneof=not_started in_progress finished"`
}

// Transition moves a book through the reading state machine and appends a
// state_change event. Validation happens before anything is written; the
// book mutation and the event commit in one transaction.
func (s *BookService) Transition(ctx context.Context, userID, bookID string, req TransitionRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	previous := book.State
	now := s.now()
	if err := book.Apply(domain.ReadingState(req.State), now); err != nil {
		return nil, err
	}

	eventID, err := id.Generate("evt")
	if err != nil {
		return nil, errors.Internalf("generate event ID: %v", err)
	}
	event := domain.NewStateChangeEvent(eventID, userID, bookID, previous, book.State, now)

	if err := s.store.CommitMutation(ctx, book, event); err != nil {
		return nil, errors.LedgerWriteFailure(err)
	}

	s.logger.Info("state transition",
		"book_id", bookID,
		"from", previous,
		"to", book.State,
	)

	return book, nil
}

// UpdateProgressRequest carries the new current page.
type UpdateProgressRequest struct {
	CurrentPage int `json:"current_page" validate:"gte=0"`
}

// UpdateProgress records a page position change and appends a
// progress_update event. Regressions are allowed and recorded as-is; the
// aggregation layer clamps negative deltas, not the write path.
func (s *BookService) UpdateProgress(ctx context.Context, userID, bookID string, req UpdateProgressRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	previousPage := book.Progress.CurrentPage
	now := s.now()
	if err := book.ApplyProgress(req.CurrentPage, now); err != nil {
		return nil, err
	}

	eventID, err := id.Generate("evt")
	if err != nil {
		return nil, errors.Internalf("generate event ID: %v", err)
	}
	event := domain.NewProgressUpdateEvent(eventID, userID, bookID, previousPage, req.CurrentPage, now)

	if err := s.store.CommitMutation(ctx, book, event); err != nil {
		return nil, errors.LedgerWriteFailure(err)
	}

	s.logger.Debug("progress updated",
		"book_id", bookID,
		"previous_page", previousPage,
		"current_page", req.CurrentPage,
	)

	return book, nil
}

// RateBookRequest carries a 1-5 star rating.
type RateBookRequest struct {
	Rating int `json:"rating" validate:"required,gte=1,lte=5"`
}

// RateBook sets a book's rating and appends a rating_added event.
func (s *BookService) RateBook(ctx context.Context, userID, bookID string, req RateBookRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rating := req.Rating
	book.Rating = &rating
	book.Touch(now)

	eventID, err := id.Generate("evt")
	if err != nil {
		return nil, errors.Internalf("generate event ID: %v", err)
	}
	event := domain.NewRatingAddedEvent(eventID, userID, bookID, rating, now)

	if err := s.store.CommitMutation(ctx, book, event); err != nil {
		return nil, errors.LedgerWriteFailure(err)
	}

	return book, nil
}

// AddNoteRequest carries a free-text note.
type AddNoteRequest struct {
	Text string `json:"text" validate:"required,max=4096"`
}

// AddNote appends a note_added event. Notes live only in the ledger; the
// book record does not change apart from its updated timestamp.
func (s *BookService) AddNote(ctx context.Context, userID, bookID string, req AddNoteRequest) (*domain.Event, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	book.Touch(now)

	eventID, err := id.Generate("evt")
	if err != nil {
		return nil, errors.Internalf("generate event ID: %v", err)
	}
	event := domain.NewNoteAddedEvent(eventID, userID, bookID, req.Text, now)

	if err := s.store.CommitMutation(ctx, book, event); err != nil {
		return nil, errors.LedgerWriteFailure(err)
	}

	return event, nil
}

// ManualUpdateRequest carries a partial book override. Nil fields are left
// untouched. State changes here bypass the transition rules.
type ManualUpdateRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,max=512"`
	Author      *string    `json:"author,omitempty" validate:"omitempty,max=256"`
	Genre       *string    `json:"genre,omitempty" validate:"omitempty,max=128"`
	State       *string    `json:"state,omitempty"`
	CurrentPage *int       `json:"current_page,omitempty" validate:"omitempty,gte=0"`
	TotalPages  *int       `json:"total_pages,omitempty" validate:"omitempty,gt=0"`
	IsOwned     *bool      `json:"is_owned,omitempty"`
	Rating      *int       `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// ManualUpdate applies a manual override to a book record. No ledger event
// is written: overrides fix catalog mistakes, they are not reading activity.
func (s *BookService) ManualUpdate(ctx context.Context, bookID string, req ManualUpdateRequest) (*domain.Book, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	patch := domain.BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		CurrentPage: req.CurrentPage,
		TotalPages:  req.TotalPages,
		IsOwned:     req.IsOwned,
		Rating:      req.Rating,
		StartedAt:   req.StartedAt,
		FinishedAt:  req.FinishedAt,
	}
	if req.State != nil {
		state := domain.ReadingState(*req.State)
		patch.State = &state
	}

	if err := book.ManualUpdate(patch, s.now()); err != nil {
		return nil, err
	}

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.logger.Info("manual override applied", "book_id", bookID)
	return book, nil
}

// EventsForBook returns a book's full ledger history, newest first.
func (s *BookService) EventsForBook(ctx context.Context, bookID string) ([]*domain.Event, error) {
	events, err := s.store.EventsForBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("events for book: %w", err)
	}
	return events, nil
}

// RecentEvents returns a user's ledger entries, newest first. A limit of 0
// or less returns the full ledger.
func (s *BookService) RecentEvents(ctx context.Context, userID string, limit int) ([]*domain.Event, error) {
	if limit < 0 {
		limit = 0
	}
	events, err := s.store.EventsForUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	return events, nil
}
