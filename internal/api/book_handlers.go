package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns every book on the shelf",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Registers a new book in the not_started state",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Manually override book fields",
		Description: "Applies a partial update without transition validation; writes no ledger event",
		Tags:        []string{"Books"},
	}, s.handleManualUpdate)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}",
		Summary:       "Delete book",
		Description:   "Removes a book; its ledger events are retained",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "transitionBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/state",
		Summary:     "Change reading state",
		Description: "Moves a book through the reading state machine and records a state_change event",
		Tags:        []string{"Books"},
	}, s.handleTransition)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProgress",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/progress",
		Summary:     "Update reading progress",
		Description: "Records the new current page and a progress_update event",
		Tags:        []string{"Books"},
	}, s.handleUpdateProgress)

	huma.Register(s.api, huma.Operation{
		OperationID: "rateBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/rating",
		Summary:     "Rate book",
		Description: "Sets a 1-5 rating and records a rating_added event",
		Tags:        []string{"Books"},
	}, s.handleRateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addNote",
		Method:        http.MethodPost,
		Path:          "/api/v1/books/{id}/notes",
		Summary:       "Add note",
		Description:   "Appends a free-text note to the book's ledger",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookEvents",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/events",
		Summary:     "Get book history",
		Description: "Returns the book's full ledger history, newest first",
		Tags:        []string{"Books"},
	}, s.handleGetBookEvents)

	huma.Register(s.api, huma.Operation{
		OperationID: "listEvents",
		Method:      http.MethodGet,
		Path:        "/api/v1/events",
		Summary:     "List recent events",
		Description: "Returns ledger entries across all books, newest first; the full ledger unless a limit is given",
		Tags:        []string{"Events"},
	}, s.handleListEvents)
}

// ListBooksOutput wraps the book list for Huma.
type ListBooksOutput struct {
	Body struct {
		Books []*domain.Book `json:"books"`
	}
}

func (s *Server) handleListBooks(ctx context.Context, _ *struct{}) (*ListBooksOutput, error) {
	books, err := s.services.Book.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListBooksOutput{}
	out.Body.Books = books
	return out, nil
}

// BookOutput wraps a single book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// CreateBookInput carries the create request body.
type CreateBookInput struct {
	Body service.CreateBookRequest
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	book, err := s.services.Book.CreateBook(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

// BookIDInput captures the book ID path parameter.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, err := s.services.Book.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

// ManualUpdateInput carries a partial book override.
type ManualUpdateInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.ManualUpdateRequest
}

func (s *Server) handleManualUpdate(ctx context.Context, input *ManualUpdateInput) (*BookOutput, error) {
	book, err := s.services.Book.ManualUpdate(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	if err := s.services.Book.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

// TransitionInput carries the target reading state.
type TransitionInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.TransitionRequest
}

func (s *Server) handleTransition(ctx context.Context, input *TransitionInput) (*BookOutput, error) {
	book, err := s.services.Book.Transition(ctx, defaultUserID, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

// UpdateProgressInput carries the new page position.
type UpdateProgressInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.UpdateProgressRequest
}

func (s *Server) handleUpdateProgress(ctx context.Context, input *UpdateProgressInput) (*BookOutput, error) {
	book, err := s.services.Book.UpdateProgress(ctx, defaultUserID, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

// RateBookInput carries the rating.
type RateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.RateBookRequest
}

func (s *Server) handleRateBook(ctx context.Context, input *RateBookInput) (*BookOutput, error) {
	book, err := s.services.Book.RateBook(ctx, defaultUserID, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

// AddNoteInput carries the note text.
type AddNoteInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.AddNoteRequest
}

// EventOutput wraps a single ledger event for Huma.
type EventOutput struct {
	Body *domain.Event
}

func (s *Server) handleAddNote(ctx context.Context, input *AddNoteInput) (*EventOutput, error) {
	event, err := s.services.Book.AddNote(ctx, defaultUserID, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: event}, nil
}

// EventListOutput wraps a list of ledger events for Huma.
type EventListOutput struct {
	Body struct {
		Events []*domain.Event `json:"events"`
	}
}

func (s *Server) handleGetBookEvents(ctx context.Context, input *BookIDInput) (*EventListOutput, error) {
	events, err := s.services.Book.EventsForBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	out := &EventListOutput{}
	out.Body.Events = events
	return out, nil
}

// ListEventsInput captures the optional limit query parameter. When omitted
// the full ledger is returned.
type ListEventsInput struct {
	Limit int `query:"limit" minimum:"1" maximum:"500" doc:"Maximum number of events to return; omit for the full ledger"`
}

func (s *Server) handleListEvents(ctx context.Context, input *ListEventsInput) (*EventListOutput, error) {
	events, err := s.services.Book.RecentEvents(ctx, defaultUserID, input.Limit)
	if err != nil {
		return nil, err
	}

	out := &EventListOutput{}
	out.Body.Events = events
	return out, nil
}
