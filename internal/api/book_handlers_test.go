package api

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/config"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/validation"
)

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api     humatest.TestAPI
	cleanup func()
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "shelfmark-api-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	st, err := store.New(dbPath, nil)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := validation.New()

	settings := service.NewSettingsService(st, validator, logger, config.GoalsConfig{})
	services := &Services{
		Book:      service.NewBookService(st, validator, logger),
		Analytics: service.NewAnalyticsService(st, settings, logger),
		Settings:  settings,
	}

	s := NewServer(st, services, logger)

	cleanup := func() {
		_ = st.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.api),
		cleanup: cleanup,
	}
}

func createBookViaAPI(t *testing.T, ts *testServer, title, genre string, totalPages int) *domain.Book {
	t.Helper()

	resp := ts.api.Post("/api/v1/books", map[string]any{
		"title":       title,
		"author":      "Test Author",
		"genre":       genre,
		"total_pages": totalPages,
		"is_owned":    true,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var book domain.Book
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &book))
	return &book
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Contains(t, health.Components, "database")
}

func TestCreateAndGetBookEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, domain.StateNotStarted, book.State)

	resp := ts.api.Get("/api/v1/books/" + book.ID)
	assert.Equal(t, http.StatusOK, resp.Code)

	var fetched domain.Book
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &fetched))
	assert.Equal(t, "Piranesi", fetched.Title)
}

func TestGetBook_NotFoundEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/books/bk-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
}

func TestTransitionEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/state", map[string]any{
		"state": "in_progress",
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	var updated domain.Book
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, domain.StateInProgress, updated.State)
	assert.NotNil(t, updated.StartedAt)
}

func TestTransitionEndpoint_InvalidIs409(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/state", map[string]any{
		"state": "finished",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "INVALID_TRANSITION", apiErr.Code)
}

func TestProgressEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/progress", map[string]any{
		"current_page": 80,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	var updated domain.Book
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, 80, updated.Progress.CurrentPage)
}

func TestProgressEndpoint_OutOfRangeIs400(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/progress", map[string]any{
		"current_page": 500,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var apiErr APIError
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &apiErr))
	assert.Equal(t, "OUT_OF_RANGE_PROGRESS", apiErr.Code)
}

func TestBookEventsEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/state", map[string]any{"state": "in_progress"})
	require.Equal(t, http.StatusOK, resp.Code)
	resp = ts.api.Post("/api/v1/books/"+book.ID+"/progress", map[string]any{"current_page": 50})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/books/" + book.ID + "/events")
	assert.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Events []*domain.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out.Events, 2)
	// Newest first.
	assert.Equal(t, domain.EventProgressUpdate, out.Events[0].Type)
	assert.Equal(t, domain.EventStateChange, out.Events[1].Type)
}

func TestDeleteBookEndpoint_KeepsHistory(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)
	resp := ts.api.Post("/api/v1/books/"+book.ID+"/progress", map[string]any{"current_page": 50})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/books/" + book.ID)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/books/" + book.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/books/" + book.ID + "/events")
	assert.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Events []*domain.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Len(t, out.Events, 1)
}

func TestManualOverrideEndpoint(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)

	resp := ts.api.Patch("/api/v1/books/"+book.ID, map[string]any{
		"state":        "finished",
		"current_page": 245,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	var updated domain.Book
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Equal(t, domain.StateFinished, updated.State)

	// No ledger event for overrides.
	resp = ts.api.Get("/api/v1/books/" + book.ID + "/events")
	var out struct {
		Events []*domain.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Empty(t, out.Events)
}

func TestAnalyticsEndpoints_EmptyShelf(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Get("/api/v1/analytics/monthly")
	assert.Equal(t, http.StatusOK, resp.Code)

	var monthly service.MonthlyActivityResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &monthly))
	assert.Empty(t, monthly.Months)

	resp = ts.api.Get("/api/v1/analytics/summary")
	assert.Equal(t, http.StatusOK, resp.Code)

	var summary service.SummaryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.Velocity)
	assert.Equal(t, 0, summary.Lifetime.BooksFinished)
}

func TestAnalyticsMonthlyEndpoint_WithActivity(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)
	resp := ts.api.Post("/api/v1/books/"+book.ID+"/progress", map[string]any{"current_page": 70})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/analytics/monthly")
	assert.Equal(t, http.StatusOK, resp.Code)

	var monthly service.MonthlyActivityResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &monthly))
	require.Len(t, monthly.Months, 12)
	assert.Equal(t, 70, monthly.Months[11].Pages["Fantasy"])
	assert.Contains(t, monthly.Colors, "Fantasy")
}

func TestSettingsEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	resp := ts.api.Put("/api/v1/settings", map[string]any{
		"yearly_goal": 24,
	})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/settings")
	assert.Equal(t, http.StatusOK, resp.Code)

	var settings domain.Settings
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &settings))
	assert.Equal(t, 24, settings.YearlyGoal)
}

func TestRateAndNoteEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	book := createBookViaAPI(t, ts, "Piranesi", "Fantasy", 245)

	resp := ts.api.Post("/api/v1/books/"+book.ID+"/rating", map[string]any{"rating": 5})
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/books/"+book.ID+"/notes", map[string]any{"text": "loved it"})
	assert.Equal(t, http.StatusCreated, resp.Code)

	var event domain.Event
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &event))
	assert.Equal(t, domain.EventNoteAdded, event.Type)

	resp = ts.api.Get("/api/v1/events")
	assert.Equal(t, http.StatusOK, resp.Code)

	var out struct {
		Events []*domain.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Len(t, out.Events, 2)
}
