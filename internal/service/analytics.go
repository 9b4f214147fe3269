package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/analytics"
	"github.com/shelfmark/shelfmark-server/internal/color"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// AnalyticsService derives charts and headline metrics from the book set and
// the ledger. Every call is a full recompute over fresh snapshots; nothing
// is cached between requests.
type AnalyticsService struct {
	store    *store.Store
	settings *SettingsService
	logger   *slog.Logger
	now      func() time.Time
}

// NewAnalyticsService creates a new analytics service. The settings service
// supplies the yearly goal so both read paths resolve the same value.
func NewAnalyticsService(store *store.Store, settings *SettingsService, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:    store,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// MonthlyActivityResponse is the trailing 12-month matrix plus the stable
// genre color assignment for rendering stacked charts.
type MonthlyActivityResponse struct {
	Months []analytics.MonthBucket `json:"months"`
	Colors map[string]string       `json:"colors"`
}

// MonthlyActivity returns the dense 12-month genre-by-month page matrix.
// Colors cover exactly the genres appearing in the matrix, assigned
// deterministically so the same shelf always renders the same palette.
func (s *AnalyticsService) MonthlyActivity(ctx context.Context, userID string) (*MonthlyActivityResponse, error) {
	books, events, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	months := analytics.MonthlyActivity(books, events, s.now())

	genres := make([]string, 0)
	if len(months) > 0 {
		for g := range months[0].Pages {
			genres = append(genres, g)
		}
	}

	return &MonthlyActivityResponse{
		Months: months,
		Colors: color.Assign(genres),
	}, nil
}

// GenreDistributionResponse is the all-time per-genre page split with colors.
type GenreDistributionResponse struct {
	Genres []analytics.GenreShare `json:"genres"`
	Colors map[string]string      `json:"colors"`
}

// GenreDistribution returns the all-time reading split across genres.
func (s *AnalyticsService) GenreDistribution(ctx context.Context, userID string) (*GenreDistributionResponse, error) {
	books, events, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	shares := analytics.GenreDistribution(books, events)

	genres := make([]string, 0, len(shares))
	for _, share := range shares {
		genres = append(genres, share.Genre)
	}

	return &GenreDistributionResponse{
		Genres: shares,
		Colors: color.Assign(genres),
	}, nil
}

// SummaryResponse bundles the headline reading metrics.
type SummaryResponse struct {
	Velocity int                      `json:"velocity"`
	Lifetime analytics.LifetimeTotals `json:"lifetime"`
	Streaks  analytics.Streaks        `json:"streaks"`
	Goal     analytics.GoalProgress   `json:"goal"`
}

// Summary computes reading velocity, lifetime totals, streaks, and yearly
// goal progress in one pass over the snapshots.
func (s *AnalyticsService) Summary(ctx context.Context, userID string) (*SummaryResponse, error) {
	books, events, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &SummaryResponse{
		Velocity: analytics.Velocity(events),
		Lifetime: analytics.Lifetime(books),
		Streaks:  analytics.ReadingStreaks(events, now),
		Goal:     analytics.YearlyGoalProgress(books, settings.YearlyGoal, now),
	}, nil
}

// snapshot loads the current book set and the user's full ledger.
func (s *AnalyticsService) snapshot(ctx context.Context, userID string) ([]*domain.Book, []*domain.Event, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list books: %w", err)
	}

	events, err := s.store.EventsForUser(ctx, userID, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("list events: %w", err)
	}

	return books, events, nil
}
