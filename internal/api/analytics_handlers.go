package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerAnalyticsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getMonthlyActivity",
		Method:      http.MethodGet,
		Path:        "/api/v1/analytics/monthly",
		Summary:     "Monthly reading activity",
		Description: "Returns the trailing 12-month genre-by-month page matrix with genre colors",
		Tags:        []string{"Analytics"},
	}, s.handleMonthlyActivity)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGenreDistribution",
		Method:      http.MethodGet,
		Path:        "/api/v1/analytics/distribution",
		Summary:     "Genre distribution",
		Description: "Returns the all-time per-genre page split",
		Tags:        []string{"Analytics"},
	}, s.handleGenreDistribution)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSummary",
		Method:      http.MethodGet,
		Path:        "/api/v1/analytics/summary",
		Summary:     "Reading summary",
		Description: "Returns velocity, lifetime totals, streaks, and yearly goal progress",
		Tags:        []string{"Analytics"},
	}, s.handleSummary)
}

// MonthlyActivityOutput wraps the activity matrix for Huma.
type MonthlyActivityOutput struct {
	Body *service.MonthlyActivityResponse
}

func (s *Server) handleMonthlyActivity(ctx context.Context, _ *struct{}) (*MonthlyActivityOutput, error) {
	resp, err := s.services.Analytics.MonthlyActivity(ctx, defaultUserID)
	if err != nil {
		return nil, err
	}
	return &MonthlyActivityOutput{Body: resp}, nil
}

// GenreDistributionOutput wraps the distribution for Huma.
type GenreDistributionOutput struct {
	Body *service.GenreDistributionResponse
}

func (s *Server) handleGenreDistribution(ctx context.Context, _ *struct{}) (*GenreDistributionOutput, error) {
	resp, err := s.services.Analytics.GenreDistribution(ctx, defaultUserID)
	if err != nil {
		return nil, err
	}
	return &GenreDistributionOutput{Body: resp}, nil
}

// SummaryOutput wraps the headline metrics for Huma.
type SummaryOutput struct {
	Body *service.SummaryResponse
}

func (s *Server) handleSummary(ctx context.Context, _ *struct{}) (*SummaryOutput, error) {
	resp, err := s.services.Analytics.Summary(ctx, defaultUserID)
	if err != nil {
		return nil, err
	}
	return &SummaryOutput{Body: resp}, nil
}
