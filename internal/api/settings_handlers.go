package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerSettingsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSettings",
		Method:      http.MethodGet,
		Path:        "/api/v1/settings",
		Summary:     "Get settings",
		Description: "Returns the user's preferences",
		Tags:        []string{"Settings"},
	}, s.handleGetSettings)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSettings",
		Method:      http.MethodPut,
		Path:        "/api/v1/settings",
		Summary:     "Update settings",
		Description: "Replaces the user's preferences",
		Tags:        []string{"Settings"},
	}, s.handleUpdateSettings)
}

// SettingsOutput wraps settings for Huma.
type SettingsOutput struct {
	Body *domain.Settings
}

func (s *Server) handleGetSettings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := s.services.Settings.GetSettings(ctx, defaultUserID)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settings}, nil
}

// UpdateSettingsInput carries the new preferences.
type UpdateSettingsInput struct {
	Body service.UpdateSettingsRequest
}

func (s *Server) handleUpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*SettingsOutput, error) {
	settings, err := s.services.Settings.UpdateSettings(ctx, defaultUserID, input.Body)
	if err != nil {
		return nil, err
	}
	return &SettingsOutput{Body: settings}, nil
}
