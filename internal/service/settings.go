package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/config"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
	"github.com/shelfmark/shelfmark-server/internal/validation"
)

// SettingsService manages per-user preferences.
type SettingsService struct {
	store     *store.Store
	validator *validation.Validator
	logger    *slog.Logger
	defaults  config.GoalsConfig
}

// NewSettingsService creates a new settings service.
func NewSettingsService(store *store.Store, validator *validation.Validator, logger *slog.Logger, defaults config.GoalsConfig) *SettingsService {
	return &SettingsService{
		store:     store,
		validator: validator,
		logger:    logger,
		defaults:  defaults,
	}
}

// GetSettings returns a user's settings, falling back to the configured
// default yearly goal when the user never saved any.
func (s *SettingsService) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if settings.UpdatedAt.IsZero() && settings.YearlyGoal == 0 {
		settings.YearlyGoal = s.defaults.DefaultYearlyGoal
	}

	return settings, nil
}

// UpdateSettingsRequest carries new preference values.
type UpdateSettingsRequest struct {
	YearlyGoal int `json:"yearly_goal" validate:"gte=0,lte=1000"`
}

// UpdateSettings persists new preferences for a user.
func (s *SettingsService) UpdateSettings(ctx context.Context, userID string, req UpdateSettingsRequest) (*domain.Settings, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	settings := &domain.Settings{
		UserID:     userID,
		YearlyGoal: req.YearlyGoal,
		UpdatedAt:  time.Now(),
	}

	if err := s.store.PutSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("put settings: %w", err)
	}

	s.logger.Info("settings updated", "user_id", userID, "yearly_goal", req.YearlyGoal)
	return settings, nil
}
