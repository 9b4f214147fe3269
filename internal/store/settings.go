package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// GetSettings retrieves a user's settings. Returns zero-value defaults when
// none have been saved yet - absence is not an error.
func (s *Store) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var settings domain.Settings
	err := s.get([]byte(settingsPrefix+userID), &settings)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return &domain.Settings{UserID: userID}, nil
		}
		return nil, fmt.Errorf("getting settings for %s: %w", userID, err)
	}

	return &settings, nil
}

// PutSettings upserts a user's settings record.
func (s *Store) PutSettings(ctx context.Context, settings *domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.set([]byte(settingsPrefix+settings.UserID), settings)
}
