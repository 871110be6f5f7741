package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

var themes = map[string]bool{"light": true, "dark": true, "system": true}

type Service struct {
	settings repository.SettingsRepository
	now      func() time.Time
}

func NewService(settings repository.SettingsRepository) *Service {
	return &Service{
		settings: settings,
		now:      time.Now,
	}
}

// Get returns the stored settings, or the defaults when none were saved.
func (s *Service) Get(ctx context.Context, userID string) (*model.Settings, error) {
	st, err := s.settings.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.DefaultSettings(userID), nil
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return st, nil
}

// Update applies the non-nil fields of patch.
func (s *Service) Update(ctx context.Context, userID string, patch *model.UpdateSettingsRequest) (*model.Settings, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.EmailNotifications != nil {
		st.EmailNotifications = *patch.EmailNotifications
	}
	if patch.SMSNotifications != nil {
		st.SMSNotifications = *patch.SMSNotifications
	}
	if patch.Language != nil {
		lang := strings.ToLower(strings.TrimSpace(*patch.Language))
		if len(lang) != 2 || !isLetters(lang) {
			return nil, apperrors.Validation("language must be a two-letter code", nil)
		}
		st.Language = lang
	}
	if patch.Timezone != nil {
		tz := strings.TrimSpace(*patch.Timezone)
		if _, err := time.LoadLocation(tz); err != nil || tz == "" {
			return nil, apperrors.Validation(fmt.Sprintf("unknown timezone %q", tz), err)
		}
		st.Timezone = tz
	}
	if patch.Theme != nil {
		if !themes[*patch.Theme] {
			return nil, apperrors.Validation("theme must be one of: light dark system", nil)
		}
		st.Theme = *patch.Theme
	}

	st.UpdatedAt = s.now().UTC()
	if err := s.settings.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return st, nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
