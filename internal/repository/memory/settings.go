package memory

import (
	"context"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

func (r *settingsRepository) Get(ctx context.Context, userID string) (*model.Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.settings[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *st
	return &c, nil
}

func (r *settingsRepository) Save(ctx context.Context, settings *model.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c := *settings
	r.s.mu.Lock()
	r.s.settings[settings.UserID] = &c
	r.s.mu.Unlock()
	return nil
}
