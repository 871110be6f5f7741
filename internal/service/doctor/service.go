package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Service struct {
	doctors repository.DoctorRepository
}

func NewService(doctors repository.DoctorRepository) *Service {
	return &Service{doctors: doctors}
}

// List normalises paging and returns the requested page plus the total match count.
func (s *Service) List(ctx context.Context, filters model.DoctorFilters) ([]*model.Doctor, int, model.DoctorFilters, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 {
		filters.Limit = DefaultPageSize
	}
	if filters.Limit > MaxPageSize {
		filters.Limit = MaxPageSize
	}

	doctors, total, err := s.doctors.List(ctx, &filters)
	if err != nil {
		return nil, 0, filters, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, total, filters, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Doctor, error) {
	d, err := s.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return d, nil
}

// UpdateSchedule replaces caller's weekly schedule. Existing appointments are kept.
func (s *Service) UpdateSchedule(ctx context.Context, caller *model.User, schedule []model.ScheduleEntry) (*model.Doctor, error) {
	if len(schedule) == 0 {
		return nil, apperrors.Validation("schedule must contain at least one entry", nil)
	}
	for i, entry := range schedule {
		if err := entry.Validate(); err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("schedule[%d]: %v", i, err), err)
		}
	}

	entries := append([]model.ScheduleEntry(nil), schedule...)
	model.SortSchedule(entries)

	d, err := s.update(ctx, caller, func(d *model.Doctor) {
		d.Schedule = entries
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("doctor_id", d.ID).Int("entries", len(d.Schedule)).Msg("Doctor schedule updated")
	return d, nil
}

// SetAvailability toggles whether caller accepts new bookings.
func (s *Service) SetAvailability(ctx context.Context, caller *model.User, available bool) (*model.Doctor, error) {
	d, err := s.update(ctx, caller, func(d *model.Doctor) {
		d.IsAvailable = available
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("doctor_id", d.ID).Bool("available", available).Msg("Doctor availability updated")
	return d, nil
}

// update changes caller's own doctor record in a single repository write.
func (s *Service) update(ctx context.Context, caller *model.User, fn func(d *model.Doctor)) (*model.Doctor, error) {
	if caller == nil || caller.Role != model.RoleDoctor {
		return nil, apperrors.Forbidden("only doctors can manage a doctor profile")
	}
	d, err := s.doctors.Update(ctx, caller.ID, fn)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to update doctor: %w", err)
	}
	return d, nil
}
