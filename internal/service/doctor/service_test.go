package doctor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

func newService(t *testing.T) *Service {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, memory.Seed(context.Background(), store, 30))
	return NewService(memory.NewDoctorRepository(store))
}

func TestList(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	docs, total, applied, err := svc.List(ctx, model.DoctorFilters{Specialization: "CARDIO"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, docs, 1)
	assert.Equal(t, "Cardiologist", docs[0].Specialization)
	assert.Equal(t, 1, applied.Page)
	assert.Equal(t, DefaultPageSize, applied.Limit)

	_, _, applied, err = svc.List(ctx, model.DoctorFilters{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, applied.Limit)
}

func TestGet(t *testing.T) {
	svc := newService(t)

	d, err := svc.Get(context.Background(), "2")
	require.NoError(t, err)
	assert.NotEmpty(t, d.Schedule)

	_, err = svc.Get(context.Background(), "404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateSchedule(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	doc := &model.User{ID: "1", Role: model.RoleDoctor}

	updated, err := svc.UpdateSchedule(ctx, doc, []model.ScheduleEntry{
		{DayOfWeek: 6, StartTime: "10:00", EndTime: "12:00", SlotDuration: 60},
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00", SlotDuration: 15},
	})
	require.NoError(t, err)
	require.Len(t, updated.Schedule, 2)
	assert.Equal(t, 1, updated.Schedule[0].DayOfWeek)

	stored, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, updated.Schedule, stored.Schedule)

	_, err = svc.UpdateSchedule(ctx, doc, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.UpdateSchedule(ctx, doc, []model.ScheduleEntry{{DayOfWeek: 7, StartTime: "10:00", EndTime: "12:00", SlotDuration: 60}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.UpdateSchedule(ctx, doc, []model.ScheduleEntry{{DayOfWeek: 1, StartTime: "10:00", EndTime: "10:20", SlotDuration: 30}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	patient := &model.User{ID: "4", Role: model.RolePatient}
	_, err = svc.UpdateSchedule(ctx, patient, model.DefaultSchedule(30))
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestSetAvailability(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	d, err := svc.SetAvailability(ctx, &model.User{ID: "3", Role: model.RoleDoctor}, false)
	require.NoError(t, err)
	assert.False(t, d.IsAvailable)

	stored, err := svc.Get(ctx, "3")
	require.NoError(t, err)
	assert.False(t, stored.IsAvailable)

	_, err = svc.SetAvailability(ctx, &model.User{ID: "4", Role: model.RolePatient}, true)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestConcurrentProfileUpdatesKeepBothChanges(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	doc := &model.User{ID: "2", Role: model.RoleDoctor}
	schedule := []model.ScheduleEntry{{DayOfWeek: 2, StartTime: "09:00", EndTime: "11:00", SlotDuration: 30}}

	for i := 0; i < 50; i++ {
		_, err := svc.SetAvailability(ctx, doc, true)
		require.NoError(t, err)
		_, err = svc.UpdateSchedule(ctx, doc, model.DefaultSchedule(30))
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.SetAvailability(ctx, doc, false)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.UpdateSchedule(ctx, doc, schedule)
			assert.NoError(t, err)
		}()
		wg.Wait()

		stored, err := svc.Get(ctx, "2")
		require.NoError(t, err)
		require.False(t, stored.IsAvailable, "iteration %d lost the availability change", i)
		require.Equal(t, schedule, stored.Schedule, "iteration %d lost the schedule change", i)
	}
}

func TestUpdateUnknownDoctor(t *testing.T) {
	svc := newService(t)

	_, err := svc.SetAvailability(context.Background(), &model.User{ID: "ghost", Role: model.RoleDoctor}, false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
