package appointment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	"github.com/jwalitptl/booking-api/internal/service/event"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

type recordedEvent struct {
	channel   string
	eventType string
	payload   event.AppointmentEvent
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Emit(_ context.Context, channel, eventType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{channel, eventType, payload.(event.AppointmentEvent)})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.eventType)
	}
	return out
}

type fixture struct {
	svc     *Service
	doctors repository.DoctorRepository
	events  *recorder
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, memory.Seed(context.Background(), store, 30))

	doctors := memory.NewDoctorRepository(store)
	appts := memory.NewAppointmentRepository(store)
	rec := &recorder{}
	m := metrics.New("test")
	svc := NewService(appts, doctors, availability.NewCalculator(doctors, appts), rec, m, opts)
	return &fixture{svc: svc, doctors: doctors, events: rec, metrics: m}
}

var (
	patient = &model.User{ID: "4", Role: model.RolePatient}
	doctor1 = &model.User{ID: "1", Role: model.RoleDoctor}
	doctor2 = &model.User{ID: "2", Role: model.RoleDoctor}
)

func request(clock string) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		DoctorID:        "1",
		AppointmentDate: "2024-01-16",
		AppointmentTime: clock,
		ReasonForVisit:  "  checkup ",
	}
}

func TestBookThenConflict(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, patient, request("09:00"))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, "checkup", apt.ReasonForVisit)
	assert.NotEmpty(t, apt.ID)
	assert.False(t, apt.CreatedAt.IsZero())

	_, err = f.svc.Book(ctx, patient, request("09:00"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	assert.Equal(t, []string{event.TypeAppointmentBooked}, f.events.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeBooked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveAppointments))
}

func TestBookValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name   string
		caller *model.User
		req    *model.CreateAppointmentRequest
		want   error
	}{
		{"missing doctor", patient, &model.CreateAppointmentRequest{AppointmentDate: "2024-01-16", AppointmentTime: "09:00"}, apperrors.ErrValidation},
		{"missing date", patient, &model.CreateAppointmentRequest{DoctorID: "1", AppointmentTime: "09:00"}, apperrors.ErrValidation},
		{"missing time", patient, &model.CreateAppointmentRequest{DoctorID: "1", AppointmentDate: "2024-01-16"}, apperrors.ErrValidation},
		{"bad date", patient, &model.CreateAppointmentRequest{DoctorID: "1", AppointmentDate: "2024-13-01", AppointmentTime: "09:00"}, apperrors.ErrValidation},
		{"bad time", patient, &model.CreateAppointmentRequest{DoctorID: "1", AppointmentDate: "2024-01-16", AppointmentTime: "9:00"}, apperrors.ErrValidation},
		{"off grid", patient, request("09:10"), apperrors.ErrValidation},
		{"weekend", patient, &model.CreateAppointmentRequest{DoctorID: "1", AppointmentDate: "2024-01-14", AppointmentTime: "09:00"}, apperrors.ErrValidation},
		{"self booking", doctor1, request("09:00"), apperrors.ErrValidation},
		{"unknown doctor", patient, &model.CreateAppointmentRequest{DoctorID: "99", AppointmentDate: "2024-01-16", AppointmentTime: "09:00"}, apperrors.ErrNotFound},
		{"no caller", nil, request("09:00"), apperrors.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(ctx, tt.caller, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, f.events.types())
}

func TestBookUnavailableDoctor(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	_, err := f.doctors.Update(ctx, "1", func(d *model.Doctor) { d.IsAvailable = false })
	require.NoError(t, err)

	_, err = f.svc.Book(ctx, patient, request("09:00"))
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestBookRejectPastSlots(t *testing.T) {
	f := newFixture(t, Options{RejectPastSlots: true})
	f.svc.now = func() time.Time { return time.Date(2024, 1, 16, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	_, err := f.svc.Book(ctx, patient, request("09:00"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Book(ctx, patient, request("13:00"))
	assert.NoError(t, err)
}

func TestBookConcurrentSameSlot(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Book(ctx, patient, request("10:00"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, apperrors.ErrConflict):
				conflicts++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
	assert.Zero(t, f.svc.locks.size(), "slot locks must be released")
}

func TestListAndGet(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	late, err := f.svc.Book(ctx, patient, request("11:00"))
	require.NoError(t, err)
	early, err := f.svc.Book(ctx, patient, request("09:30"))
	require.NoError(t, err)

	mine, err := f.svc.List(ctx, patient, "")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, early.ID, mine[0].ID)
	assert.Equal(t, late.ID, mine[1].ID)

	asDoctor, err := f.svc.List(ctx, doctor1, model.AppointmentStatusScheduled)
	require.NoError(t, err)
	assert.Len(t, asDoctor, 2)

	_, err = f.svc.List(ctx, patient, "bogus")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	got, err := f.svc.Get(ctx, doctor1, early.ID)
	require.NoError(t, err)
	assert.Equal(t, early.ID, got.ID)

	_, err = f.svc.Get(ctx, doctor2, early.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.svc.Get(ctx, patient, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, patient, request("09:00"))
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, patient, apt.ID, " conflict at work ")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	assert.Equal(t, "conflict at work", cancelled.CancelReason)

	_, err = f.svc.Cancel(ctx, patient, apt.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.svc.Cancel(ctx, doctor2, apt.ID, "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	again, err := f.svc.Book(ctx, patient, request("09:00"))
	require.NoError(t, err)
	assert.NotEqual(t, apt.ID, again.ID)

	assert.Equal(t, []string{
		event.TypeAppointmentBooked,
		event.TypeAppointmentCancelled,
		event.TypeAppointmentBooked,
	}, f.events.types())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ActiveAppointments))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	apt, err := f.svc.Book(ctx, patient, request("09:00"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, patient, apt.ID, model.AppointmentStatusConfirmed)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	confirmed, err := f.svc.UpdateStatus(ctx, doctor1, apt.ID, model.AppointmentStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, confirmed.Status)

	_, err = f.svc.UpdateStatus(ctx, doctor1, apt.ID, model.AppointmentStatusConfirmed)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.svc.UpdateStatus(ctx, doctor1, apt.ID, model.AppointmentStatusScheduled)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	completed, err := f.svc.UpdateStatus(ctx, doctor1, apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, completed.Status)

	_, err = f.svc.UpdateStatus(ctx, doctor1, apt.ID, model.AppointmentStatusCancelled)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = f.svc.UpdateStatus(ctx, doctor1, apt.ID, "unknown")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Zero(t, testutil.ToFloat64(f.metrics.ActiveAppointments))
}

func TestBookGivesUpWhenSlotLockWaitExceedsDeadline(t *testing.T) {
	f := newFixture(t, Options{})
	key := model.SlotKey{DoctorID: "1", Date: "2024-01-16", Time: "11:00"}

	unlock, err := f.svc.locks.Lock(context.Background(), key.String())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.svc.Book(ctx, patient, request("11:00"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, f.events.types())
}
