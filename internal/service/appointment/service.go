package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/availability"
	"github.com/jwalitptl/booking-api/internal/service/event"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/metrics"
	"github.com/jwalitptl/booking-api/pkg/validator"
)

// Emitter publishes domain events without blocking the caller.
type Emitter interface {
	Emit(ctx context.Context, channel, eventType string, payload interface{})
}

type Options struct {
	// RejectPastSlots refuses bookings whose slot start is before now (UTC).
	RejectPastSlots bool
}

type Service struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	calculator   *availability.Calculator
	events       Emitter
	metrics      *metrics.Metrics
	opts         Options
	locks        *keyedMutex
	now          func() time.Time
}

func NewService(
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	calculator *availability.Calculator,
	events Emitter,
	m *metrics.Metrics,
	opts Options,
) *Service {
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		calculator:   calculator,
		events:       events,
		metrics:      m,
		opts:         opts,
		locks:        newKeyedMutex(),
		now:          time.Now,
	}
}

// Book creates a scheduled appointment for patient. The availability check
// and the insert run under the slot's lock, so of any number of concurrent
// requests for one (doctor, date, time) exactly one succeeds.
func (s *Service) Book(ctx context.Context, patient *model.User, req *model.CreateAppointmentRequest) (apt *model.Appointment, err error) {
	defer func() { s.recordBooking(err) }()

	if err := validateBooking(patient, req); err != nil {
		return nil, err
	}

	doctor, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	if !doctor.IsAvailable {
		return nil, apperrors.Conflict("doctor is not accepting appointments", nil)
	}

	if s.opts.RejectPastSlots {
		if err := s.rejectPast(req.AppointmentDate, req.AppointmentTime); err != nil {
			return nil, err
		}
	}

	key := model.SlotKey{DoctorID: doctor.ID, Date: req.AppointmentDate, Time: req.AppointmentTime}
	waitStart := time.Now()
	unlock, err := s.locks.Lock(ctx, key.String())
	if err != nil {
		return nil, fmt.Errorf("failed to lock slot %s: %w", key, err)
	}
	defer unlock()
	if s.metrics != nil {
		s.metrics.SlotLockWait.Observe(time.Since(waitStart).Seconds())
	}

	onGrid, free, err := s.calculator.Check(ctx, doctor, req.AppointmentDate, req.AppointmentTime)
	if err != nil {
		return nil, err
	}
	if !onGrid {
		return nil, apperrors.Validation("appointmentTime is not a slot on the doctor's schedule", nil)
	}
	if !free {
		return nil, apperrors.Conflict("time slot is already booked", nil)
	}

	now := s.now().UTC()
	apt = &model.Appointment{
		ID:              uuid.New().String(),
		DoctorID:        doctor.ID,
		PatientID:       patient.ID,
		AppointmentDate: req.AppointmentDate,
		AppointmentTime: req.AppointmentTime,
		ReasonForVisit:  strings.TrimSpace(req.ReasonForVisit),
		Status:          model.AppointmentStatusScheduled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.appointments.Create(ctx, apt); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperrors.Conflict("time slot is already booked", err)
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ActiveAppointments.Inc()
	}
	log.Info().
		Str("appointment_id", apt.ID).
		Str("doctor_id", apt.DoctorID).
		Str("patient_id", apt.PatientID).
		Str("slot", key.Date+" "+key.Time).
		Msg("Appointment booked")
	s.emit(ctx, event.TypeAppointmentBooked, apt, patient.ID)

	return apt, nil
}

func validateBooking(patient *model.User, req *model.CreateAppointmentRequest) error {
	switch {
	case patient == nil:
		return apperrors.Unauthorized("", nil)
	case req == nil || req.DoctorID == "":
		return apperrors.Validation("doctorId is required", nil)
	case req.AppointmentDate == "":
		return apperrors.Validation("appointmentDate is required", nil)
	case req.AppointmentTime == "":
		return apperrors.Validation("appointmentTime is required", nil)
	case !validator.IsDate(req.AppointmentDate):
		return apperrors.Validation("appointmentDate must be a date in YYYY-MM-DD format", nil)
	case !validator.IsClock(req.AppointmentTime):
		return apperrors.Validation("appointmentTime must be a time in HH:MM format", nil)
	case req.DoctorID == patient.ID:
		return apperrors.Validation("cannot book an appointment with yourself", nil)
	}
	return nil
}

func (s *Service) rejectPast(date, clock string) error {
	day, err := model.ParseDate(date)
	if err != nil {
		return apperrors.Validation(err.Error(), err)
	}
	offset, err := model.ParseClock(clock)
	if err != nil {
		return apperrors.Validation(err.Error(), err)
	}
	if day.Add(offset).Before(s.now().UTC()) {
		return apperrors.Validation("appointment cannot be scheduled in the past", nil)
	}
	return nil
}

// List returns appointments where caller is the patient or the doctor.
func (s *Service) List(ctx context.Context, caller *model.User, status model.AppointmentStatus) ([]*model.Appointment, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", status), nil)
	}
	appointments, err := s.appointments.List(ctx, &model.AppointmentFilters{
		UserID: caller.ID,
		Status: status,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Get returns the appointment if caller takes part in it. Other callers get
// not-found so ids cannot be guessed.
func (s *Service) Get(ctx context.Context, caller *model.User, id string) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if apt.PatientID != caller.ID && apt.DoctorID != caller.ID {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return apt, nil
}

// Cancel releases the appointment's slot. Either participant may cancel.
func (s *Service) Cancel(ctx context.Context, caller *model.User, id, reason string) (*model.Appointment, error) {
	unlock, err := s.locks.Lock(ctx, "appointment:"+id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock appointment %s: %w", id, err)
	}
	defer unlock()

	apt, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	switch apt.Status {
	case model.AppointmentStatusCancelled:
		return nil, apperrors.Conflict("appointment is already cancelled", nil)
	case model.AppointmentStatusCompleted:
		return nil, apperrors.Conflict("cannot cancel a completed appointment", nil)
	}

	apt.Status = model.AppointmentStatusCancelled
	apt.CancelReason = strings.TrimSpace(reason)
	apt.UpdatedAt = s.now().UTC()
	if err := s.appointments.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ActiveAppointments.Dec()
		s.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeCancelled).Inc()
	}
	log.Info().
		Str("appointment_id", apt.ID).
		Str("cancelled_by", caller.ID).
		Msg("Appointment cancelled")
	s.emit(ctx, event.TypeAppointmentCancelled, apt, caller.ID)

	return apt, nil
}

// UpdateStatus lets the appointment's doctor confirm or complete it.
// Cancellation goes through Cancel.
func (s *Service) UpdateStatus(ctx context.Context, caller *model.User, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	if status == model.AppointmentStatusCancelled {
		return s.Cancel(ctx, caller, id, "")
	}
	if !status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", status), nil)
	}

	unlock, err := s.locks.Lock(ctx, "appointment:"+id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock appointment %s: %w", id, err)
	}
	defer unlock()

	apt, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if apt.DoctorID != caller.ID {
		return nil, apperrors.Forbidden("only the appointment's doctor can change its status")
	}
	if !canTransition(apt.Status, status) {
		return nil, apperrors.Conflict(fmt.Sprintf("cannot change status from %s to %s", apt.Status, status), nil)
	}

	wasActive := apt.Status.Active()
	apt.Status = status
	apt.UpdatedAt = s.now().UTC()
	if err := s.appointments.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	if s.metrics != nil && wasActive && !status.Active() {
		s.metrics.ActiveAppointments.Dec()
	}
	s.emit(ctx, event.TypeAppointmentStatusChanged, apt, caller.ID)

	return apt, nil
}

func canTransition(from, to model.AppointmentStatus) bool {
	switch to {
	case model.AppointmentStatusConfirmed:
		return from == model.AppointmentStatusScheduled
	case model.AppointmentStatusCompleted:
		return from == model.AppointmentStatusScheduled || from == model.AppointmentStatusConfirmed
	}
	return false
}

func (s *Service) emit(ctx context.Context, eventType string, apt *model.Appointment, actorID string) {
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, event.AppointmentsChannel, eventType, event.NewAppointmentEvent(apt, actorID))
}

func (s *Service) recordBooking(err error) {
	if s.metrics == nil {
		return
	}
	outcome := metrics.OutcomeBooked
	if err != nil {
		outcome = metrics.OutcomeError
		if appErr, ok := apperrors.As(err); ok {
			switch appErr.Kind {
			case apperrors.KindConflict:
				outcome = metrics.OutcomeConflict
			case apperrors.KindNotFound:
				outcome = metrics.OutcomeNotFound
			case apperrors.KindValidation, apperrors.KindUnauthorized:
				outcome = metrics.OutcomeInvalid
			}
		}
	}
	s.metrics.BookingsTotal.WithLabelValues(outcome).Inc()
}
