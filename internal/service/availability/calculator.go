package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

// Calculator derives a doctor's bookable slots for a date from the weekly
// schedule and the appointments already holding slots on that date.
type Calculator struct {
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
}

func NewCalculator(doctors repository.DoctorRepository, appointments repository.AppointmentRepository) *Calculator {
	return &Calculator{
		doctors:      doctors,
		appointments: appointments,
	}
}

// Grid returns every candidate slot for the date, ascending by time, each
// flagged with whether it is still free.
func (c *Calculator) Grid(ctx context.Context, doctorID, date string) ([]model.Slot, error) {
	doctor, err := c.doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return c.gridFor(ctx, doctor, date)
}

// Available returns only the free slots of Grid.
func (c *Calculator) Available(ctx context.Context, doctorID, date string) ([]model.Slot, error) {
	grid, err := c.Grid(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return FreeOnly(grid), nil
}

// Availability builds the response for the availability endpoint.
func (c *Calculator) Availability(ctx context.Context, doctorID, date string, includeBooked bool) (*model.Availability, error) {
	doctor, err := c.doctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	grid, err := c.gridFor(ctx, doctor, date)
	if err != nil {
		return nil, err
	}
	if !includeBooked {
		grid = FreeOnly(grid)
	}
	return &model.Availability{
		Date:           date,
		AvailableSlots: grid,
		DoctorSchedule: doctor.Schedule,
	}, nil
}

// Check reports whether clock is a slot on doctor's grid for date and
// whether that slot is free.
func (c *Calculator) Check(ctx context.Context, doctor *model.Doctor, date, clock string) (onGrid, free bool, err error) {
	grid, err := c.gridFor(ctx, doctor, date)
	if err != nil {
		return false, false, err
	}
	for _, s := range grid {
		if s.Time == clock {
			return true, s.Available, nil
		}
	}
	return false, false, nil
}

func (c *Calculator) doctor(ctx context.Context, doctorID string) (*model.Doctor, error) {
	doctor, err := c.doctors.Get(ctx, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return doctor, nil
}

func (c *Calculator) gridFor(ctx context.Context, doctor *model.Doctor, date string) ([]model.Slot, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, apperrors.Validation(err.Error(), err)
	}

	slots := GenerateSlots(doctor.Schedule, day.Weekday())
	if len(slots) == 0 {
		return slots, nil
	}

	booked, err := c.appointments.List(ctx, &model.AppointmentFilters{
		DoctorID: doctor.ID,
		Date:     date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return MarkBooked(slots, booked), nil
}

// GenerateSlots splits every schedule entry for weekday into back-to-back
// slots of the entry's duration. A slot is emitted only if it ends at or
// before the entry's end time. Times produced by overlapping entries appear once.
func GenerateSlots(schedule []model.ScheduleEntry, weekday time.Weekday) []model.Slot {
	seen := make(map[string]bool)
	slots := make([]model.Slot, 0)

	for _, entry := range schedule {
		if time.Weekday(entry.DayOfWeek) != weekday || entry.SlotDuration <= 0 {
			continue
		}
		start, err := model.ParseClock(entry.StartTime)
		if err != nil {
			continue
		}
		end, err := model.ParseClock(entry.EndTime)
		if err != nil {
			continue
		}

		step := time.Duration(entry.SlotDuration) * time.Minute
		for t := start; t+step <= end; t += step {
			clock := model.FormatClock(t)
			if seen[clock] {
				continue
			}
			seen[clock] = true
			slots = append(slots, model.Slot{
				Time:      clock,
				EndTime:   model.FormatClock(t + step),
				Available: true,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
	return slots
}

// MarkBooked clears Available on every slot held by an active appointment.
func MarkBooked(slots []model.Slot, appointments []*model.Appointment) []model.Slot {
	held := make(map[string]bool, len(appointments))
	for _, a := range appointments {
		if a.Status.Active() {
			held[a.AppointmentTime] = true
		}
	}
	for i := range slots {
		if held[slots[i].Time] {
			slots[i].Available = false
		}
	}
	return slots
}

func FreeOnly(slots []model.Slot) []model.Slot {
	out := make([]model.Slot, 0, len(slots))
	for _, s := range slots {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}
