package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[appointment.ID]; ok {
		return fmt.Errorf("appointment id %q already exists", appointment.ID)
	}
	key := appointment.Slot()
	if appointment.Status.Active() {
		if _, taken := s.slots[key]; taken {
			return repository.ErrSlotTaken
		}
		s.slots[key] = appointment.ID
	}
	s.appointments[appointment.ID] = cloneAppointment(appointment)
	s.apptOrder = append(s.apptOrder, appointment.ID)
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneAppointment(a), nil
}

// Update replaces the stored record and keeps the slot index in step with the
// active flag and slot key of the new version.
func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.appointments[appointment.ID]
	if !ok {
		return repository.ErrNotFound
	}

	oldKey, newKey := prev.Slot(), appointment.Slot()
	if appointment.Status.Active() {
		if holder, taken := s.slots[newKey]; taken && holder != appointment.ID {
			return repository.ErrSlotTaken
		}
	}
	if prev.Status.Active() && s.slots[oldKey] == appointment.ID {
		delete(s.slots, oldKey)
	}
	if appointment.Status.Active() {
		s.slots[newKey] = appointment.ID
	}
	s.appointments[appointment.ID] = cloneAppointment(appointment)
	return nil
}

// List returns matches ordered by date, then time, then creation.
func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}

	r.s.mu.RLock()
	out := make([]*model.Appointment, 0)
	for _, id := range r.s.apptOrder {
		a := r.s.appointments[id]
		if filters.UserID != "" && a.PatientID != filters.UserID && a.DoctorID != filters.UserID {
			continue
		}
		if filters.DoctorID != "" && a.DoctorID != filters.DoctorID {
			continue
		}
		if filters.Date != "" && a.AppointmentDate != filters.Date {
			continue
		}
		if filters.Status != "" && a.Status != filters.Status {
			continue
		}
		out = append(out, cloneAppointment(a))
	}
	r.s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AppointmentDate != out[j].AppointmentDate {
			return out[i].AppointmentDate < out[j].AppointmentDate
		}
		return out[i].AppointmentTime < out[j].AppointmentTime
	})
	return out, nil
}

func (r *appointmentRepository) CountActive(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.slots), nil
}
