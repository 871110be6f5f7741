package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/booking-api/internal/model"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrSlotTaken      = errors.New("slot already booked")
)

// All repository interfaces in one file
type (
	// UserRepository handles users. Create stores a doctor-role user together
	// with its doctor record so the pair is never observed half-written.
	UserRepository interface {
		Create(ctx context.Context, user *model.User, doctor *model.Doctor) error
		Get(ctx context.Context, id string) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	DoctorRepository interface {
		Get(ctx context.Context, id string) (*model.Doctor, error)
		List(ctx context.Context, filters *model.DoctorFilters) ([]*model.Doctor, int, error)
		// Update applies fn to the stored doctor atomically and returns the result.
		Update(ctx context.Context, id string, fn func(d *model.Doctor)) (*model.Doctor, error)
	}

	// AppointmentRepository rejects with ErrSlotTaken any write that would leave
	// two active appointments on the same slot key.
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id string) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		CountActive(ctx context.Context) (int, error)
	}

	MessageRepository interface {
		Create(ctx context.Context, message *model.Message) error
		ListConversation(ctx context.Context, userID, otherID string) ([]*model.Message, error)
		ListForUser(ctx context.Context, userID string) ([]*model.Message, error)
		MarkRead(ctx context.Context, recipientID, senderID string) (int, error)
	}

	SettingsRepository interface {
		Get(ctx context.Context, userID string) (*model.Settings, error)
		Save(ctx context.Context, settings *model.Settings) error
	}
)
