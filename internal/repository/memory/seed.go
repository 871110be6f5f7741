package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
)

var seedCreatedAt = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Seed loads the demo directory: three doctors ("1".."3") and one patient ("4").
// Seeded users carry no password hash and sign in with the configured demo password.
func Seed(ctx context.Context, s *Store, slotMinutes int) error {
	users := NewUserRepository(s)

	doctors := []struct {
		user   model.User
		doctor model.Doctor
	}{
		{
			user: model.User{ID: "1", Email: "sarah.johnson@example.com", FirstName: "Sarah", LastName: "Johnson", Role: model.RoleDoctor},
			doctor: model.Doctor{
				Specialization:    "Cardiologist",
				YearsOfExperience: 15,
				ConsultationFee:   150,
				Bio:               "Board-certified cardiologist focused on preventive heart care.",
				IsAvailable:       true,
				Schedule:          model.DefaultSchedule(slotMinutes),
			},
		},
		{
			user: model.User{ID: "2", Email: "michael.chen@example.com", FirstName: "Michael", LastName: "Chen", Role: model.RoleDoctor},
			doctor: model.Doctor{
				Specialization:    "Dermatologist",
				YearsOfExperience: 10,
				ConsultationFee:   120,
				Bio:               "Treats skin conditions for adults and teenagers.",
				IsAvailable:       true,
				Schedule: []model.ScheduleEntry{
					{DayOfWeek: int(time.Monday), StartTime: "10:00", EndTime: "16:00", SlotDuration: 30},
					{DayOfWeek: int(time.Wednesday), StartTime: "10:00", EndTime: "16:00", SlotDuration: 30},
					{DayOfWeek: int(time.Friday), StartTime: "10:00", EndTime: "14:00", SlotDuration: 30},
				},
			},
		},
		{
			user: model.User{ID: "3", Email: "emily.davis@example.com", FirstName: "Emily", LastName: "Davis", Role: model.RoleDoctor},
			doctor: model.Doctor{
				Specialization:    "Pediatrician",
				YearsOfExperience: 8,
				ConsultationFee:   100,
				Bio:               "Care for children from newborns to adolescents.",
				IsAvailable:       true,
				Schedule: []model.ScheduleEntry{
					{DayOfWeek: int(time.Tuesday), StartTime: "08:00", EndTime: "12:00", SlotDuration: 20},
					{DayOfWeek: int(time.Thursday), StartTime: "13:00", EndTime: "18:00", SlotDuration: 20},
					{DayOfWeek: int(time.Saturday), StartTime: "09:00", EndTime: "12:00", SlotDuration: 20},
				},
			},
		},
	}

	for _, d := range doctors {
		u, doc := d.user, d.doctor
		u.CreatedAt = seedCreatedAt
		doc.ID = u.ID
		doc.Name = "Dr. " + u.FullName()
		if err := users.Create(ctx, &u, &doc); err != nil {
			return fmt.Errorf("seed doctor %s: %w", u.ID, err)
		}
	}

	patient := model.User{
		ID:        "4",
		Email:     "john.doe@example.com",
		FirstName: "John",
		LastName:  "Doe",
		Role:      model.RolePatient,
		CreatedAt: seedCreatedAt,
	}
	if err := users.Create(ctx, &patient, nil); err != nil {
		return fmt.Errorf("seed patient: %w", err)
	}
	return nil
}
