package memory

import (
	"sync"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

// Store is the process-local backing for every repository. Records are copied
// on the way in and out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	users        map[string]*model.User
	usersByEmail map[string]string
	doctors      map[string]*model.Doctor
	doctorOrder  []string

	appointments map[string]*model.Appointment
	apptOrder    []string
	slots        map[model.SlotKey]string

	messages []*model.Message
	settings map[string]*model.Settings
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]*model.User),
		usersByEmail: make(map[string]string),
		doctors:      make(map[string]*model.Doctor),
		appointments: make(map[string]*model.Appointment),
		slots:        make(map[model.SlotKey]string),
		settings:     make(map[string]*model.Settings),
	}
}

type userRepository struct {
	s *Store
}

type doctorRepository struct {
	s *Store
}

type appointmentRepository struct {
	s *Store
}

type messageRepository struct {
	s *Store
}

type settingsRepository struct {
	s *Store
}

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s: s}
}

func NewDoctorRepository(s *Store) repository.DoctorRepository {
	return &doctorRepository{s: s}
}

func NewAppointmentRepository(s *Store) repository.AppointmentRepository {
	return &appointmentRepository{s: s}
}

func NewMessageRepository(s *Store) repository.MessageRepository {
	return &messageRepository{s: s}
}

func NewSettingsRepository(s *Store) repository.SettingsRepository {
	return &settingsRepository{s: s}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

func cloneDoctor(d *model.Doctor) *model.Doctor {
	c := *d
	c.Schedule = append([]model.ScheduleEntry(nil), d.Schedule...)
	return &c
}

func cloneAppointment(a *model.Appointment) *model.Appointment {
	c := *a
	return &c
}

func cloneMessage(m *model.Message) *model.Message {
	c := *m
	return &c
}
