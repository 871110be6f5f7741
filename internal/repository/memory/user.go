package memory

import (
	"context"
	"fmt"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

func (r *userRepository) Create(ctx context.Context, user *model.User, doctor *model.Doctor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doctor != nil && doctor.ID != user.ID {
		return fmt.Errorf("doctor id %q does not match user id %q", doctor.ID, user.ID)
	}

	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	email := model.NormalizeEmail(user.Email)
	if _, ok := s.usersByEmail[email]; ok {
		return repository.ErrDuplicateEmail
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("user id %q already exists", user.ID)
	}

	s.users[user.ID] = cloneUser(user)
	s.usersByEmail[email] = user.ID
	if doctor != nil {
		s.doctors[doctor.ID] = cloneDoctor(doctor)
		s.doctorOrder = append(s.doctorOrder, doctor.ID)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usersByEmail[model.NormalizeEmail(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(r.s.users[id]), nil
}
