package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/auth"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/security"
)

const (
	revocationCleanup = 10 * time.Minute
	defaultSpecialty  = "General Practice"
)

var errInvalidCredentials = apperrors.Unauthorized("invalid email or password", nil)

type Config struct {
	// DemoPassword signs in seeded users and users registered without a password.
	DemoPassword string
	// SlotMinutes sizes the default schedule given to newly registered doctors.
	SlotMinutes int
}

type Service struct {
	users    repository.UserRepository
	doctors  repository.DoctorRepository
	tokens   auth.TokenVerifier
	hasher   security.PasswordHasher
	revoked  *cache.Cache
	demoHash string
	cfg      Config
	now      func() time.Time
}

func NewService(
	users repository.UserRepository,
	doctors repository.DoctorRepository,
	tokens auth.TokenVerifier,
	hasher security.PasswordHasher,
	cfg Config,
) (*Service, error) {
	s := &Service{
		users:   users,
		doctors: doctors,
		tokens:  tokens,
		hasher:  hasher,
		revoked: cache.New(cache.NoExpiration, revocationCleanup),
		cfg:     cfg,
		now:     time.Now,
	}
	if cfg.DemoPassword != "" {
		hash, err := hasher.Hash(cfg.DemoPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash demo password: %w", err)
		}
		s.demoHash = hash
	}
	return s, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	hash := user.PasswordHash
	if hash == "" {
		hash = s.demoHash
	}
	if !s.hasher.Matches(hash, password) {
		log.Warn().Str("user_id", user.ID).Msg("Failed login attempt")
		return nil, errInvalidCredentials
	}

	return s.issue(user)
}

// Authenticate resolves a bearer token to its user. Every failure is
// reported as unauthorized.
func (s *Service) Authenticate(ctx context.Context, raw string) (*model.User, *auth.Claims, error) {
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid or expired token", err)
	}
	if _, revoked := s.revoked.Get(claims.TokenID()); revoked {
		return nil, nil, apperrors.Unauthorized("token has been revoked", nil)
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("invalid or expired token", err)
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, claims, nil
}

// Register creates a user and, for the doctor role, its paired doctor record.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        uuid.New().String(),
		Email:     strings.TrimSpace(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: s.now().UTC(),
	}
	if req.Password != "" {
		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			if errors.Is(err, security.ErrPasswordTooShort) {
				return nil, apperrors.Validation(err.Error(), err)
			}
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	var doctor *model.Doctor
	if user.Role == model.RoleDoctor {
		doctor = s.newDoctor(user, req)
	}

	if err := s.users.Create(ctx, user, doctor); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("User registered")

	return s.issue(user)
}

func validateRegistration(req *model.RegisterRequest) error {
	switch {
	case req == nil:
		return apperrors.Validation("request body is required", nil)
	case strings.TrimSpace(req.Email) == "":
		return apperrors.Validation("email is required", nil)
	case strings.TrimSpace(req.FirstName) == "":
		return apperrors.Validation("firstName is required", nil)
	case strings.TrimSpace(req.LastName) == "":
		return apperrors.Validation("lastName is required", nil)
	case !req.Role.Valid():
		return apperrors.Validation("role must be one of: patient doctor", nil)
	}
	for i, entry := range req.Schedule {
		if err := entry.Validate(); err != nil {
			return apperrors.Validation(fmt.Sprintf("schedule[%d]: %v", i, err), err)
		}
	}
	return nil
}

func (s *Service) newDoctor(user *model.User, req *model.RegisterRequest) *model.Doctor {
	schedule := append([]model.ScheduleEntry(nil), req.Schedule...)
	if len(schedule) == 0 {
		schedule = model.DefaultSchedule(s.cfg.SlotMinutes)
	}
	model.SortSchedule(schedule)

	specialization := strings.TrimSpace(req.Specialization)
	if specialization == "" {
		specialization = defaultSpecialty
	}
	return &model.Doctor{
		ID:                user.ID,
		Name:              "Dr. " + user.FullName(),
		Specialization:    specialization,
		YearsOfExperience: req.YearsOfExperience,
		ConsultationFee:   req.ConsultationFee,
		Bio:               strings.TrimSpace(req.Bio),
		IsAvailable:       true,
		Schedule:          schedule,
	}
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.TokenID() == "" {
		return apperrors.Unauthorized("", nil)
	}
	ttl := claims.Expiry().Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	s.revoked.Set(claims.TokenID(), struct{}{}, ttl)
	log.Info().Str("user_id", claims.UserID).Msg("User logged out")
	return nil
}

// Me returns the user plus the doctor profile for doctor accounts.
func (s *Service) Me(ctx context.Context, user *model.User) (*model.MeResponse, error) {
	resp := &model.MeResponse{User: user}
	if user.Role != model.RoleDoctor {
		return resp, nil
	}
	doctor, err := s.doctors.Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return resp, nil
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	resp.Doctor = doctor
	return resp, nil
}

func (s *Service) issue(user *model.User) (*model.AuthResponse, error) {
	token, claims, err := s.tokens.Issue(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &model.AuthResponse{
		User:      user,
		Token:     token,
		ExpiresAt: claims.Expiry().Unix(),
	}, nil
}
