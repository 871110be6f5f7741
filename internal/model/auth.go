package model

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest carries the user fields plus the doctor profile used when Role is doctor.
type RegisterRequest struct {
	Email             string          `json:"email" binding:"required,email"`
	FirstName         string          `json:"firstName" binding:"required,max=100"`
	LastName          string          `json:"lastName" binding:"required,max=100"`
	Role              Role            `json:"role" binding:"required,oneof=patient doctor"`
	Password          string          `json:"password" binding:"omitempty,min=8,max=72"`
	Phone             string          `json:"phone" binding:"max=32"`
	Specialization    string          `json:"specialization" binding:"max=100"`
	YearsOfExperience int             `json:"yearsOfExperience" binding:"min=0,max=80"`
	ConsultationFee   float64         `json:"consultationFee" binding:"min=0"`
	Bio               string          `json:"bio" binding:"max=2000"`
	Schedule          []ScheduleEntry `json:"schedule" binding:"omitempty,dive"`
}

type AuthResponse struct {
	User      *User  `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type MeResponse struct {
	User   *User   `json:"user"`
	Doctor *Doctor `json:"doctor,omitempty"`
}

type UpdateScheduleRequest struct {
	Schedule []ScheduleEntry `json:"schedule" binding:"required,min=1,dive"`
}

type UpdateAvailabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" binding:"required"`
}
