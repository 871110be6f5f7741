package model

import "time"

type Settings struct {
	UserID             string    `json:"userId"`
	EmailNotifications bool      `json:"emailNotifications"`
	SMSNotifications   bool      `json:"smsNotifications"`
	Language           string    `json:"language"`
	Timezone           string    `json:"timezone"`
	Theme              string    `json:"theme"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:             userID,
		EmailNotifications: true,
		SMSNotifications:   false,
		Language:           "en",
		Timezone:           "UTC",
		Theme:              "light",
	}
}

// UpdateSettingsRequest applies only the fields that are present.
type UpdateSettingsRequest struct {
	EmailNotifications *bool   `json:"emailNotifications"`
	SMSNotifications   *bool   `json:"smsNotifications"`
	Language           *string `json:"language" binding:"omitempty,len=2,alpha"`
	Timezone           *string `json:"timezone"`
	Theme              *string `json:"theme" binding:"omitempty,oneof=light dark system"`
}
