package model

import "time"

// SystemSenderID marks messages written by the booking notifier rather than a user.
const SystemSenderID = "system"

// SystemUser is the counterpart shown for notifier threads.
func SystemUser() *User {
	return &User{ID: SystemSenderID, FirstName: "Booking", LastName: "Notifications"}
}

type Message struct {
	ID            string    `json:"id"`
	SenderID      string    `json:"senderId"`
	RecipientID   string    `json:"recipientId"`
	Body          string    `json:"body"`
	AppointmentID string    `json:"appointmentId,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"createdAt"`
}

type SendMessageRequest struct {
	RecipientID   string `json:"recipientId" binding:"required"`
	Body          string `json:"body" binding:"required,max=2000"`
	AppointmentID string `json:"appointmentId"`
}

// ConversationSummary is one inbox row.
type ConversationSummary struct {
	Counterpart *User    `json:"counterpart"`
	LastMessage *Message `json:"lastMessage"`
	UnreadCount int      `json:"unreadCount"`
}
