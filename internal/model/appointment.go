package model

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Active appointments hold their slot.
func (s AppointmentStatus) Active() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
}

type Appointment struct {
	ID              string            `json:"id"`
	DoctorID        string            `json:"doctorId"`
	PatientID       string            `json:"patientId"`
	AppointmentDate string            `json:"appointmentDate"`
	AppointmentTime string            `json:"appointmentTime"`
	ReasonForVisit  string            `json:"reasonForVisit,omitempty"`
	Status          AppointmentStatus `json:"status"`
	CancelReason    string            `json:"cancelReason,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// SlotKey identifies the (doctor, date, time) tuple an appointment occupies.
type SlotKey struct {
	DoctorID string
	Date     string
	Time     string
}

func (k SlotKey) String() string {
	return k.DoctorID + "|" + k.Date + "|" + k.Time
}

func (a *Appointment) Slot() SlotKey {
	return SlotKey{DoctorID: a.DoctorID, Date: a.AppointmentDate, Time: a.AppointmentTime}
}

type CreateAppointmentRequest struct {
	DoctorID        string `json:"doctorId" binding:"required"`
	AppointmentDate string `json:"appointmentDate" binding:"required,isodate"`
	AppointmentTime string `json:"appointmentTime" binding:"required,clock"`
	ReasonForVisit  string `json:"reasonForVisit" binding:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,oneof=confirmed completed"`
}

// AppointmentFilters narrows a listing. UserID matches either side of the appointment.
type AppointmentFilters struct {
	UserID   string
	DoctorID string
	Date     string
	Status   AppointmentStatus
}

// Slot is one bookable interval on a doctor's day.
type Slot struct {
	Time      string `json:"time"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
}

type Availability struct {
	Date           string          `json:"date"`
	AvailableSlots []Slot          `json:"availableSlots"`
	DoctorSchedule []ScheduleEntry `json:"doctorSchedule"`
}
