package event

import (
	"github.com/jwalitptl/booking-api/internal/model"
)

// AppointmentsChannel carries every appointment lifecycle event.
const AppointmentsChannel = "appointments"

const (
	TypeAppointmentBooked        = "appointment.booked"
	TypeAppointmentCancelled     = "appointment.cancelled"
	TypeAppointmentStatusChanged = "appointment.status_changed"
)

// AppointmentEvent is the payload of every appointment event.
type AppointmentEvent struct {
	AppointmentID   string                  `json:"appointmentId"`
	DoctorID        string                  `json:"doctorId"`
	PatientID       string                  `json:"patientId"`
	AppointmentDate string                  `json:"appointmentDate"`
	AppointmentTime string                  `json:"appointmentTime"`
	Status          model.AppointmentStatus `json:"status"`
	ReasonForVisit  string                  `json:"reasonForVisit,omitempty"`
	CancelReason    string                  `json:"cancelReason,omitempty"`
	ActorID         string                  `json:"actorId,omitempty"`
}

func NewAppointmentEvent(a *model.Appointment, actorID string) AppointmentEvent {
	return AppointmentEvent{
		AppointmentID:   a.ID,
		DoctorID:        a.DoctorID,
		PatientID:       a.PatientID,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Status:          a.Status,
		ReasonForVisit:  a.ReasonForVisit,
		CancelReason:    a.CancelReason,
		ActorID:         actorID,
	}
}
