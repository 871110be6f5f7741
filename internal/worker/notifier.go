package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

// BookingNotifier turns appointment events into inbox messages for the
// participant who did not trigger them.
type BookingNotifier struct {
	broker   messaging.Broker
	messages repository.MessageRepository
	logger   *logger.Logger
	metrics  *metrics.Metrics
	ready    chan struct{}
	now      func() time.Time
}

func NewBookingNotifier(
	broker messaging.Broker,
	messages repository.MessageRepository,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *BookingNotifier {
	return &BookingNotifier{
		broker:   broker,
		messages: messages,
		logger:   logger.With("booking_notifier"),
		metrics:  metrics,
		ready:    make(chan struct{}),
		now:      time.Now,
	}
}

// Start consumes events until ctx is cancelled or the broker closes the subscription.
func (w *BookingNotifier) Start(ctx context.Context) error {
	events, err := w.broker.Subscribe(ctx, event.AppointmentsChannel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", event.AppointmentsChannel, err)
	}
	close(w.ready)

	w.logger.Info("Starting booking notifier")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Shutting down booking notifier")
			return nil
		case raw, ok := <-events:
			if !ok {
				w.logger.Info("Event subscription closed")
				return nil
			}
			w.handle(ctx, raw)
		}
	}
}

// Ready is closed once Start has subscribed. Start must only be called once.
func (w *BookingNotifier) Ready() <-chan struct{} {
	return w.ready
}

// WaitReady blocks until Start has subscribed or ctx is done.
func (w *BookingNotifier) WaitReady(ctx context.Context) error {
	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("booking notifier not subscribed: %w", ctx.Err())
	}
}

func (w *BookingNotifier) handle(ctx context.Context, raw []byte) {
	msg, err := messaging.Decode(raw)
	if err != nil {
		w.logger.Error(err, "Failed to decode event")
		w.record("unknown", metrics.StatusFailure)
		return
	}

	if err := w.process(ctx, msg); err != nil {
		w.logger.Error(err, "Failed to process event", "event_type", msg.Type)
		w.record(msg.Type, metrics.StatusFailure)
		return
	}
	w.record(msg.Type, metrics.StatusSuccess)
}

func (w *BookingNotifier) process(ctx context.Context, msg *messaging.Message) error {
	var evt event.AppointmentEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	recipient, body := notification(msg.Type, &evt)
	if recipient == "" {
		return nil
	}

	return w.messages.Create(ctx, &model.Message{
		ID:            uuid.New().String(),
		SenderID:      model.SystemSenderID,
		RecipientID:   recipient,
		Body:          body,
		AppointmentID: evt.AppointmentID,
		CreatedAt:     w.now().UTC(),
	})
}

// notification picks the recipient and text for an event; an empty
// recipient means the event needs no message.
func notification(eventType string, evt *event.AppointmentEvent) (string, string) {
	slot := evt.AppointmentDate + " at " + evt.AppointmentTime
	switch eventType {
	case event.TypeAppointmentBooked:
		body := "New appointment booked for " + slot
		if evt.ReasonForVisit != "" {
			body += ". Reason: " + evt.ReasonForVisit
		}
		return evt.DoctorID, body

	case event.TypeAppointmentCancelled:
		recipient := evt.DoctorID
		if evt.ActorID == evt.DoctorID {
			recipient = evt.PatientID
		}
		body := "Appointment on " + slot + " was cancelled"
		if evt.CancelReason != "" {
			body += ". Reason: " + evt.CancelReason
		}
		return recipient, body

	case event.TypeAppointmentStatusChanged:
		return evt.PatientID, fmt.Sprintf("Your appointment on %s is now %s", slot, evt.Status)
	}
	return "", ""
}

func (w *BookingNotifier) record(eventType, status string) {
	if w.metrics != nil {
		w.metrics.EventsConsumed.WithLabelValues(eventType, status).Inc()
	}
}
