package worker

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/pkg/logger"
	messagingmem "github.com/jwalitptl/booking-api/pkg/messaging/memory"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

func TestNotification(t *testing.T) {
	evt := &event.AppointmentEvent{
		DoctorID:        "1",
		PatientID:       "4",
		AppointmentDate: "2024-01-16",
		AppointmentTime: "09:00",
		Status:          model.AppointmentStatusConfirmed,
		ReasonForVisit:  "checkup",
		ActorID:         "4",
	}

	to, body := notification(event.TypeAppointmentBooked, evt)
	assert.Equal(t, "1", to)
	assert.Equal(t, "New appointment booked for 2024-01-16 at 09:00. Reason: checkup", body)

	to, _ = notification(event.TypeAppointmentCancelled, evt)
	assert.Equal(t, "1", to, "patient cancelled, doctor is told")

	evt.ActorID = "1"
	to, _ = notification(event.TypeAppointmentCancelled, evt)
	assert.Equal(t, "4", to, "doctor cancelled, patient is told")

	to, body = notification(event.TypeAppointmentStatusChanged, evt)
	assert.Equal(t, "4", to)
	assert.Contains(t, body, "confirmed")

	to, _ = notification("something.else", evt)
	assert.Empty(t, to)
}

func TestBookingNotifierWritesMessages(t *testing.T) {
	broker := messagingmem.NewBroker()
	defer broker.Close()
	store := memory.NewStore()
	messages := memory.NewMessageRepository(store)
	m := metrics.New("test")

	w := NewBookingNotifier(broker, messages, logger.Nop(), m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	select {
	case <-w.Ready():
	case <-time.After(time.Second):
		t.Fatal("notifier did not subscribe")
	}

	publisher := event.NewPublisher(broker, m)
	apt := &model.Appointment{ID: "a1", DoctorID: "1", PatientID: "4", AppointmentDate: "2024-01-16", AppointmentTime: "09:00", Status: model.AppointmentStatusScheduled}
	publisher.Emit(ctx, event.AppointmentsChannel, event.TypeAppointmentBooked, event.NewAppointmentEvent(apt, "4"))
	publisher.Wait()

	require.Eventually(t, func() bool {
		got, err := messages.ListForUser(ctx, "1")
		return err == nil && len(got) > 0
	}, 2*time.Second, 20*time.Millisecond)

	got, err := messages.ListConversation(ctx, "1", model.SystemSenderID)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "a1", got[0].AppointmentID)
	assert.Greater(t, testutil.ToFloat64(m.EventsConsumed.WithLabelValues(event.TypeAppointmentBooked, metrics.StatusSuccess)), 0.0)

	require.NoError(t, broker.Publish(ctx, event.AppointmentsChannel, "not an envelope"))
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(m.EventsConsumed.WithLabelValues("unknown", metrics.StatusFailure)) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("notifier did not stop")
	}
}

func TestBookingNotifierSubscribeError(t *testing.T) {
	broker := messagingmem.NewBroker()
	require.NoError(t, broker.Close())

	w := NewBookingNotifier(broker, memory.NewMessageRepository(memory.NewStore()), logger.Nop(), nil)
	assert.Error(t, w.Start(context.Background()))
}

func TestBookingNotifierWaitReady(t *testing.T) {
	broker := messagingmem.NewBroker()
	defer broker.Close()
	w := NewBookingNotifier(broker, memory.NewMessageRepository(memory.NewStore()), logger.Nop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	readyCtx, cancelReady := context.WithTimeout(context.Background(), time.Second)
	defer cancelReady()
	assert.NoError(t, w.WaitReady(readyCtx))
}

func TestBookingNotifierWaitReadyTimesOut(t *testing.T) {
	broker := messagingmem.NewBroker()
	require.NoError(t, broker.Close())
	w := NewBookingNotifier(broker, memory.NewMessageRepository(memory.NewStore()), logger.Nop(), nil)
	require.Error(t, w.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.WaitReady(ctx), context.DeadlineExceeded)
}
