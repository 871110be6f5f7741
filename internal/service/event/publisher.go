package event

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/booking-api/pkg/messaging"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

const publishTimeout = 5 * time.Second

// Publisher hands domain events to the broker off the request path.
// Failures are logged and counted, never returned to the caller.
type Publisher struct {
	broker  messaging.Broker
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewPublisher(broker messaging.Broker, m *metrics.Metrics) *Publisher {
	return &Publisher{
		broker:  broker,
		metrics: m,
	}
}

// Emit publishes asynchronously. The request context only contributes its
// values; cancellation of the request does not abort the publish.
func (p *Publisher) Emit(ctx context.Context, channel, eventType string, payload interface{}) {
	msg, err := messaging.NewMessage(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to encode event")
		p.record(eventType, metrics.StatusFailure)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := p.broker.Publish(pubCtx, channel, msg); err != nil {
			log.Error().
				Err(err).
				Str("channel", channel).
				Str("event_type", eventType).
				Msg("Failed to publish event")
			p.record(eventType, metrics.StatusFailure)
			return
		}
		p.record(eventType, metrics.StatusSuccess)
	}()
}

// Wait blocks until every in-flight publish has finished.
func (p *Publisher) Wait() {
	p.wg.Wait()
}

func (p *Publisher) record(eventType, status string) {
	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
	}
}
