package usecase

import (
	"context"
	"time"

	"PumpScope/internal/domain/models"
	drepo "PumpScope/internal/domain/repository"
	"PumpScope/pkg/logger"
)

const (
	initialReconnectDelay = 1 * time.Second
	maxReconnectDelay     = 60 * time.Second
)

// EventCollector drives the market stream: connect, subscribe, and feed every
// event through the dispatcher, reconnecting with exponential backoff when
// the stream drops.
type EventCollector struct {
	stream     drepo.MarketStream
	dispatcher *Dispatcher
	metrics    drepo.Metrics
	log        *logger.Logger
}

// NewEventCollector creates a new EventCollector instance.
func NewEventCollector(stream drepo.MarketStream, dispatcher *Dispatcher, metrics drepo.Metrics, log *logger.Logger) *EventCollector {
	return &EventCollector{stream: stream, dispatcher: dispatcher, metrics: metrics, log: log}
}

// IsConnected returns true if the market stream is connected.
func (c *EventCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Start connects, subscribes, and launches the consume loop.
func (c *EventCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	evCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, evCh, errCh)
	return nil
}

func (c *EventCollector) consume(ctx context.Context, evCh <-chan models.MarketEvent, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				c.log.Warn("stream error, reconnecting", logger.Error(err))
				evCh, errCh = c.reconnect(ctx)
				if evCh == nil {
					return
				}
			}
		case ev := <-evCh:
			if ev.Symbol == "" {
				continue
			}
			c.dispatcher.Dispatch(ev)
		}
	}
}

// reconnect retries with exponential backoff until connected or ctx ends,
// then returns fresh read channels.
func (c *EventCollector) reconnect(ctx context.Context) (<-chan models.MarketEvent, <-chan error) {
	delay := initialReconnectDelay
	for {
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(delay):
		}

		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("reconnect")
			c.log.Warn("reconnect failed",
				logger.Error(err),
				logger.Duration("next_retry", delay),
			)
			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}
			continue
		}

		c.log.Info("stream reconnected")
		return c.stream.Read(ctx)
	}
}

// Shutdown closes the stream.
func (c *EventCollector) Shutdown(ctx context.Context) error {
	return c.stream.Close()
}
