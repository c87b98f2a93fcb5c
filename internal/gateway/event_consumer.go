package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/evergreen-games/ecocity/internal/events"
)

// ConsumerConfig holds NATS consumer settings.
type ConsumerConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConsumerConfig returns the default NATS consumer settings.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "ecocity.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// EventConsumer subscribes to the game event subjects and forwards the
// events to connected WebSocket clients. Addressed notifications reach
// only their addressee; everything else is broadcast.
type EventConsumer struct {
	connectionManager *ConnectionManager
	nc                *nats.Conn
	sub               *nats.Subscription
	config            ConsumerConfig
}

// NewEventConsumer connects to NATS and prepares the consumer.
func NewEventConsumer(cm *ConnectionManager, config ConsumerConfig) (*EventConsumer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &EventConsumer{
		connectionManager: cm,
		nc:                nc,
		config:            config,
	}, nil
}

// Start subscribes and processes events until the context is
// cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	subject := ec.config.SubjectPrefix + ".>"

	sub, err := ec.nc.Subscribe(subject, func(msg *nats.Msg) {
		if err := ec.processMessage(msg); err != nil {
			log.Error().Err(err).
				Str("subject", msg.Subject).
				Msg("failed to process event")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	ec.sub = sub

	log.Info().Str("subject", subject).Msg("event consumer started")

	<-ctx.Done()
	log.Info().Msg("event consumer shutting down")
	return nil
}

func (ec *EventConsumer) processMessage(msg *nats.Msg) error {
	var envelope struct {
		EventID   string          `json:"eventId"`
		EventType string          `json:"eventType"`
		Timestamp time.Time       `json:"timestamp"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	event := &GameEvent{
		ID:        envelope.EventID,
		Type:      envelope.EventType,
		Timestamp: envelope.Timestamp,
		Data:      envelope.Payload,
	}

	// Addressed notifications go to their addressee only.
	if envelope.EventType == events.TypeNotificationCreated {
		var payload events.NotificationCreatedPayload
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return fmt.Errorf("failed to unmarshal notification payload: %w", err)
		}
		if !payload.IsGlobal && payload.UserID != nil {
			ec.connectionManager.BroadcastToUser(*payload.UserID, event)
			return nil
		}
	}

	ec.connectionManager.BroadcastToAll(event)
	return nil
}

// Stop drains the subscription and closes the NATS connection.
func (ec *EventConsumer) Stop() error {
	if ec.sub != nil {
		if err := ec.sub.Drain(); err != nil {
			log.Warn().Err(err).Msg("failed to drain subscription")
		}
	}
	if ec.nc != nil {
		ec.nc.Close()
	}
	return nil
}
