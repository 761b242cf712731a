// Package events publishes marketplace lifecycle events to a message
// broker for downstream consumers (search indexing, analytics). Publishing
// is best-effort: a broker failure never fails the originating request.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/carbrainiac/apiserver/config"
	"github.com/google/uuid"
)

// Topics carrying marketplace events.
const (
	TopicUserRegistered = "user.registered"
	TopicCarCreated     = "car.created"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// Events wraps a backend with a stable API. A nil *Events is a no-op
// publisher, used when no broker is configured.
type Events struct {
	backend Backend
}

// New constructs an Events wrapper for the provided backend.
func New(backend Backend) *Events {
	return &Events{backend: backend}
}

// NewFromConfig selects and constructs the configured backend. An empty
// backend name disables publishing and returns nil.
func NewFromConfig(ctx context.Context, cfg config.EventsConfig) (*Events, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "":
		return nil, nil
	case "rabbitmq":
		backend, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	case "pubsub":
		backend, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// Publish sends a message to the named channel.
func (e *Events) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if e == nil {
		return "", nil
	}
	return e.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel.
func (e *Events) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if e == nil {
		return nil
	}
	return e.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (e *Events) Close() error {
	if e == nil {
		return nil
	}
	return e.backend.Close()
}

// UserRegistered is emitted after a successful registration.
type UserRegistered struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	UserType string    `json:"usertype"`
	At       time.Time `json:"at"`
}

// CarCreated is emitted after a listing is persisted.
type CarCreated struct {
	ID       uuid.UUID `json:"id"`
	SellerID uuid.UUID `json:"sellerId"`
	Make     string    `json:"make"`
	CarModel string    `json:"model"`
	At       time.Time `json:"at"`
}

// PublishUserRegistered publishes a user.registered event.
func (e *Events) PublishUserRegistered(ctx context.Context, event UserRegistered) error {
	return e.publishJSON(ctx, TopicUserRegistered, event)
}

// PublishCarCreated publishes a car.created event.
func (e *Events) PublishCarCreated(ctx context.Context, event CarCreated) error {
	return e.publishJSON(ctx, TopicCarCreated, event)
}

func (e *Events) publishJSON(ctx context.Context, channel string, event any) error {
	if e == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = e.Publish(ctx, channel, data, map[string]string{"content-type": "application/json"})
	return err
}
