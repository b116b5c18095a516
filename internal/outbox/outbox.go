// Package outbox stores domain events in the database transaction that
// produced them and relays them to a message broker afterwards.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContentTypeJSON is the content type of every event payload.
const ContentTypeJSON = "application/json"

// Message is an event waiting to be published.
type Message struct {
	ID          uuid.UUID
	Topic       string
	Key         string
	ContentType string
	Payload     []byte
	CreatedAt   time.Time
}

// NewMessage returns a JSON message with a fresh id.
func NewMessage(topic, key string, payload []byte, at time.Time) Message {
	return Message{
		ID:          uuid.New(),
		Topic:       topic,
		Key:         key,
		ContentType: ContentTypeJSON,
		Payload:     payload,
		CreatedAt:   at,
	}
}

// Writer appends messages to the outbox within the caller's transaction.
type Writer interface {
	Enqueue(ctx context.Context, msg Message) error
}

// Pending is a stored message together with its delivery bookkeeping.
type Pending struct {
	Message
	Attempts int
}

// Store reads and settles stored messages for the relay. Pending claims the
// returned messages so concurrent relays never receive the same message
// while its claim holds.
type Store interface {
	Pending(ctx context.Context, now time.Time, limit int) ([]Pending, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Retry(ctx context.Context, id uuid.UUID, attempts int, lastError string, next time.Time) error
}

// Publisher delivers a message to the broker.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}
