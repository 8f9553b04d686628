package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Topics published by the POS domain.
const (
	TopicOrderCreated = "order.created"
	TopicStockLow     = "stock.low"
)

// Event is a persisted domain event.
type Event struct {
	ID        int64           `json:"id"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// EventStore persists domain events for audit and replay.
type EventStore interface {
	Append(ctx context.Context, topic string, payload []byte) error
	ListByTopic(ctx context.Context, topic string, limit int) ([]Event, error)
}

// PGEventStore implements EventStore on PostgreSQL.
type PGEventStore struct {
	Pool *pgxpool.Pool
}

var _ EventStore = (*PGEventStore)(nil)

func (s *PGEventStore) Append(ctx context.Context, topic string, payload []byte) error {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	_, err := s.Pool.Exec(ctx,
		"INSERT INTO domain_events (topic, payload) VALUES ($1, $2)", topic, payload)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *PGEventStore) ListByTopic(ctx context.Context, topic string, limit int) ([]Event, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, topic, payload, created_at FROM domain_events
		WHERE topic = $1 ORDER BY created_at DESC LIMIT $2`, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	out := make([]Event, 0, limit)
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Subscriber receives every published event for a set of topics.
type Subscriber interface {
	Notify(ctx context.Context, topic string, payload []byte)
}

// Bus persists events and fans them out to subscribers. Publishing never
// fails the caller: persistence or subscriber errors are logged and dropped.
type Bus struct {
	Store       EventStore
	Subscribers []Subscriber
	Log         zerolog.Logger
}

// Publish serialises the payload, appends it to the store and notifies
// subscribers in order.
func (b *Bus) Publish(ctx context.Context, topic string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		b.Log.Error().Err(err).Str("topic", topic).Msg("event payload marshal failed")
		return
	}
	if b.Store != nil {
		if err := b.Store.Append(ctx, topic, raw); err != nil {
			b.Log.Error().Err(err).Str("topic", topic).Msg("event persist failed")
		}
	}
	for _, sub := range b.Subscribers {
		sub.Notify(ctx, topic, raw)
	}
}
