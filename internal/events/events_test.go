package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	appended []Event
	failNext bool
}

func (m *memStore) Append(_ context.Context, topic string, payload []byte) error {
	if m.failNext {
		m.failNext = false
		return context.DeadlineExceeded
	}
	m.appended = append(m.appended, Event{Topic: topic, Payload: payload})
	return nil
}

func (m *memStore) ListByTopic(_ context.Context, topic string, _ int) ([]Event, error) {
	var out []Event
	for _, e := range m.appended {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingSub struct {
	topics []string
}

func (r *recordingSub) Notify(_ context.Context, topic string, _ []byte) {
	r.topics = append(r.topics, topic)
}

func TestBusPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	sub := &recordingSub{}
	bus := &Bus{Store: store, Subscribers: []Subscriber{sub}, Log: zerolog.Nop()}

	bus.Publish(context.Background(), TopicOrderCreated, map[string]any{"order_id": 1})

	require.Len(t, store.appended, 1)
	require.Equal(t, TopicOrderCreated, store.appended[0].Topic)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(store.appended[0].Payload, &payload))
	require.EqualValues(t, 1, payload["order_id"])
	require.Equal(t, []string{TopicOrderCreated}, sub.topics)
}

func TestBusStoreFailureStillNotifies(t *testing.T) {
	store := &memStore{failNext: true}
	sub := &recordingSub{}
	bus := &Bus{Store: store, Subscribers: []Subscriber{sub}, Log: zerolog.Nop()}

	bus.Publish(context.Background(), TopicStockLow, map[string]any{"product_id": 2})

	require.Empty(t, store.appended)
	require.Equal(t, []string{TopicStockLow}, sub.topics)
}
