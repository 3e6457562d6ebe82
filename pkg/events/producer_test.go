package events

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore_checkout/pkg/config"
)

func TestNop_PublishEvent(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Nop{}.PublishEvent(context.Background(), "order_events", "1", map[string]any{"type": "x"}))
}

func TestProducer_PublishEvent_UnencodableEvent(t *testing.T) {
	t.Parallel()

	p := NewProducer([]string{"127.0.0.1:1"})
	t.Cleanup(func() { _ = p.Close() })

	err := p.PublishEvent(context.Background(), "order_events", "1", map[string]any{"bad": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json.Marshal")
}

func TestProducer_PublishEvent_Integration(t *testing.T) {
	brokers := config.CSV(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		t.Skip("KAFKA_BROKERS not set")
	}

	topic := "order_events_test_" + uuid.NewString()[:8]
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := NewProducer(brokers)
	t.Cleanup(func() { _ = p.Close() })

	require.Eventually(t, func() bool {
		return p.PublishEvent(ctx, topic, "42", map[string]any{"type": "order_created", "order_id": 42}) == nil
	}, 20*time.Second, time.Second)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
		MaxWait:   time.Second,
	})
	defer r.Close()

	m, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", string(m.Key))

	var event map[string]any
	require.NoError(t, json.Unmarshal(m.Value, &event))
	assert.Equal(t, "order_created", event["type"])
}
