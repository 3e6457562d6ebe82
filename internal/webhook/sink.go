package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Skotchmaster/bookstore_checkout/internal/models"
	"github.com/Skotchmaster/bookstore_checkout/pkg/events"
)

type EventStore interface {
	SaveShipmentEvent(ctx context.Context, payload []byte) (*models.ShipmentEvent, error)
}

// ShipmentReceived is published for every stored webhook delivery.
type ShipmentReceived struct {
	Type       string          `json:"type"`
	EventID    uint            `json:"event_id"`
	ReceivedAt time.Time       `json:"received_at"`
	Payload    json.RawMessage `json:"payload"`
}

// StoreSink records the raw payload and announces it on the shipment topic.
// Mapping provider statuses onto orders is left to consumers of the topic.
type StoreSink struct {
	Store     EventStore
	Publisher events.Publisher
	Topic     string
}

func (s *StoreSink) Handle(ctx context.Context, payload json.RawMessage) error {
	ev, err := s.Store.SaveShipmentEvent(ctx, payload)
	if err != nil {
		return fmt.Errorf("save shipment event: %w", err)
	}
	if s.Publisher == nil {
		return nil
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	msg := ShipmentReceived{
		Type:       "shipment_received",
		EventID:    ev.ID,
		ReceivedAt: ev.ReceivedAt,
		Payload:    payload,
	}
	if err := s.Publisher.PublishEvent(pubCtx, s.Topic, strconv.FormatUint(uint64(ev.ID), 10), msg); err != nil {
		return fmt.Errorf("publish shipment event: %w", err)
	}
	return nil
}
