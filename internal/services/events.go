package services

import (
	"encoding/json"
	"time"

	"farmersmarket/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusUpdated = "order.status_updated"
)

// EventPublisher delivers order events to a broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// OrderEvent is the JSON body of every order event.
type OrderEvent struct {
	Type       string             `json:"type"`
	OrderID    string             `json:"order_id"`
	CustomerID string             `json:"customer_id,omitempty"`
	Status     models.OrderStatus `json:"status"`
	Total      *decimal.Decimal   `json:"total,omitempty"`
	FarmerIDs  []string           `json:"farmer_ids,omitempty"`
	UpdatedBy  string             `json:"updated_by,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// publish is best effort: the database write has already committed.
func publish(publisher EventPublisher, event OrderEvent) {
	if publisher == nil {
		log.Debug().Str("event", event.Type).Msg("event publisher not configured, skipping")
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Warn().Err(err).Str("order_id", event.OrderID).Msg("failed to marshal order event")
		return
	}
	if err := publisher.Publish(event.Type, body); err != nil {
		log.Warn().Err(err).Str("order_id", event.OrderID).Str("event", event.Type).Msg("failed to publish order event")
		return
	}
	log.Debug().Str("order_id", event.OrderID).Str("event", event.Type).Msg("order event published")
}
