package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const (
	OrderCreatedEventName    = "OrderCreated"
	OrderCreatedEventVersion = 1
	producerName             = "storefront-api"
)

// EventEnvelope is the common wrapper for every emitted event.
type EventEnvelope[T any] struct {
	EventName     string    `json:"eventName"`
	EventVersion  int       `json:"eventVersion"`
	EventID       string    `json:"eventId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	Producer      string    `json:"producer"`
	PartitionKey  string    `json:"partitionKey"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       T         `json:"payload"`
}

// Validate ensures the envelope carries the expected event identity.
func (e EventEnvelope[T]) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName: %s", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion: %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	return nil
}

type OrderCreatedItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Notes     string          `json:"notes,omitempty"`
}

type OrderCreatedPayload struct {
	OrderID       string               `json:"orderId"`
	OrderNumber   string               `json:"orderNumber"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Total         decimal.Decimal      `json:"total"`
	EstimatedTime int                  `json:"estimatedTime"`
	Items         []OrderCreatedItem   `json:"items"`
	CreatedAt     time.Time            `json:"createdAt"`
}

type OrderCreatedEnvelope = EventEnvelope[OrderCreatedPayload]

// BuildOrderCreatedEnvelope wraps o for publishing. A missing correlation id
// is generated.
func BuildOrderCreatedEnvelope(o domain.Order, correlationID string) OrderCreatedEnvelope {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	items := make([]OrderCreatedItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderCreatedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Notes:     it.Notes,
		})
	}
	return OrderCreatedEnvelope{
		EventName:     OrderCreatedEventName,
		EventVersion:  OrderCreatedEventVersion,
		EventID:       uuid.NewString(),
		CorrelationID: correlationID,
		Producer:      producerName,
		PartitionKey:  o.ID,
		OccurredAt:    time.Now().UTC(),
		Payload: OrderCreatedPayload{
			OrderID:       o.ID,
			OrderNumber:   o.OrderNumber,
			PaymentMethod: o.PaymentMethod,
			Total:         o.Total,
			EstimatedTime: o.EstimatedTime,
			Items:         items,
			CreatedAt:     o.CreatedAt,
		},
	}
}

type ctxKey string

const correlationKey ctxKey = "correlation_id"

// WithCorrelationID stores id on ctx for downstream events.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationID returns the id stored by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationKey).(string); ok {
		return v
	}
	return ""
}
