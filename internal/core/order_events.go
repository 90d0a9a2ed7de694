package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outbox event types, written in the same transaction as the change they describe.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is the outbox payload for both event types.
type OrderEvent struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrderNumber    string          `json:"order_number"`
	StatusID       uuid.UUID       `json:"status_id"`
	StatusCode     string          `json:"status_code"`
	PreviousStatus string          `json:"previous_status_code,omitempty"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Currency       string          `json:"currency"`
	Actor          string          `json:"actor_details"`
	Notes          string          `json:"notes,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// LifecycleObserver receives lifecycle counters. metrics.Metrics satisfies it.
type LifecycleObserver interface {
	OrderCreated()
	StatusChanged(statusCode string)
	OrderNumberCollision()
}

type nopObserver struct{}

func (nopObserver) OrderCreated()         {}
func (nopObserver) StatusChanged(string)  {}
func (nopObserver) OrderNumberCollision() {}
