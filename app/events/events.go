package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeOrderPlaced        = "order.placed"
	TypeOrderStatusChanged = "order.status_changed"
)

type OrderPlacedEvent struct {
	Type      string          `json:"type"`
	OrderID   string          `json:"order_id"`
	UserID    string          `json:"user_id"`
	VendorID  string          `json:"vendor_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Amount    decimal.Decimal `json:"amount"`
	PlacedAt  time.Time       `json:"placed_at"`
}

type OrderStatusChangedEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	ProductID string    `json:"product_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// Message pairs an event with its partition key.
type Message struct {
	Key   string
	Event any
}

// Publisher delivers domain events keyed for partitioning. Callers publish
// after the store transaction commits. PublishBatch sends all messages in
// one write.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
	PublishBatch(ctx context.Context, msgs []Message) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, key string, event any) error { return nil }

func (NopPublisher) PublishBatch(ctx context.Context, msgs []Message) error { return nil }

func (NopPublisher) Close() error { return nil }
