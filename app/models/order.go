package models

import (
	"strings"
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/utils/calc"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch s := OrderStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case OrderStatusPending, OrderStatusDelivered, OrderStatusCancelled:
		return s, true
	}
	return "", false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo allows PENDING to move to DELIVERED or CANCELLED only.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s != OrderStatusPending {
		return false
	}
	return next == OrderStatusDelivered || next == OrderStatusCancelled
}

// Order is created one per checked out cart line. Vendor and product name
// are snapshots taken at checkout.
type Order struct {
	ID          string          `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	UserID      string          `gorm:"size:36;not null;index" json:"user_id"`
	ProductID   string          `gorm:"size:36;not null;index" json:"product_id"`
	VendorID    string          `gorm:"size:36;not null;index" json:"vendor_id"`
	ProductName string          `gorm:"size:255;not null" json:"product_name"`
	Price       decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Size        string          `gorm:"size:50" json:"size"`
	Phone       string          `gorm:"size:20;not null" json:"phone"`
	Address     string          `gorm:"type:text;not null" json:"address"`
	Status      OrderStatus     `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	OrderDate   time.Time       `gorm:"not null" json:"order_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return
}

func (o *Order) Subtotal() decimal.Decimal {
	return calc.LineTotal(o.Price, o.Quantity)
}
