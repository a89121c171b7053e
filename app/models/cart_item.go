package models

import (
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/utils/calc"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartItem is one line of a user's cart. Price is the unit price captured
// when the line was first added.
type CartItem struct {
	ID        string          `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	UserID    string          `gorm:"size:36;not null;uniqueIndex:idx_cart_user_product_size" json:"user_id"`
	ProductID string          `gorm:"size:36;not null;uniqueIndex:idx_cart_user_product_size;index" json:"product_id"`
	Size      string          `gorm:"size:50;not null;default:'';uniqueIndex:idx_cart_user_product_size" json:"size"`
	Price     decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (ci *CartItem) BeforeCreate(tx *gorm.DB) (err error) {
	if ci.ID == "" {
		ci.ID = uuid.New().String()
	}
	return
}

func (ci *CartItem) Subtotal() decimal.Decimal {
	return calc.LineTotal(ci.Price, ci.Quantity)
}
