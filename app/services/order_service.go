package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/events"
	"github.com/Rakhulsr/go-ecommerce-api/app/helpers"
	"github.com/Rakhulsr/go-ecommerce-api/app/metrics"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/repositories"
	"github.com/Rakhulsr/go-ecommerce-api/app/utils/calc"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PlaceOrderInput struct {
	Phone   string `json:"phone" validate:"required,min=6,max=20"`
	Address string `json:"address" validate:"required,max=500"`
}

type OrderService struct {
	db        repositories.Transactor
	orders    repositories.OrderRepository
	cartItems repositories.CartItemRepository
	products  repositories.ProductRepository
	carts     *CartService
	catalog   *ProductService
	publisher events.Publisher
	logger    *slog.Logger
}

func NewOrderService(
	db repositories.Transactor,
	orders repositories.OrderRepository,
	cartItems repositories.CartItemRepository,
	products repositories.ProductRepository,
	carts *CartService,
	catalog *ProductService,
	publisher events.Publisher,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		db:        db,
		orders:    orders,
		cartItems: cartItems,
		products:  products,
		carts:     carts,
		catalog:   catalog,
		publisher: publisher,
		logger:    logger,
	}
}

// PlaceOrder turns every line of the user's cart into a PENDING order and
// empties the cart in one transaction. The cart is read from the store, not
// the cache. Stock is checked but not reserved; it is taken on delivery.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) ([]models.Order, error) {
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	if err := helpers.Validate(in); err != nil {
		return nil, err
	}

	var placed []models.Order
	err := s.db.WithinTransaction(ctx, func(tx *gorm.DB) error {
		items, err := s.cartItems.GetByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperrors.ErrEmptyCart
		}

		requested := make(map[string]int)
		var productOrder []string
		for _, item := range items {
			if _, seen := requested[item.ProductID]; !seen {
				productOrder = append(productOrder, item.ProductID)
			}
			requested[item.ProductID] += item.Quantity
		}

		products := make(map[string]*models.Product, len(productOrder))
		for _, productID := range productOrder {
			product, err := s.products.GetByID(ctx, tx, productID)
			if err != nil {
				return err
			}
			if product == nil {
				return apperrors.ErrProductNotFound.Withf("a product in your cart is no longer available")
			}
			if requested[productID] > product.Stock {
				return apperrors.ErrInsufficientStock.Withf(
					"insufficient stock for %s: available %d, requested %d",
					product.Name, product.Stock, requested[productID],
				)
			}
			if err := s.products.AssertRevision(ctx, tx, product.ID, product.Revision); err != nil {
				if errors.Is(err, repositories.ErrStaleRevision) {
					metrics.StockConflicts.WithLabelValues("place_order").Inc()
					return apperrors.ErrStockConflict.Wrap(err)
				}
				return err
			}
			products[productID] = product
		}

		now := time.Now()
		orders := make([]models.Order, 0, len(items))
		for _, item := range items {
			product := products[item.ProductID]
			orders = append(orders, models.Order{
				UserID:      userID,
				ProductID:   item.ProductID,
				VendorID:    product.VendorID,
				ProductName: product.Name,
				Price:       item.Price,
				Quantity:    item.Quantity,
				Size:        item.Size,
				Phone:       in.Phone,
				Address:     in.Address,
				Status:      models.OrderStatusPending,
				OrderDate:   now,
			})
		}

		if err := s.orders.BulkCreate(ctx, tx, orders); err != nil {
			return fmt.Errorf("failed to create orders: %w", err)
		}
		if err := s.carts.ClearCart(ctx, tx, userID); err != nil {
			return err
		}

		placed = orders
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.carts.InvalidateCart(ctx, userID)
	metrics.OrdersPlaced.Add(float64(len(placed)))
	msgs := make([]events.Message, 0, len(placed))
	for i := range placed {
		o := &placed[i]
		msgs = append(msgs, events.Message{Key: o.ID, Event: events.OrderPlacedEvent{
			Type:      events.TypeOrderPlaced,
			OrderID:   o.ID,
			UserID:    o.UserID,
			VendorID:  o.VendorID,
			ProductID: o.ProductID,
			Quantity:  o.Quantity,
			Amount:    o.Subtotal(),
			PlacedAt:  o.OrderDate,
		}})
	}
	if err := s.publisher.PublishBatch(ctx, msgs); err != nil {
		s.logger.Error("failed to publish order events", "user_id", userID, "count", len(msgs), "error", err)
	}

	s.logger.Info("orders placed", "user_id", userID, "count", len(placed))
	return placed, nil
}

func (s *OrderService) GetUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orders.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *OrderService) GetVendorOrders(ctx context.Context, vendorID string) ([]models.Order, error) {
	orders, err := s.orders.FindByVendorID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// UpdateOrderStatus applies a status change requested by actorID. The
// vendor of the order may make any allowed transition; the customer who
// placed it may only cancel. Requesting the current status is a no-op.
// Stock is decremented exactly once, on the first move into DELIVERED.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actorID, orderID, rawStatus string) (*models.Order, error) {
	status, ok := models.ParseOrderStatus(rawStatus)
	if !ok {
		return nil, apperrors.ErrInvalidStatus.Withf("unknown order status %q", rawStatus)
	}

	var (
		order   *models.Order
		from    models.OrderStatus
		changed bool
	)
	err := s.db.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.orders.GetByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return apperrors.ErrOrderNotFound
		}

		isVendor := order.VendorID == actorID
		isBuyer := order.UserID == actorID
		if !isVendor && !(isBuyer && status == models.OrderStatusCancelled) {
			return apperrors.ErrNotOwner.Withf("you cannot set order %s to %s", orderID, status)
		}

		if order.Status == status {
			return nil
		}
		if !order.Status.CanTransitionTo(status) {
			return apperrors.ErrInvalidTransition.Withf("cannot move order from %s to %s", order.Status, status)
		}

		from = order.Status
		if err := s.orders.UpdateStatus(ctx, tx, order.ID, from, status); err != nil {
			if errors.Is(err, repositories.ErrStatusChanged) {
				return apperrors.ErrOrderConflict.Wrap(err)
			}
			return err
		}
		if status == models.OrderStatusDelivered {
			if err := s.catalog.DecrementStockOnDelivery(ctx, tx, order, from); err != nil {
				return err
			}
		}

		order.Status = status
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	if status == models.OrderStatusDelivered {
		s.catalog.InvalidateProduct(ctx, order.ProductID)
	}
	metrics.OrderTransitions.WithLabelValues(string(status)).Inc()
	s.publish(ctx, order.ID, events.OrderStatusChangedEvent{
		Type:      events.TypeOrderStatusChanged,
		OrderID:   order.ID,
		ProductID: order.ProductID,
		From:      string(from),
		To:        string(status),
		ChangedBy: actorID,
		ChangedAt: time.Now(),
	})
	return order, nil
}

// OrderTotal sums the subtotals of orders placed together.
func OrderTotal(orders []models.Order) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(orders))
	for i := range orders {
		amounts[i] = orders[i].Subtotal()
	}
	return calc.Sum(amounts...)
}

func (s *OrderService) publish(ctx context.Context, key string, event any) {
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Error("failed to publish order event", "order_id", key, "error", err)
	}
}
