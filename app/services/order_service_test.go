package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/cache"
	"github.com/Rakhulsr/go-ecommerce-api/app/events"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var checkout = PlaceOrderInput{Phone: "0812345678", Address: "1 Main St, Springfield"}

func TestPlaceOrderWithEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedUser(t, "a@shop.test", models.RoleCustomer)

	_, err := env.orders.PlaceOrder(context.Background(), customer.ID, checkout)
	if !errors.Is(err, apperrors.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if n := env.orderCount(t); n != 0 {
		t.Errorf("expected no orders, got %d", n)
	}
}

func TestPlaceOrderValidatesContactDetails(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedUser(t, "a@shop.test", models.RoleCustomer)

	_, err := env.orders.PlaceOrder(context.Background(), customer.ID, PlaceOrderInput{Phone: " ", Address: "1 Main St"})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Fields["phone"] == "" {
		t.Errorf("expected a phone field error, got %+v", appErr)
	}
}

func TestPlaceOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vendor := env.seedUser(t, "vendor@shop.test", models.RoleVendor)
	customer := env.seedUser(t, "a@shop.test", models.RoleCustomer)
	shoe := env.seedProduct(t, vendor.ID, 5, "42")
	shirt := env.seedProduct(t, vendor.ID, 5)

	if _, err := env.carts.AddToCart(ctx, customer.ID, shoe.ID, AddToCartInput{Quantity: 2, Size: "42"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := env.carts.AddToCart(ctx, customer.ID, shirt.ID, AddToCartInput{Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := env.carts.GetCart(ctx, customer.ID); err != nil {
		t.Fatalf("get cart failed: %v", err)
	}

	placed, err := env.orders.PlaceOrder(ctx, customer.ID, checkout)
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if len(placed) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(placed))
	}
	for _, o := range placed {
		if o.Status != models.OrderStatusPending {
			t.Errorf("expected PENDING, got %s", o.Status)
		}
		if o.VendorID != vendor.ID || o.UserID != customer.ID {
			t.Errorf("unexpected parties on order %+v", o)
		}
		if o.Phone != checkout.Phone || o.Address != checkout.Address {
			t.Errorf("contact details not recorded on order %s", o.ID)
		}
	}
	for _, o := range placed {
		if o.ProductID == shoe.ID && (o.Size != "42" || o.Quantity != 2) {
			t.Errorf("expected shoe order to carry size 42 x2, got %s x%d", o.Size, o.Quantity)
		}
	}

	want := decimal.RequireFromString("149.70")
	if total := OrderTotal(placed); !total.Equal(want) {
		t.Errorf("expected total %s, got %s", want, total)
	}

	if cart := env.cartOf(t, customer.ID); len(cart) != 0 {
		t.Errorf("expected empty cart, got %d lines", len(cart))
	}
	if env.mr.Exists(cache.CartKey(customer.ID)) {
		t.Error("expected cart cache to be dropped")
	}
	if got := env.stockOf(t, shoe.ID); got != 5 {
		t.Errorf("checkout must not reserve stock, got %d", got)
	}
	if n := env.publisher.count(); n != 2 {
		t.Errorf("expected 2 published events, got %d", n)
	}
	if env.publisher.batches != 1 {
		t.Errorf("expected the events to go out in one batch, got %d", env.publisher.batches)
	}
	if _, ok := env.publisher.events[0].(events.OrderPlacedEvent); !ok {
		t.Errorf("expected OrderPlacedEvent, got %T", env.publisher.events[0])
	}

	mine, err := env.orders.GetUserOrders(ctx, customer.ID)
	if err != nil || len(mine) != 2 {
		t.Errorf("expected 2 customer orders, got %d (%v)", len(mine), err)
	}
	theirs, err := env.orders.GetVendorOrders(ctx, vendor.ID)
	if err != nil || len(theirs) != 2 {
		t.Errorf("expected 2 vendor orders, got %d (%v)", len(theirs), err)
	}
}

func TestPlaceOrderIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vendor := env.seedUser(t, "vendor@shop.test", models.RoleVendor)
	customer := env.seedUser(t, "a@shop.test", models.RoleCustomer)
	product := env.seedProduct(t, vendor.ID, 5)

	if _, err := env.carts.AddToCart(ctx, customer.ID, product.ID, AddToCartInput{Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	injected := errors.New("disk full")
	err := env.db.Callback().Delete().Before("gorm:delete").Register("test:fail_cart_clear", func(tx *gorm.DB) {
		if tx.Statement.Table == "cart_items" {
			tx.AddError(injected)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	_, err = env.orders.PlaceOrder(ctx, customer.ID, checkout)
	if !errors.Is(err, injected) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if n := env.orderCount(t); n != 0 {
		t.Errorf("expected order rows to be rolled back, got %d", n)
	}
	cart := env.cartOf(t, customer.ID)
	if len(cart) != 1 || cart[0].Quantity != 2 {
		t.Errorf("expected cart to be untouched, got %+v", cart)
	}
	if n := env.publisher.count(); n != 0 {
		t.Errorf("expected no events for a failed checkout, got %d", n)
	}
}

func TestPlaceOrderRechecksStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vendor := env.seedUser(t, "vendor@shop.test", models.RoleVendor)
	customer := env.seedUser(t, "a@shop.test", models.RoleCustomer)
	product := env.seedProduct(t, vendor.ID, 5)

	if _, err := env.carts.AddToCart(ctx, customer.ID, product.ID, AddToCartInput{Quantity: 3}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	two := 2
	if _, err := env.catalog.UpdateProduct(ctx, vendor.ID, product.ID, UpdateProductInput{Stock: &two}, nil); err != nil {
		t.Fatalf("restock failed: %v", err)
	}

	_, err := env.orders.PlaceOrder(ctx, customer.ID, checkout)
	if !errors.Is(err, apperrors.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if n := env.orderCount(t); n != 0 {
		t.Errorf("expected no orders, got %d", n)
	}
	if cart := env.cartOf(t, customer.ID); len(cart) != 1 {
		t.Errorf("expected cart to be kept, got %d lines", len(cart))
	}
}

func TestDeliveryDecrementsStockOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vendor := env.seedUser(t, "vendor@shop.test", models.RoleVendor)
	customer := env.seedUser(t, "a@shop.test", models.RoleCustomer)
	product := env.seedProduct(t, vendor.ID, 5)

	order := env.placeDeliveredOrder(t, customer, vendor, product, 2)
	if got := env.stockOf(t, product.ID); got != 3 {
		t.Fatalf("expected stock 3 after delivery, got %d", got)
	}

	again, err := env.orders.UpdateOrderStatus(ctx, vendor.ID, order.ID, "delivered")
	if err != nil {
		t.Fatalf("repeated delivery should be a no-op, got %v", err)
	}
	if again.Status != models.OrderStatusDelivered {
		t.Errorf("expected DELIVERED, got %s", again.Status)
	}
	if got := env.stockOf(t, product.ID); got != 3 {
		t.Errorf("expected stock to stay 3, got %d", got)
	}
}

func TestDeliveryFloorsStockAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vendor := env.seedUser(t, "vendor@shop.test", models.RoleVendor)
	customer := env.seedUser(t, "a@shop.test", models.RoleCustomer)
	product := env.seedProduct(t, vendor.ID, 4)

	if _, err := env.carts.AddToCart(ctx, customer.ID, product.ID, AddToCartInput{Quantity: 3}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	placed, err := env.orders.PlaceOrder(ctx, customer.ID, checkout)
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	one := 1
	if _, err := env.catalog.UpdateProduct(ctx, vendor.ID, product.ID, UpdateProductInput{Stock: &one}, nil); err != nil {
		t.Fatalf("stock update failed: %v", err)
	}

	if _, err := env.orders.UpdateOrderStatus(ctx, vendor.ID, placed[0].ID, "DELIVERED"); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if got := env.stockOf(t, product.ID); got != 0 {
		t.Errorf("expected stock floored at 0, got %d", got)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vendor := env.seedUser(t, "vendor@shop.test", models.RoleVendor)
	customer := env.seedUser(t, "a@shop.test", models.RoleCustomer)
	stranger := env.seedUser(t, "b@shop.test", models.RoleCustomer)
	product := env.seedProduct(t, vendor.ID, 10)

	place := func() models.Order {
		t.Helper()
		if _, err := env.carts.AddToCart(ctx, customer.ID, product.ID, AddToCartInput{Quantity: 1}); err != nil {
			t.Fatalf("add failed: %v", err)
		}
		placed, err := env.orders.PlaceOrder(ctx, customer.ID, checkout)
		if err != nil {
			t.Fatalf("place order failed: %v", err)
		}
		return placed[0]
	}

	t.Run("buyer cannot deliver", func(t *testing.T) {
		order := place()
		_, err := env.orders.UpdateOrderStatus(ctx, customer.ID, order.ID, "DELIVERED")
		if !errors.Is(err, apperrors.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		order := place()
		_, err := env.orders.UpdateOrderStatus(ctx, stranger.ID, order.ID, "CANCELLED")
		if !errors.Is(err, apperrors.ErrNotOwner) {
			t.Errorf("expected ErrNotOwner, got %v", err)
		}
	})

	t.Run("buyer cancels then delivery is rejected", func(t *testing.T) {
		order := place()
		cancelled, err := env.orders.UpdateOrderStatus(ctx, customer.ID, order.ID, "cancelled")
		if err != nil {
			t.Fatalf("cancel failed: %v", err)
		}
		if cancelled.Status != models.OrderStatusCancelled {
			t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
		}

		before := env.stockOf(t, product.ID)
		_, err = env.orders.UpdateOrderStatus(ctx, vendor.ID, order.ID, "DELIVERED")
		if !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
		if after := env.stockOf(t, product.ID); after != before {
			t.Errorf("stock moved from %d to %d on a rejected transition", before, after)
		}
	})

	t.Run("delivered order cannot return to pending", func(t *testing.T) {
		order := place()
		if _, err := env.orders.UpdateOrderStatus(ctx, vendor.ID, order.ID, "DELIVERED"); err != nil {
			t.Fatalf("deliver failed: %v", err)
		}
		_, err := env.orders.UpdateOrderStatus(ctx, vendor.ID, order.ID, "PENDING")
		if !errors.Is(err, apperrors.ErrInvalidTransition) {
			t.Errorf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		order := place()
		_, err := env.orders.UpdateOrderStatus(ctx, vendor.ID, order.ID, "SHIPPED")
		if !errors.Is(err, apperrors.ErrInvalidStatus) {
			t.Errorf("expected ErrInvalidStatus, got %v", err)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		_, err := env.orders.UpdateOrderStatus(ctx, vendor.ID, "missing", "CANCELLED")
		if !errors.Is(err, apperrors.ErrOrderNotFound) {
			t.Errorf("expected ErrOrderNotFound, got %v", err)
		}
	})
}

func TestStockNeverNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	vendor := env.seedUser(t, "vendor@shop.test", models.RoleVendor)
	buyers := []*models.User{
		env.seedUser(t, "a@shop.test", models.RoleCustomer),
		env.seedUser(t, "b@shop.test", models.RoleCustomer),
		env.seedUser(t, "c@shop.test", models.RoleCustomer),
	}
	product := env.seedProduct(t, vendor.ID, 6)
	rng := rand.New(rand.NewSource(7))

	var pending []string
	for step := 0; step < 60; step++ {
		buyer := buyers[rng.Intn(len(buyers))]
		switch rng.Intn(4) {
		case 0, 1:
			_, err := env.carts.AddToCart(ctx, buyer.ID, product.ID, AddToCartInput{Quantity: 1 + rng.Intn(3)})
			if err != nil && !errors.Is(err, apperrors.ErrInsufficientStock) && !errors.Is(err, apperrors.ErrOutOfStock) {
				t.Fatalf("step %d: add failed: %v", step, err)
			}
		case 2:
			placed, err := env.orders.PlaceOrder(ctx, buyer.ID, checkout)
			if err != nil && !errors.Is(err, apperrors.ErrEmptyCart) && !errors.Is(err, apperrors.ErrInsufficientStock) {
				t.Fatalf("step %d: place failed: %v", step, err)
			}
			for _, o := range placed {
				pending = append(pending, o.ID)
			}
		case 3:
			if len(pending) == 0 {
				continue
			}
			id := pending[0]
			pending = pending[1:]
			if _, err := env.orders.UpdateOrderStatus(ctx, vendor.ID, id, "DELIVERED"); err != nil {
				t.Fatalf("step %d: deliver failed: %v", step, err)
			}
		}

		if stock := env.stockOf(t, product.ID); stock < 0 {
			t.Fatalf("step %d: stock went negative: %d", step, stock)
		}
	}
}
