package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/auth"
	"github.com/Rakhulsr/go-ecommerce-api/app/cache"
	"github.com/Rakhulsr/go-ecommerce-api/app/events"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/repositories"
	"github.com/Rakhulsr/go-ecommerce-api/app/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu      sync.Mutex
	events  []any
	batches int
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event any) error {
	return p.PublishBatch(ctx, []events.Message{{Key: key, Event: event}})
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, msgs []events.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches++
	for _, m := range msgs {
		p.events = append(p.events, m.Event)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type testEnv struct {
	db    *gorm.DB
	mr    *miniredis.Miniredis
	cache *cache.RedisCache

	productRepo  repositories.ProductRepository
	cartItemRepo repositories.CartItemRepository
	orderRepo    repositories.OrderRepository
	reviewRepo   repositories.ReviewRepository
	wishlistRepo repositories.WishlistRepository
	userRepo     repositories.UserRepository

	catalog   *ProductService
	carts     *CartService
	orders    *OrderService
	reviews   *ReviewService
	wishlist  *WishlistService
	auth      *AuthService
	publisher *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	mr, client := testutil.NewTestRedis(t)
	env := buildTestEnv(t, db, client)
	env.mr = mr
	return env
}

func buildTestEnv(t *testing.T, db *gorm.DB, client *redis.Client) *testEnv {
	t.Helper()

	logger := testutil.DiscardLogger()
	c := cache.NewRedisCache(client, logger)
	tx := repositories.NewTransactor(db)

	env := &testEnv{
		db:           db,
		cache:        c,
		productRepo:  repositories.NewProductRepository(db),
		cartItemRepo: repositories.NewCartItemRepository(db),
		orderRepo:    repositories.NewOrderRepository(db),
		reviewRepo:   repositories.NewReviewRepository(db),
		wishlistRepo: repositories.NewWishlistRepository(db),
		userRepo:     repositories.NewUserRepository(db),
		publisher:    &recordingPublisher{},
	}

	env.catalog = NewProductService(tx, env.productRepo, env.reviewRepo, env.cartItemRepo, env.wishlistRepo, c, NewLocalMediaStore(t.TempDir()), logger)
	env.carts = NewCartService(tx, env.cartItemRepo, env.productRepo, c, logger)
	env.orders = NewOrderService(tx, env.orderRepo, env.cartItemRepo, env.productRepo, env.carts, env.catalog, env.publisher, logger)
	env.reviews = NewReviewService(env.reviewRepo, env.orderRepo, env.productRepo, env.catalog, logger)
	env.wishlist = NewWishlistService(env.wishlistRepo, env.productRepo, env.reviewRepo, c, logger)

	tokens := auth.NewTokenService(securecookie.GenerateRandomKey(64), securecookie.GenerateRandomKey(32), time.Hour)
	env.auth = NewAuthService(env.userRepo, tokens, logger)
	return env
}

func (e *testEnv) seedUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	user := &models.User{Username: email, Email: email, Password: "secret123", Role: role}
	if err := e.userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func (e *testEnv) seedProduct(t *testing.T, vendorID string, stock int, sizes ...string) *models.Product {
	t.Helper()
	product, err := e.catalog.CreateProduct(context.Background(), vendorID, CreateProductInput{
		Name:  "Trail Shoe",
		Price: decimal.RequireFromString("49.90"),
		Stock: stock,
		Sizes: sizes,
	}, nil)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return product
}

func (e *testEnv) stockOf(t *testing.T, productID string) int {
	t.Helper()
	product, err := e.productRepo.GetByID(context.Background(), nil, productID)
	if err != nil || product == nil {
		t.Fatalf("failed to load product %s: %v", productID, err)
	}
	return product.Stock
}

func (e *testEnv) cartOf(t *testing.T, userID string) []models.CartItem {
	t.Helper()
	items, err := e.cartItemRepo.GetByUserID(context.Background(), nil, userID)
	if err != nil {
		t.Fatalf("failed to load cart: %v", err)
	}
	return items
}

func (e *testEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&models.Order{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	return n
}

// placeDeliveredOrder walks a customer through checkout and delivery.
func (e *testEnv) placeDeliveredOrder(t *testing.T, customer, vendor *models.User, product *models.Product, quantity int) models.Order {
	t.Helper()
	ctx := context.Background()

	if _, err := e.carts.AddToCart(ctx, customer.ID, product.ID, AddToCartInput{Quantity: quantity}); err != nil {
		t.Fatalf("add to cart failed: %v", err)
	}
	placed, err := e.orders.PlaceOrder(ctx, customer.ID, PlaceOrderInput{Phone: "0812345678", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if _, err := e.orders.UpdateOrderStatus(ctx, vendor.ID, placed[0].ID, "DELIVERED"); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	return placed[0]
}
