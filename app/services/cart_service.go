package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/cache"
	"github.com/Rakhulsr/go-ecommerce-api/app/metrics"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/repositories"
	"gorm.io/gorm"
)

type AddToCartInput struct {
	Quantity int    `json:"quantity"`
	Size     string `json:"size"`
}

type UpdateCartInput struct {
	Quantity *int    `json:"quantity"`
	Size     *string `json:"size"`
}

// CartService keeps cart lines in the store and mirrors each user's cart
// into a cache hash. The store always wins: a failed cache write drops the
// hash so the next read rebuilds it.
type CartService struct {
	db        repositories.Transactor
	cartItems repositories.CartItemRepository
	products  repositories.ProductRepository
	cache     cache.Cache
	logger    *slog.Logger
}

func NewCartService(db repositories.Transactor, cartItems repositories.CartItemRepository, products repositories.ProductRepository, c cache.Cache, logger *slog.Logger) *CartService {
	return &CartService{
		db:        db,
		cartItems: cartItems,
		products:  products,
		cache:     c,
		logger:    logger,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) ([]models.CartItem, error) {
	key := cache.CartKey(userID)

	fields, err := s.cache.HashGetAll(ctx, key)
	if err == nil && len(fields) > 0 {
		if items, ok := s.decodeCart(ctx, key, fields); ok {
			cache.RecordHit(key)
			return items, nil
		}
	}
	cache.RecordMiss(key)

	// Taken before the load so a write committed meanwhile wins over it.
	gen, genErr := s.cache.Generation(ctx, key)

	items, err := s.cartItems.GetByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if items == nil {
		items = []models.CartItem{}
	}
	if genErr == nil {
		s.populate(ctx, userID, items, gen)
	}
	return items, nil
}

// AddToCart puts quantity units of a product in the user's cart, merging
// into an existing line with the same size. The check covers every line the
// user already holds for the product.
func (s *CartService) AddToCart(ctx context.Context, userID, productID string, in AddToCartInput) (*models.CartItem, error) {
	quantity := in.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}

	var saved models.CartItem
	err := s.db.WithinTransaction(ctx, func(tx *gorm.DB) error {
		product, err := s.products.GetByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return apperrors.ErrProductNotFound
		}
		if product.Stock == 0 {
			return apperrors.ErrOutOfStock.Withf("%s is out of stock", product.Name)
		}
		size, ok := product.MatchSize(in.Size)
		if !ok {
			return apperrors.ErrInvalidSize.Withf("size %q is not offered for %s", in.Size, product.Name)
		}

		lines, err := s.cartItems.GetByUserAndProduct(ctx, tx, userID, productID)
		if err != nil {
			return err
		}

		inCart := 0
		var existing *models.CartItem
		for i := range lines {
			inCart += lines[i].Quantity
			if lines[i].Size == size {
				existing = &lines[i]
			}
		}
		if inCart+quantity > product.Stock {
			return insufficientStock(product, inCart, quantity)
		}

		if existing != nil {
			existing.Quantity += quantity
			if err := s.cartItems.Update(ctx, tx, existing); err != nil {
				return err
			}
			saved = *existing
		} else {
			item := &models.CartItem{
				UserID:    userID,
				ProductID: productID,
				Size:      size,
				Price:     product.Price,
				Quantity:  quantity,
			}
			if err := s.cartItems.Create(ctx, tx, item); err != nil {
				return err
			}
			saved = *item
		}

		return s.assertRevision(ctx, tx, product, "add_to_cart")
	})
	if err != nil {
		return nil, translateCartError(err)
	}

	s.writeThrough(ctx, userID, &saved)
	return &saved, nil
}

func (s *CartService) UpdateCart(ctx context.Context, userID, itemID string, in UpdateCartInput) (*models.CartItem, error) {
	if in.Quantity != nil && *in.Quantity < 1 {
		return nil, apperrors.ErrInvalidQuantity
	}

	var saved models.CartItem
	err := s.db.WithinTransaction(ctx, func(tx *gorm.DB) error {
		item, err := s.cartItems.GetByID(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if item == nil || item.UserID != userID {
			return apperrors.ErrCartItemNotFound
		}

		product, err := s.products.GetByID(ctx, tx, item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return apperrors.ErrProductNotFound
		}

		if in.Quantity != nil {
			item.Quantity = *in.Quantity
		}
		if in.Size != nil {
			size, ok := product.MatchSize(*in.Size)
			if !ok {
				return apperrors.ErrInvalidSize.Withf("size %q is not offered for %s", *in.Size, product.Name)
			}
			item.Size = size
		}

		lines, err := s.cartItems.GetByUserAndProduct(ctx, tx, userID, item.ProductID)
		if err != nil {
			return err
		}
		others := 0
		for _, line := range lines {
			if line.ID == item.ID {
				continue
			}
			if line.Size == item.Size {
				return apperrors.ErrDuplicateCartEntry
			}
			others += line.Quantity
		}
		if others+item.Quantity > product.Stock {
			return insufficientStock(product, others, item.Quantity)
		}

		if err := s.cartItems.Update(ctx, tx, item); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return apperrors.ErrDuplicateCartEntry
			}
			return err
		}
		saved = *item

		return s.assertRevision(ctx, tx, product, "update_cart")
	})
	if err != nil {
		return nil, translateCartError(err)
	}

	s.writeThrough(ctx, userID, &saved)
	return &saved, nil
}

// RemoveFromCart is idempotent: removing a missing line succeeds.
func (s *CartService) RemoveFromCart(ctx context.Context, userID, itemID string) error {
	removed, err := s.cartItems.Delete(ctx, userID, itemID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if removed == 0 {
		return nil
	}

	key := cache.CartKey(userID)
	if err := s.cache.HashDelete(ctx, key, itemID); err != nil {
		s.dropCache(ctx, key)
	}
	return nil
}

// ClearCart deletes every line inside the caller's transaction. Call
// InvalidateCart once it commits.
func (s *CartService) ClearCart(ctx context.Context, tx *gorm.DB, userID string) error {
	if _, err := s.cartItems.DeleteByUserID(ctx, tx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *CartService) InvalidateCart(ctx context.Context, userID string) {
	s.dropCache(ctx, cache.CartKey(userID))
}

func (s *CartService) assertRevision(ctx context.Context, tx *gorm.DB, product *models.Product, op string) error {
	if err := s.products.AssertRevision(ctx, tx, product.ID, product.Revision); err != nil {
		if errors.Is(err, repositories.ErrStaleRevision) {
			metrics.StockConflicts.WithLabelValues(op).Inc()
			return apperrors.ErrStockConflict.Wrap(err)
		}
		return err
	}
	return nil
}

// populate rebuilds the cached hash from a store read taken at gen. It
// leaves the cache alone when any cart write happened since then.
func (s *CartService) populate(ctx context.Context, userID string, items []models.CartItem, gen int64) {
	key := cache.CartKey(userID)
	fields := make(map[string]string, len(items))
	for i := range items {
		data, err := json.Marshal(&items[i])
		if err != nil {
			s.dropCache(ctx, key)
			return
		}
		fields[items[i].ID] = string(data)
	}
	installed, err := s.cache.HashReplaceIfGeneration(ctx, key, fields, cache.CartTTL, gen)
	if err != nil {
		s.dropCache(ctx, key)
		return
	}
	if !installed {
		s.logger.Debug("cart changed during load, not caching", "key", key)
	}
}

// writeThrough updates one line of an already cached cart. An absent hash
// is left absent so it is rebuilt whole from the store on the next read.
func (s *CartService) writeThrough(ctx context.Context, userID string, item *models.CartItem) {
	key := cache.CartKey(userID)
	data, err := json.Marshal(item)
	if err != nil {
		s.dropCache(ctx, key)
		return
	}
	if _, err := s.cache.HashSetIfExists(ctx, key, item.ID, string(data), cache.CartTTL); err != nil {
		s.dropCache(ctx, key)
	}
}

func (s *CartService) decodeCart(ctx context.Context, key string, fields map[string]string) ([]models.CartItem, bool) {
	items := make([]models.CartItem, 0, len(fields))
	for id, raw := range fields {
		var item models.CartItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil || item.ID != id {
			s.logger.Warn("dropping undecodable cart cache", "key", key, "field", id)
			s.dropCache(ctx, key)
			return nil, false
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, true
}

func (s *CartService) dropCache(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Error("failed to drop cart cache", "key", key, "error", err)
	}
}

func insufficientStock(product *models.Product, inCart, requested int) error {
	return apperrors.ErrInsufficientStock.Withf(
		"only %d of %s available, %d already in cart, %d requested",
		product.Stock, product.Name, inCart, requested,
	)
}

func translateCartError(err error) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return apperrors.ErrCartConflict.Wrap(err)
	}
	return err
}
