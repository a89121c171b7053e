package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/cache"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/repositories"
)

type WishlistItem struct {
	models.Wishlist
	Product *models.Product `json:"product"`
}

// WishlistService caches each user's wishlist as a set of product ids. A
// negative membership answer from the cache is confirmed against the store.
type WishlistService struct {
	wishlists repositories.WishlistRepository
	products  repositories.ProductRepository
	reviews   repositories.ReviewRepository
	cache     cache.Cache
	logger    *slog.Logger
}

func NewWishlistService(wishlists repositories.WishlistRepository, products repositories.ProductRepository, reviews repositories.ReviewRepository, c cache.Cache, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		wishlists: wishlists,
		products:  products,
		reviews:   reviews,
		cache:     c,
		logger:    logger,
	}
}

func (s *WishlistService) GetWishlist(ctx context.Context, userID string) ([]WishlistItem, error) {
	key := cache.WishlistKey(userID)
	gen, genErr := s.cache.Generation(ctx, key)

	entries, err := s.wishlists.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}

	productIDs := make([]string, len(entries))
	for i := range entries {
		productIDs[i] = entries[i].ProductID
	}

	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	summaries, err := s.reviews.SummariesByProductIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		p := &products[i]
		if summary, ok := summaries[p.ID]; ok {
			p.AverageRating = summary.AverageRating
			p.ReviewCount = summary.ReviewCount
		}
		byID[p.ID] = p
	}

	items := make([]WishlistItem, 0, len(entries))
	for _, entry := range entries {
		items = append(items, WishlistItem{Wishlist: entry, Product: byID[entry.ProductID]})
	}

	if genErr != nil {
		return items, nil
	}
	if exists, err := s.cache.Exists(ctx, key); err == nil && !exists {
		if _, err := s.cache.MemberReplaceIfGeneration(ctx, key, productIDs, cache.WishlistTTL, gen); err != nil {
			s.dropCache(ctx, key)
		}
	}
	return items, nil
}

func (s *WishlistService) AddToWishlist(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	product, err := s.products.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperrors.ErrProductNotFound
	}

	existing, err := s.wishlists.Find(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrAlreadyInWishlist
	}

	entry := &models.Wishlist{UserID: userID, ProductID: productID}
	if err := s.wishlists.Create(ctx, entry); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrAlreadyInWishlist
		}
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}

	key := cache.WishlistKey(userID)
	if err := s.cache.MemberAdd(ctx, key, productID, cache.WishlistTTL); err != nil {
		s.dropCache(ctx, key)
	}
	return entry, nil
}

// RemoveFromWishlist is idempotent.
func (s *WishlistService) RemoveFromWishlist(ctx context.Context, userID, productID string) error {
	if _, err := s.wishlists.Delete(ctx, userID, productID); err != nil {
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}

	key := cache.WishlistKey(userID)
	if err := s.cache.MemberRemove(ctx, key, productID); err != nil {
		s.dropCache(ctx, key)
	}
	return nil
}

func (s *WishlistService) IsInWishlist(ctx context.Context, userID, productID string) (bool, error) {
	key := cache.WishlistKey(userID)
	if ok, err := s.cache.MemberTest(ctx, key, productID); err == nil && ok {
		cache.RecordHit(key)
		return true, nil
	}
	cache.RecordMiss(key)

	entry, err := s.wishlists.Find(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}
	if err := s.cache.MemberAdd(ctx, key, productID, cache.WishlistTTL); err != nil {
		s.dropCache(ctx, key)
	}
	return true, nil
}

func (s *WishlistService) dropCache(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Error("failed to drop wishlist cache", "key", key, "error", err)
	}
}
