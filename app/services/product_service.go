package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/cache"
	"github.com/Rakhulsr/go-ecommerce-api/app/helpers"
	"github.com/Rakhulsr/go-ecommerce-api/app/metrics"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/repositories"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Sizes       []string        `json:"sizes"`
}

// UpdateProductInput changes only the fields that are set.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Sizes       *[]string
}

type ProductService struct {
	db        repositories.Transactor
	products  repositories.ProductRepository
	reviews   repositories.ReviewRepository
	cartItems repositories.CartItemRepository
	wishlists repositories.WishlistRepository
	cache     cache.Cache
	media     MediaStore
	logger    *slog.Logger
}

func NewProductService(
	db repositories.Transactor,
	products repositories.ProductRepository,
	reviews repositories.ReviewRepository,
	cartItems repositories.CartItemRepository,
	wishlists repositories.WishlistRepository,
	c cache.Cache,
	media MediaStore,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		db:        db,
		products:  products,
		reviews:   reviews,
		cartItems: cartItems,
		wishlists: wishlists,
		cache:     c,
		media:     media,
		logger:    logger,
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, vendorID string, in CreateProductInput, image *Upload) (*models.Product, error) {
	if err := helpers.Validate(in); err != nil {
		return nil, err
	}
	if !in.Price.IsPositive() {
		return nil, apperrors.Validation("invalid input", map[string]string{"price": "price must be greater than 0"})
	}

	product := &models.Product{
		ID:          uuid.NewString(),
		VendorID:    vendorID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Sizes:       cleanSizes(in.Sizes),
	}
	product.Slug = helpers.GenerateSlug(product.Name, product.ID)

	if image != nil {
		path, err := s.media.Save(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("failed to store product image: %w", err)
		}
		product.ImagePath = path
	}

	if err := s.products.Create(ctx, product); err != nil {
		s.discardImage(ctx, product.ImagePath)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidate(ctx, cache.ProductListKey)
	s.logger.Info("product created", "product_id", product.ID, "vendor_id", vendorID)
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, vendorID, productID string, in UpdateProductInput, image *Upload) (*models.Product, error) {
	product, err := s.ownedProduct(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			fields["name"] = "name must not be empty"
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			fields["price"] = "price must be greater than 0"
		}
		product.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			fields["stock"] = "stock must be at least 0"
		}
		product.Stock = *in.Stock
	}
	if in.Sizes != nil {
		product.Sizes = cleanSizes(*in.Sizes)
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("invalid input", fields)
	}

	var savedImage string
	if image != nil {
		path, err := s.media.Save(ctx, image)
		if err != nil {
			return nil, fmt.Errorf("failed to store product image: %w", err)
		}
		product.ImagePath = path
		savedImage = path
	}

	if err := s.products.Update(ctx, nil, product); err != nil {
		s.discardImage(ctx, savedImage)
		if errors.Is(err, repositories.ErrStaleRevision) {
			metrics.StockConflicts.WithLabelValues("update_product").Inc()
			return nil, apperrors.ErrStockConflict.Wrap(err)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.InvalidateProduct(ctx, product.ID)
	return product, nil
}

// DeleteProduct removes the product with its cart lines, wishlist entries
// and reviews. Orders keep their snapshots.
func (s *ProductService) DeleteProduct(ctx context.Context, vendorID, productID string) error {
	if _, err := s.ownedProduct(ctx, vendorID, productID); err != nil {
		return err
	}

	var cartUsers, wishlistUsers []string
	err := s.db.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		if cartUsers, err = s.cartItems.UserIDsByProduct(ctx, tx, productID); err != nil {
			return err
		}
		if wishlistUsers, err = s.wishlists.UserIDsByProduct(ctx, tx, productID); err != nil {
			return err
		}
		if err := s.cartItems.DeleteByProductID(ctx, tx, productID); err != nil {
			return err
		}
		if err := s.wishlists.DeleteByProductID(ctx, tx, productID); err != nil {
			return err
		}
		if err := s.reviews.DeleteByProductID(ctx, tx, productID); err != nil {
			return err
		}
		return s.products.Delete(ctx, tx, productID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete product %s: %w", productID, err)
	}

	keys := []string{cache.ProductListKey, cache.ProductKey(productID)}
	for _, userID := range cartUsers {
		keys = append(keys, cache.CartKey(userID))
	}
	for _, userID := range wishlistUsers {
		keys = append(keys, cache.WishlistKey(userID))
	}
	s.invalidate(ctx, keys...)

	s.logger.Info("product deleted", "product_id", productID, "carts_touched", len(cartUsers))
	return nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	return cache.ReadThrough(ctx, s.cache, cache.ProductKey(productID), cache.ProductTTL, func(ctx context.Context) (*models.Product, error) {
		product, err := s.products.GetByID(ctx, nil, productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, apperrors.ErrProductNotFound
		}
		summary, err := s.reviews.RatingSummary(ctx, productID)
		if err != nil {
			return nil, err
		}
		product.AverageRating = summary.AverageRating
		product.ReviewCount = summary.ReviewCount
		return product, nil
	})
}

func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return cache.ReadThrough(ctx, s.cache, cache.ProductListKey, cache.ProductListTTL, func(ctx context.Context) ([]models.Product, error) {
		products, err := s.products.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		return s.withRatings(ctx, products)
	})
}

func (s *ProductService) ListVendorProducts(ctx context.Context, vendorID string) ([]models.Product, error) {
	products, err := s.products.GetByVendor(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	return s.withRatings(ctx, products)
}

// RatingSummary returns (0, 0) for a product without reviews.
func (s *ProductService) RatingSummary(ctx context.Context, productID string) (float64, int64, error) {
	summary, err := s.reviews.RatingSummary(ctx, productID)
	if err != nil {
		return 0, 0, err
	}
	return summary.AverageRating, summary.ReviewCount, nil
}

// DecrementStockOnDelivery takes the ordered quantity out of stock, floored
// at zero. It is a no-op when the order was already delivered or the
// product no longer exists.
func (s *ProductService) DecrementStockOnDelivery(ctx context.Context, tx *gorm.DB, order *models.Order, from models.OrderStatus) error {
	if from == models.OrderStatusDelivered {
		return nil
	}

	product, err := s.products.GetByID(ctx, tx, order.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		s.logger.Warn("delivered order references a deleted product", "order_id", order.ID, "product_id", order.ProductID)
		return nil
	}

	newStock := product.Stock - order.Quantity
	if newStock < 0 {
		newStock = 0
	}

	if err := s.products.UpdateStock(ctx, tx, product.ID, product.Revision, newStock); err != nil {
		if errors.Is(err, repositories.ErrStaleRevision) {
			metrics.StockConflicts.WithLabelValues("deliver").Inc()
			return apperrors.ErrStockConflict.Wrap(err)
		}
		return err
	}
	return nil
}

// InvalidateProduct drops the product list and the given single product entries.
func (s *ProductService) InvalidateProduct(ctx context.Context, productIDs ...string) {
	keys := []string{cache.ProductListKey}
	for _, id := range productIDs {
		keys = append(keys, cache.ProductKey(id))
	}
	s.invalidate(ctx, keys...)
}

func (s *ProductService) ownedProduct(ctx context.Context, vendorID, productID string) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperrors.ErrProductNotFound
	}
	if product.VendorID != vendorID {
		return nil, apperrors.ErrNotOwner.Withf("product %s belongs to another vendor", productID)
	}
	return product, nil
}

func (s *ProductService) withRatings(ctx context.Context, products []models.Product) ([]models.Product, error) {
	if products == nil {
		return []models.Product{}, nil
	}

	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	summaries, err := s.reviews.SummariesByProductIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if summary, ok := summaries[products[i].ID]; ok {
			products[i].AverageRating = summary.AverageRating
			products[i].ReviewCount = summary.ReviewCount
		}
	}
	return products, nil
}

// discardImage removes an upload whose product row was never written.
func (s *ProductService) discardImage(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := s.media.Remove(ctx, path); err != nil {
		s.logger.Warn("failed to remove orphaned product image", "path", path, "error", err)
	}
}

func (s *ProductService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("failed to invalidate product cache", "keys", keys, "error", err)
	}
}

func cleanSizes(sizes []string) models.SizeSet {
	seen := make(map[string]bool, len(sizes))
	var out models.SizeSet
	for _, size := range sizes {
		size = strings.TrimSpace(size)
		key := strings.ToUpper(size)
		if size == "" || strings.Contains(size, ",") || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, size)
	}
	return out
}
