package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rakhulsr/go-ecommerce-api/app/apperrors"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/repositories"
)

type AddReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewService struct {
	reviews  repositories.ReviewRepository
	orders   repositories.OrderRepository
	products repositories.ProductRepository
	catalog  *ProductService
	logger   *slog.Logger
}

func NewReviewService(reviews repositories.ReviewRepository, orders repositories.OrderRepository, products repositories.ProductRepository, catalog *ProductService, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		orders:   orders,
		products: products,
		catalog:  catalog,
		logger:   logger,
	}
}

// AddReview records the single review a user may leave for a product they
// received.
func (s *ReviewService) AddReview(ctx context.Context, userID, productID string, in AddReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperrors.ErrInvalidRating
	}

	product, err := s.products.GetByID(ctx, nil, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apperrors.ErrProductNotFound
	}

	delivered, err := s.orders.ExistsDelivered(ctx, userID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to check purchase history: %w", err)
	}
	if !delivered {
		return nil, apperrors.ErrNotEligibleToReview
	}

	exists, err := s.reviews.Exists(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrAlreadyReviewed
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperrors.ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.catalog.InvalidateProduct(ctx, productID)
	s.logger.Info("review added", "product_id", productID, "user_id", userID, "rating", in.Rating)
	return review, nil
}

func (s *ReviewService) CanReview(ctx context.Context, userID, productID string) (bool, error) {
	delivered, err := s.orders.ExistsDelivered(ctx, userID, productID)
	if err != nil || !delivered {
		return false, err
	}
	exists, err := s.reviews.Exists(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *ReviewService) GetProductReviews(ctx context.Context, productID string) ([]models.Review, error) {
	reviews, err := s.reviews.FindByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}
