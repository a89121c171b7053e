package repositories

import (
	"context"

	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByProductID(ctx context.Context, productID string) ([]models.Review, error)
	Exists(ctx context.Context, userID, productID string) (bool, error)
	RatingSummary(ctx context.Context, productID string) (models.RatingSummary, error)
	SummariesByProductIDs(ctx context.Context, productIDs []string) (map[string]models.RatingSummary, error)
	DeleteByProductID(ctx context.Context, tx *gorm.DB, productID string) error
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	return translateError(r.db.WithContext(ctx).Create(review).Error)
}

func (r *reviewRepository) FindByProductID(ctx context.Context, productID string) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	return reviews, err
}

func (r *reviewRepository) Exists(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

// RatingSummary returns a zero average and count for a product without reviews.
func (r *reviewRepository) RatingSummary(ctx context.Context, productID string) (models.RatingSummary, error) {
	summary := models.RatingSummary{ProductID: productID}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average_rating, COUNT(*) AS review_count").
		Where("product_id = ?", productID).
		Scan(&summary).Error
	summary.ProductID = productID
	return summary, err
}

func (r *reviewRepository) SummariesByProductIDs(ctx context.Context, productIDs []string) (map[string]models.RatingSummary, error) {
	summaries := make(map[string]models.RatingSummary, len(productIDs))
	if len(productIDs) == 0 {
		return summaries, nil
	}

	var rows []models.RatingSummary
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("product_id, COALESCE(AVG(rating), 0) AS average_rating, COUNT(*) AS review_count").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		summaries[row.ProductID] = row
	}
	return summaries, nil
}

func (r *reviewRepository) DeleteByProductID(ctx context.Context, tx *gorm.DB, productID string) error {
	return conn(ctx, r.db, tx).Where("product_id = ?", productID).Delete(&models.Review{}).Error
}
