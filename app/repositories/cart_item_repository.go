package repositories

import (
	"context"
	"errors"

	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"gorm.io/gorm"
)

type CartItemRepository interface {
	Create(ctx context.Context, tx *gorm.DB, item *models.CartItem) error
	Update(ctx context.Context, tx *gorm.DB, item *models.CartItem) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.CartItem, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]models.CartItem, error)
	GetByUserAndProduct(ctx context.Context, tx *gorm.DB, userID, productID string) ([]models.CartItem, error)
	Delete(ctx context.Context, userID, id string) (int64, error)
	DeleteByUserID(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
	DeleteByProductID(ctx context.Context, tx *gorm.DB, productID string) error
	UserIDsByProduct(ctx context.Context, tx *gorm.DB, productID string) ([]string, error)
}

type cartItemRepository struct {
	db *gorm.DB
}

func NewCartItemRepository(db *gorm.DB) CartItemRepository {
	return &cartItemRepository{db}
}

func (r *cartItemRepository) Create(ctx context.Context, tx *gorm.DB, item *models.CartItem) error {
	return translateError(conn(ctx, r.db, tx).Create(item).Error)
}

func (r *cartItemRepository) Update(ctx context.Context, tx *gorm.DB, item *models.CartItem) error {
	return translateError(conn(ctx, r.db, tx).Save(item).Error)
}

func (r *cartItemRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.CartItem, error) {
	var item models.CartItem
	if err := conn(ctx, r.db, tx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetByUserID returns the user's cart lines in the order they were added.
func (r *cartItemRepository) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := conn(ctx, r.db, tx).
		Where("user_id = ?", userID).
		Order("created_at").
		Order("id").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartItemRepository) GetByUserAndProduct(ctx context.Context, tx *gorm.DB, userID, productID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := conn(ctx, r.db, tx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Order("created_at").
		Find(&items).Error
	return items, err
}

func (r *cartItemRepository) Delete(ctx context.Context, userID, id string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

func (r *cartItemRepository) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	result := conn(ctx, r.db, tx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

func (r *cartItemRepository) DeleteByProductID(ctx context.Context, tx *gorm.DB, productID string) error {
	return conn(ctx, r.db, tx).Where("product_id = ?", productID).Delete(&models.CartItem{}).Error
}

func (r *cartItemRepository) UserIDsByProduct(ctx context.Context, tx *gorm.DB, productID string) ([]string, error) {
	var userIDs []string
	err := conn(ctx, r.db, tx).
		Model(&models.CartItem{}).
		Where("product_id = ?", productID).
		Distinct().
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}
