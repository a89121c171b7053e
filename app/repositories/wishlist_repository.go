package repositories

import (
	"context"
	"errors"

	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"gorm.io/gorm"
)

type WishlistRepository interface {
	Create(ctx context.Context, entry *models.Wishlist) error
	FindByUserID(ctx context.Context, userID string) ([]models.Wishlist, error)
	Find(ctx context.Context, userID, productID string) (*models.Wishlist, error)
	Delete(ctx context.Context, userID, productID string) (int64, error)
	DeleteByProductID(ctx context.Context, tx *gorm.DB, productID string) error
	UserIDsByProduct(ctx context.Context, tx *gorm.DB, productID string) ([]string, error)
}

type wishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepository{db}
}

func (r *wishlistRepository) Create(ctx context.Context, entry *models.Wishlist) error {
	return translateError(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *wishlistRepository) FindByUserID(ctx context.Context, userID string) ([]models.Wishlist, error) {
	var entries []models.Wishlist
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("added_at DESC").Find(&entries).Error
	return entries, err
}

func (r *wishlistRepository) Find(ctx context.Context, userID, productID string) (*models.Wishlist, error) {
	var entry models.Wishlist
	err := r.db.WithContext(ctx).Where("user_id = ? AND product_id = ?", userID, productID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *wishlistRepository) Delete(ctx context.Context, userID, productID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.Wishlist{})
	return result.RowsAffected, result.Error
}

func (r *wishlistRepository) DeleteByProductID(ctx context.Context, tx *gorm.DB, productID string) error {
	return conn(ctx, r.db, tx).Where("product_id = ?", productID).Delete(&models.Wishlist{}).Error
}

func (r *wishlistRepository) UserIDsByProduct(ctx context.Context, tx *gorm.DB, productID string) ([]string, error) {
	var userIDs []string
	err := conn(ctx, r.db, tx).
		Model(&models.Wishlist{}).
		Where("product_id = ?", productID).
		Distinct().
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}
