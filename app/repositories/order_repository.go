package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"gorm.io/gorm"
)

type OrderRepository interface {
	BulkCreate(ctx context.Context, tx *gorm.DB, orders []models.Order) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Order, error)
	FindByVendorID(ctx context.Context, vendorID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, from, to models.OrderStatus) error
	ExistsDelivered(ctx context.Context, userID, productID string) (bool, error)
}

type gormOrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &gormOrderRepository{db: db}
}

func (r *gormOrderRepository) BulkCreate(ctx context.Context, tx *gorm.DB, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return conn(ctx, r.db, tx).Create(&orders).Error
}

func (r *gormOrderRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Order, error) {
	var order models.Order

	err := conn(ctx, r.db, tx).First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *gormOrderRepository) FindByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order

	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("order_date DESC").Order("id").Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *gormOrderRepository) FindByVendorID(ctx context.Context, vendorID string) ([]models.Order, error) {
	var orders []models.Order

	err := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Order("order_date DESC").Order("id").Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves the order from one status to another. It reports
// ErrStatusChanged when the order no longer has the expected status.
func (r *gormOrderRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, from, to models.OrderStatus) error {
	result := conn(ctx, r.db, tx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

func (r *gormOrderRepository) ExistsDelivered(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ? AND product_id = ? AND status = ?", userID, productID, models.OrderStatusDelivered).
		Count(&count).Error
	return count > 0, err
}
