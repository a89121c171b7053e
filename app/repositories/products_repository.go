package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByVendor(ctx context.Context, vendorID string) ([]models.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	Update(ctx context.Context, tx *gorm.DB, product *models.Product) error
	UpdateStock(ctx context.Context, tx *gorm.DB, id string, revision int64, stock int) error
	AssertRevision(ctx context.Context, tx *gorm.DB, id string, revision int64) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db}
}

func (p *productRepository) Create(ctx context.Context, product *models.Product) error {
	return translateError(p.db.WithContext(ctx).Create(product).Error)
}

func (p *productRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, p.db, tx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (p *productRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := p.db.WithContext(ctx).Order("created_at DESC").Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (p *productRepository) GetByVendor(ctx context.Context, vendorID string) ([]models.Product, error) {
	var products []models.Product
	err := p.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at DESC").
		Find(&products).Error
	return products, err
}

func (p *productRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := p.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

// Update writes the mutable product fields guarded on product.Revision and
// bumps the revision on success.
func (p *productRepository) Update(ctx context.Context, tx *gorm.DB, product *models.Product) error {
	result := conn(ctx, p.db, tx).
		Model(&models.Product{}).
		Where("id = ? AND revision = ?", product.ID, product.Revision).
		Updates(map[string]interface{}{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"image_path":  product.ImagePath,
			"stock":       product.Stock,
			"sizes":       product.Sizes,
			"revision":    gorm.Expr("revision + 1"),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleRevision
	}
	product.Revision++
	return nil
}

func (p *productRepository) UpdateStock(ctx context.Context, tx *gorm.DB, id string, revision int64, stock int) error {
	result := conn(ctx, p.db, tx).
		Model(&models.Product{}).
		Where("id = ? AND revision = ?", id, revision).
		Updates(map[string]interface{}{
			"stock":      stock,
			"revision":   gorm.Expr("revision + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRevision
	}
	return nil
}

// AssertRevision fails with ErrStaleRevision unless the product still has
// the given revision. Inside a transaction it also holds the row lock until
// commit. Needs clientFoundRows on MySQL since the write changes nothing.
func (p *productRepository) AssertRevision(ctx context.Context, tx *gorm.DB, id string, revision int64) error {
	result := conn(ctx, p.db, tx).
		Model(&models.Product{}).
		Where("id = ? AND revision = ?", id, revision).
		UpdateColumn("revision", gorm.Expr("revision"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleRevision
	}
	return nil
}

func (p *productRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return conn(ctx, p.db, tx).Where("id = ?", id).Delete(&models.Product{}).Error
}
