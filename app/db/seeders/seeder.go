package seeders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Rakhulsr/go-ecommerce-api/app/db/fakers"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/repositories"
	"gorm.io/gorm"
)

type Options struct {
	Vendors           int
	ProductsPerVendor int
	Customers         int
}

type Result struct {
	Vendors   []*models.User
	Customers []*models.User
	Products  []*models.Product
}

// DBSeed fills the store with demo vendors, their products and customers.
// Every account uses fakers.DemoPassword.
func DBSeed(ctx context.Context, db *gorm.DB, opts Options, logger *slog.Logger) (*Result, error) {
	users := repositories.NewUserRepository(db)
	products := repositories.NewProductRepository(db)
	result := &Result{}

	for i := 0; i < opts.Vendors; i++ {
		vendor := fakers.UserFaker(models.RoleVendor)
		if err := users.Create(ctx, vendor); err != nil {
			return nil, fmt.Errorf("failed to seed vendor: %w", err)
		}
		result.Vendors = append(result.Vendors, vendor)

		for j := 0; j < opts.ProductsPerVendor; j++ {
			product := fakers.ProductFaker(vendor.ID)
			if err := products.Create(ctx, product); err != nil {
				return nil, fmt.Errorf("failed to seed product: %w", err)
			}
			result.Products = append(result.Products, product)
		}
	}

	for i := 0; i < opts.Customers; i++ {
		customer := fakers.UserFaker(models.RoleCustomer)
		if err := users.Create(ctx, customer); err != nil {
			return nil, fmt.Errorf("failed to seed customer: %w", err)
		}
		result.Customers = append(result.Customers, customer)
	}

	logger.Info("database seeded",
		"vendors", len(result.Vendors),
		"products", len(result.Products),
		"customers", len(result.Customers),
	)
	return result, nil
}
