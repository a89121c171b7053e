package seeders

import (
	"context"
	"testing"

	"github.com/Rakhulsr/go-ecommerce-api/app/db/fakers"
	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/Rakhulsr/go-ecommerce-api/app/testutil"
	"golang.org/x/crypto/bcrypt"
)

func TestDBSeed(t *testing.T) {
	db := testutil.NewTestDB(t)

	result, err := DBSeed(context.Background(), db, Options{Vendors: 2, ProductsPerVendor: 3, Customers: 4}, testutil.DiscardLogger())
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	var users, products int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Product{}).Count(&products)
	if users != 6 || products != 6 {
		t.Fatalf("expected 6 users and 6 products, got %d and %d", users, products)
	}

	for _, p := range result.Products {
		if p.Stock < 1 || !p.Price.IsPositive() || p.Slug == "" {
			t.Errorf("unexpected seeded product %+v", p)
		}
	}
	for _, v := range result.Vendors {
		if v.Role != models.RoleVendor {
			t.Errorf("expected vendor role, got %s", v.Role)
		}
	}

	var stored models.User
	if err := db.First(&stored, "id = ?", result.Customers[0].ID).Error; err != nil {
		t.Fatalf("load customer: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(fakers.DemoPassword)) != nil {
		t.Error("expected seeded password to be hashed demo password")
	}
}
