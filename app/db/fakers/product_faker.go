package fakers

import (
	"math/rand"

	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

var sizeCharts = []models.SizeSet{
	nil,
	{"S", "M", "L", "XL"},
	{"38", "39", "40", "41", "42", "43"},
}

var imagePaths = []string{
	"/images/products/ss.jpg",
	"/images/products/ss1.jpg",
	"/images/products/ss2.jpg",
}

func ProductFaker(vendorID string) *models.Product {
	name := faker.Name()
	id := uuid.NewString()

	return &models.Product{
		ID:          id,
		VendorID:    vendorID,
		Name:        name,
		Slug:        slug.Make(name + "-" + id[:8]),
		Description: faker.Paragraph(),
		Price:       fakePrice(),
		ImagePath:   imagePaths[rand.Intn(len(imagePaths))],
		Stock:       rand.Intn(20) + 1,
		Sizes:       sizeCharts[rand.Intn(len(sizeCharts))],
	}
}

// fakePrice returns a price between 1.00 and 500.00 with cents.
func fakePrice() decimal.Decimal {
	cents := rand.Int63n(49_900) + 100
	return decimal.New(cents, -2)
}
