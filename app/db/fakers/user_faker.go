package fakers

import (
	"strings"

	"github.com/Rakhulsr/go-ecommerce-api/app/models"
	"github.com/go-faker/faker/v4"
)

// DemoPassword is the plain password of every seeded account.
const DemoPassword = "password123"

func UserFaker(role string) *models.User {
	return &models.User{
		Username: faker.Username(),
		Email:    strings.ToLower(faker.Email()),
		Password: DemoPassword,
		Role:     role,
	}
}
