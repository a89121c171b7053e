package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          string          `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	VendorID    string          `gorm:"size:36;not null;index" json:"vendor_id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Slug        string          `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"price"`
	ImagePath   string          `gorm:"size:255" json:"image_path"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	Sizes       SizeSet         `gorm:"type:varchar(255)" json:"sizes"`
	Revision    int64           `gorm:"not null;default:0" json:"revision"`

	AverageRating float64 `gorm:"-" json:"average_rating"`
	ReviewCount   int64   `gorm:"-" json:"review_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// MatchSize resolves a requested size to the spelling the product offers.
// The empty size is always accepted.
func (p *Product) MatchSize(size string) (string, bool) {
	size = strings.TrimSpace(size)
	if size == "" {
		return "", true
	}
	for _, s := range p.Sizes {
		if strings.EqualFold(s, size) {
			return s, true
		}
	}
	return "", false
}

// SizeSet is stored as a comma separated column.
type SizeSet []string

func ParseSizeSet(raw string) SizeSet {
	var sizes SizeSet
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			sizes = append(sizes, s)
		}
	}
	return sizes
}

func (s SizeSet) Value() (driver.Value, error) {
	return strings.Join(s, ","), nil
}

func (s *SizeSet) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*s = nil
	case []byte:
		*s = ParseSizeSet(string(v))
	case string:
		*s = ParseSizeSet(v)
	default:
		return fmt.Errorf("unsupported size set value %T", value)
	}
	return nil
}
