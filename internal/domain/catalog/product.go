package catalog

import "time"

// ProductCategories is the closed set of valid product categories.
var ProductCategories = []string{"sticker", "print", "postcard", "stationery", "accessory", "other"}

type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null;uniqueIndex:idx_products_name" json:"name"`
	Price       int    `gorm:"not null" json:"price"`
	Description string `json:"description"`
	Category    string `gorm:"type:varchar(50);not null" json:"category"`

	// Whether the product is publicly listed in the shop.
	Sell bool `json:"sell"`

	// Ordered asset references. Owned exclusively by this record; mutated only
	// through the asset lifecycle coordinator.
	Images []string `gorm:"serializer:json" json:"images"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func IsProductCategory(s string) bool {
	for _, c := range ProductCategories {
		if c == s {
			return true
		}
	}
	return false
}
