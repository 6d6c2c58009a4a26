package models

import "database/sql"

// Product is a tracked retailer page. ProductAvailability is NULL until the
// first scrape resolves stock for the page.
type Product struct {
	ProductID           uint   `gorm:"primaryKey"`
	ProductName         string
	ProductURL          string `gorm:"uniqueIndex"`
	ImageURL            string
	WebsiteName         string
	ProductAvailability sql.NullBool

	Subscriptions []Subscription `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string { return "products" }

type Products []Product
