package models

import "time"

// PriceObservation is one row of the append-only price change log. A row is
// only written when the scraped price differs from the latest row for the
// product, so "latest price" is always the max-UpdatedAt row.
type PriceObservation struct {
	PriceID   uint `gorm:"primaryKey"`
	ProductID uint `gorm:"index"`
	UpdatedAt time.Time
	Price     float64
}

func (PriceObservation) TableName() string { return "prices" }

type PriceObservations []PriceObservation
