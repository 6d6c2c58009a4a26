package models

// PriceDrop is emitted when an in-stock product's price falls below the
// latest recorded observation.
type PriceDrop struct {
	Previous float64
	Current  float64
}

// PercentageDiscount is unrounded; presentation code decides precision.
func (e PriceDrop) PercentageDiscount() float64 {
	return (e.Previous - e.Current) / e.Previous * 100
}

// AvailabilityChange is emitted when a product's stored stock flag flips.
type AvailabilityChange struct {
	InStock bool
}
