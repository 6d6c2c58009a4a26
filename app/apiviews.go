package app

import (
	"time"

	"github.com/fiffu/pricewatch/lib/models"
)

type ProductView struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	ImageURL     string   `json:"image_url"`
	WebsiteName  string   `json:"website_name"`
	Availability *bool    `json:"availability"`
	LatestPrice  *float64 `json:"latest_price,omitempty"`
}

func (view ProductView) From(entity *models.Product) ProductView {
	var availability *bool
	if entity.ProductAvailability.Valid {
		b := entity.ProductAvailability.Bool
		availability = &b
	}
	return ProductView{
		ID:           entity.ProductID,
		Name:         entity.ProductName,
		URL:          entity.ProductURL,
		ImageURL:     entity.ImageURL,
		WebsiteName:  entity.WebsiteName,
		Availability: availability,
	}
}

func (view ProductView) WithLatestPrice(prices map[uint]float64) ProductView {
	if price, ok := prices[view.ID]; ok {
		view.LatestPrice = &price
	}
	return view
}

type ObservationView struct {
	ProductID uint    `json:"product_id"`
	Price     float64 `json:"price"`
	UpdatedAt string  `json:"updated_at"`
}

func (view ObservationView) From(entity models.PriceObservation) ObservationView {
	return ObservationView{
		ProductID: entity.ProductID,
		Price:     entity.Price,
		UpdatedAt: entity.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}
