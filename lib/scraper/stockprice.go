package scraper

import (
	"context"

	"github.com/carlmjohnson/requests"
)

// Quote is the resolved price and availability for one product id.
type Quote struct {
	Price   float64
	InStock bool
}

type stockPriceEntry struct {
	ProductPrice struct {
		Current struct {
			Value float64 `json:"value"`
		} `json:"current"`
	} `json:"productPrice"`
	Variants []struct {
		IsInStock bool `json:"isInStock"`
	} `json:"variants"`
}

// resolveStockPrice queries the pricing endpoint for a retailer product id.
// A product counts as in stock if any size variant is purchasable.
func (s *Scraper) resolveStockPrice(ctx context.Context, productID string) (*Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	var entries []stockPriceEntry
	err := requests.URL(s.cfg.Scrape.PricingAPI + "/stockprice").
		Param("productIds", productID).
		Param("store", s.cfg.Scrape.Store).
		Param("currency", s.cfg.Scrape.Currency).
		Transport(s.transport).
		ToJSON(&entries).
		Fetch(ctx)
	if err != nil {
		return nil, &FetchError{URL: s.cfg.Scrape.PricingAPI, Err: err}
	}
	if len(entries) == 0 {
		return nil, &PricingUnavailable{ProductID: productID}
	}

	quote := &Quote{Price: entries[0].ProductPrice.Current.Value}
	for _, variant := range entries[0].Variants {
		if variant.IsInStock {
			quote.InStock = true
			break
		}
	}
	return quote, nil
}

// InspectPage runs the fetch and resolve steps for one URL. Used both by the
// recurring poll and by the tracking service when a URL is first submitted.
func (s *Scraper) InspectPage(ctx context.Context, pageURL string) (*PageProduct, *Quote, error) {
	page, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, nil, err
	}
	quote, err := s.resolveStockPrice(ctx, page.ProductID)
	if err != nil {
		return nil, nil, err
	}
	return page, quote, nil
}
