package scraper

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fiffu/pricewatch/lib/models"
	"gorm.io/gorm"
)

// checkProduct runs one product's tick: fetch the page, resolve price/stock,
// then compare against the store and notify on tracked changes.
func (s *Scraper) checkProduct(ctx context.Context, product *models.Product) (*tickMetrics, error) {
	_, quote, err := s.InspectPage(ctx, product.ProductURL)
	if err != nil {
		s.log.Sugar().Errorw("error scraping product", "product_id", product.ProductID, "err", err)
		return &tickMetrics{errored: 1}, err
	}
	return s.applyQuote(ctx, product, quote)
}

// applyQuote is the change detector. The product's lock is held across the
// whole read-compare-write sequence so overlapping ticks cannot double-insert
// observations or double-send emails.
func (s *Scraper) applyQuote(ctx context.Context, product *models.Product, quote *Quote) (*tickMetrics, error) {
	unlock := s.locks.Lock(product.ProductID)
	defer unlock()

	m := &tickMetrics{}
	now := time.Now().UTC()

	// Re-read the stored flags under the lock; the batch row may be stale.
	stored := models.Product{}
	tx := s.db.Where("product_id = ?", product.ProductID).First(&stored)
	if err := tx.Error; err != nil {
		m.errored = 1
		return m, err
	}

	wrote := false

	availabilityEvent, changed, err := s.applyAvailability(&stored, quote.InStock)
	if err != nil {
		m.errored = 1
		return m, err
	}
	wrote = wrote || changed
	if availabilityEvent != nil {
		sent, errs := s.notifyAvailability(ctx, &stored, *availabilityEvent)
		m.notified += sent
		s.logDeliveryErrors(errs)
	}

	// Out-of-stock price readings are not trustworthy; only record prices for
	// purchasable products.
	if quote.InStock {
		drop, inserted, err := s.recordPrice(stored.ProductID, quote.Price, now)
		if err != nil {
			m.errored = 1
			return m, err
		}
		wrote = wrote || inserted
		if drop != nil {
			sent, errs := s.notifyPriceDrop(ctx, &stored, *drop)
			m.notified += sent
			s.logDeliveryErrors(errs)
		}
	}

	if wrote {
		m.updated = 1
	} else {
		m.unchanged = 1
	}
	return m, nil
}

// applyAvailability persists a flipped stock flag. No event is emitted for
// the very first reading (stored flag still NULL); the flag is just seeded.
func (s *Scraper) applyAvailability(product *models.Product, inStock bool) (*models.AvailabilityChange, bool, error) {
	prev := product.ProductAvailability
	if prev.Valid && prev.Bool == inStock {
		return nil, false, nil
	}

	tx := s.db.Model(&models.Product{}).
		Where("product_id = ?", product.ProductID).
		Update("product_availability", inStock)
	if err := tx.Error; err != nil {
		return nil, false, err
	}
	product.ProductAvailability = sql.NullBool{Bool: inStock, Valid: true}

	if !prev.Valid {
		return nil, true, nil
	}
	return &models.AvailabilityChange{InStock: inStock}, true, nil
}

// recordPrice compares the resolved price against the latest observation.
// Observations are only written on change so the table stays a compact change
// log; rises are recorded but only drops return an event.
func (s *Scraper) recordPrice(productID uint, price float64, now time.Time) (*models.PriceDrop, bool, error) {
	var prev models.PriceObservation
	tx := s.db.Where("product_id = ?", productID).Order("updated_at desc").First(&prev)

	if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		seed := models.PriceObservation{ProductID: productID, UpdatedAt: now, Price: price}
		return nil, true, s.db.Create(&seed).Error
	}
	if err := tx.Error; err != nil {
		return nil, false, err
	}

	if price == prev.Price {
		return nil, false, nil
	}

	obs := models.PriceObservation{ProductID: productID, UpdatedAt: now, Price: price}
	if err := s.db.Create(&obs).Error; err != nil {
		return nil, false, err
	}
	if price < prev.Price {
		return &models.PriceDrop{Previous: prev.Price, Current: price}, true, nil
	}
	return nil, true, nil
}
