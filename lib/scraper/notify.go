package scraper

import (
	"context"
	"fmt"

	"github.com/fiffu/pricewatch/lib/models"
	"github.com/fiffu/pricewatch/senders/email"
)

type recipient struct {
	Email string
	Token string
}

func (s *Scraper) subscriberRecipients(productID uint) ([]recipient, error) {
	var recipients []recipient
	tx := s.db.Model(&models.Subscription{}).
		Select("users.email AS email, subscriptions.token AS token").
		Joins("JOIN users ON users.user_id = subscriptions.user_id").
		Where("subscriptions.product_id = ?", productID).
		Scan(&recipients)
	return recipients, tx.Error
}

// notifySubscribers sends one message per subscriber. An empty subscriber
// list is a no-op. A failed recipient is reported as a DeliveryError and does
// not stop delivery to the remaining recipients.
func (s *Scraper) notifySubscribers(ctx context.Context, product *models.Product, build func(unsubscribeURL string) email.Format) (int, []error) {
	recipients, err := s.subscriberRecipients(product.ProductID)
	if err != nil {
		return 0, []error{err}
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	sender, ok := s.senders["email"]
	if !ok {
		return 0, []error{fmt.Errorf("no email sender configured")}
	}

	sent := 0
	errs := make([]error, 0)
	for _, r := range recipients {
		format := build(s.unsubscribeURL(r.Token))
		id, err := sender.Send(ctx, format.Subject(), format.Body(), r.Email)
		if err != nil {
			errs = append(errs, &DeliveryError{Recipient: r.Email, Err: err})
			continue
		}
		sent++
		s.log.Sugar().Infow("Notified "+r.Email, "product_id", product.ProductID, "message_id", id)
	}
	return sent, errs
}

func (s *Scraper) notifyPriceDrop(ctx context.Context, product *models.Product, drop models.PriceDrop) (int, []error) {
	return s.notifySubscribers(ctx, product, func(unsubscribeURL string) email.Format {
		return &email.PriceDropFormat{
			Product:        product,
			Event:          drop,
			Currency:       s.cfg.Scrape.Currency,
			UnsubscribeURL: unsubscribeURL,
		}
	})
}

func (s *Scraper) notifyAvailability(ctx context.Context, product *models.Product, evt models.AvailabilityChange) (int, []error) {
	return s.notifySubscribers(ctx, product, func(unsubscribeURL string) email.Format {
		if evt.InStock {
			return &email.RestockFormat{Product: product, UnsubscribeURL: unsubscribeURL}
		}
		return &email.StockoutFormat{Product: product, UnsubscribeURL: unsubscribeURL}
	})
}

func (s *Scraper) logDeliveryErrors(errs []error) {
	for _, err := range errs {
		s.log.Sugar().Errorw("Failed to send update", "err", err)
	}
}

func (s *Scraper) unsubscribeURL(token string) string {
	return fmt.Sprintf("%s/unsubscribe/%s", s.cfg.ServerDNS, token)
}
