package scraper

import "fmt"

// FetchError is a transport-level failure (connection refused, timeout,
// non-2xx). Transient: the product is skipped this tick and retried next.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError means the page no longer has the shape we scrape: the
// structured-data block is missing or unreadable. Unlike FetchError this is
// not transient; the URL is likely invalid or the retailer changed markup.
type ParseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.URL, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PricingUnavailable is returned when the stockprice endpoint has no entries
// for a product id. Treated like FetchError by the poller.
type PricingUnavailable struct {
	ProductID string
}

func (e *PricingUnavailable) Error() string {
	return fmt.Sprintf("no stockprice entries for product id %s", e.ProductID)
}

// DeliveryError is a per-recipient email failure. One recipient failing never
// aborts delivery to the rest.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
