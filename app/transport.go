package app

import (
	"net/http"

	"github.com/fiffu/pricewatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewTransport returns the shared RoundTripper used for page fetches, the
// pricing API and mailgun. The retailer rejects requests without a browser
// user-agent, so it is stamped on every request here.
func NewTransport(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config) http.RoundTripper {
	return &transport{
		base:      http.DefaultTransport,
		userAgent: cfg.Scrape.UserAgent,
	}
}

type transport struct {
	base      http.RoundTripper
	userAgent string
}

func (tpt *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", tpt.userAgent)
	}
	return tpt.base.RoundTrip(req)
}
