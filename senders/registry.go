package senders

import (
	"context"
	"net/http"

	"github.com/fiffu/pricewatch/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Sender delivers one composed message to one recipient, returning the
// provider's delivery identifier.
type Sender interface {
	Send(ctx context.Context, subject, body, recipient string) (string, error)
}

type Registry map[string]Sender

func NewSenderRegistry(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config, transport http.RoundTripper) Registry {
	base := base{log, cfg, transport}
	return Registry{
		"email": &mailgunSender{base},
	}
}

type base struct {
	log       *zap.Logger
	cfg       *config.Config
	transport http.RoundTripper
}
