package main

import (
	"net/http"
	"os"
	"time"

	"github.com/fiffu/pricewatch/app"
	"github.com/fiffu/pricewatch/config"
	"github.com/fiffu/pricewatch/lib"
	"github.com/fiffu/pricewatch/lib/scraper"
	"github.com/fiffu/pricewatch/senders"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	godotenv.Load()

	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewSenderRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),
		fx.Provide(scraper.NewScraper),
		fx.Provide(lib.NewService),
		fx.Provide(lib.NewJanitor),
		fx.Provide(app.NewHTTPServer),

		fx.Invoke(func(*http.Server) {}),
		fx.Invoke(func(*scraper.Scraper) {}),
		fx.Invoke(func(*lib.Janitor) {}),
	).Run()
}
