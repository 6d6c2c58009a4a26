package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Env            string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	ServerDNS      string `env:"SERVER_DNS" envDefault:"http://localhost:8080"`
	BasicAuthCreds string `env:"BASIC_AUTH_CREDS"`

	Database struct {
		Host     string `env:"DB_HOST"`
		Port     string `env:"DB_PORT" envDefault:"5432"`
		User     string `env:"DB_USER"`
		Password string `env:"DB_PASSWORD"`
		Name     string `env:"DB_NAME"`
		SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	}

	Mailgun struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"SENDER_EMAIL_ADDRESS"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"10"`
	}

	Scrape struct {
		UserAgent        string `env:"USER_AGENT" envDefault:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"`
		PricingAPI       string `env:"PRICING_API" envDefault:"https://www.asos.com/api/product/catalogue/v3"`
		Store            string `env:"STORE_ID" envDefault:"COM"`
		Currency         string `env:"STORE_CURRENCY" envDefault:"GBP"`
		PollIntervalSecs int    `env:"POLL_INTERVAL_SECS" envDefault:"180"`
		Concurrency      int    `env:"SCRAPE_CONCURRENCY" envDefault:"5"`
		TimeoutSecs      int    `env:"SCRAPE_TIMEOUT_SECS" envDefault:"5"`
	}

	Retention struct {
		CronSpec   string `env:"PRUNE_CRON" envDefault:"0 4 * * *"`
		MaxAgeDays int    `env:"PRICE_RETENTION_DAYS" envDefault:"90"`
	}

	log   *zap.Logger
	creds map[string]string
}

func NewConfig(lc fx.Lifecycle, log *zap.Logger) *Config {
	cfg := &Config{log: log}
	env.Parse(cfg)

	creds, err := cfg.parseCreds()
	if err != nil {
		if cfg.Env == "development" {
			cfg.log.Sugar().Infof("%s (auth will be disabled in development env)", err)
			creds = nil
		} else {
			cfg.log.Sugar().Panic(err)
		}
	}
	cfg.creds = creds

	return cfg
}

func (cfg *Config) GetCreds() map[string]string {
	return cfg.creds
}

// DatabaseDSN builds the postgres connection string. Empty when DB_HOST is
// unset, which makes the app fall back to a local sqlite file.
func (cfg *Config) DatabaseDSN() string {
	db := cfg.Database
	if db.Host == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode,
	)
}

func (cfg *Config) parseCreds() (map[string]string, error) {
	if cfg.BasicAuthCreds == "" {
		return nil, nil
	}

	result := make(map[string]string)
	for _, cred := range strings.Split(cfg.BasicAuthCreds, ",") {
		userPass := strings.Split(cred, ":")
		if len(userPass) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each credential should be delimited by a colon -- user1:pass1,user2:pass2", cred)
		}

		user, pass := userPass[0], userPass[1]
		result[strings.Trim(user, " ")] = strings.Trim(pass, " ")
	}

	return result, nil
}
