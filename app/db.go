package app

import (
	"github.com/fiffu/pricewatch/config"
	"github.com/fiffu/pricewatch/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func NewDatabase(lc fx.Lifecycle, log *zap.Logger, cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector
	if dsn := cfg.DatabaseDSN(); dsn != "" {
		dialector = postgres.Open(dsn)
	} else {
		log.Sugar().Info("DB_HOST not set, using local sqlite file")
		dialector = sqlite.Open("pricewatch.sqlite")
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Sugar().Panic("failed to connect database", "err", err)
	}
	log.Info("Database started")

	log.Info("Starting migrations")
	db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.PriceObservation{},
		&models.Subscription{},
	)
	return db
}
