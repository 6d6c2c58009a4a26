package lib

import (
	"context"

	"github.com/fiffu/pricewatch/config"
	"github.com/fiffu/pricewatch/lib/models"
	"github.com/fiffu/pricewatch/lib/scraper"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB

	*trackProduct
	*unsubscribe
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB, scraper *scraper.Scraper) *Service {
	return &Service{
		cfg, log, db,
		&trackProduct{cfg, log, db, scraper},
		&unsubscribe{log, db},
	}
}

func (svc *Service) ListProducts(ctx context.Context) (models.Products, error) {
	var products models.Products
	tx := svc.db.Order("product_id").Find(&products)
	return products, tx.Error
}

// LatestPrices maps product id to the most recent observation's price.
func (svc *Service) LatestPrices(ctx context.Context) (map[uint]float64, error) {
	var latest models.PriceObservations
	tx := svc.db.Raw(`
		SELECT * FROM prices p
		WHERE NOT EXISTS (
			SELECT 1 FROM prices q
			WHERE q.product_id = p.product_id AND q.updated_at > p.updated_at
		)`).Scan(&latest)
	if err := tx.Error; err != nil {
		return nil, err
	}

	result := make(map[uint]float64, len(latest))
	for _, obs := range latest {
		result[obs.ProductID] = obs.Price
	}
	return result, nil
}

func (svc *Service) PriceHistory(ctx context.Context, productID uint) (models.PriceObservations, error) {
	var observations models.PriceObservations
	tx := svc.db.
		Where("product_id = ?", productID).
		Order("updated_at desc").
		Find(&observations)
	return observations, tx.Error
}

// ProductsForEmail lists the products a user is subscribed to.
func (svc *Service) ProductsForEmail(ctx context.Context, emailAddr string) (models.Products, error) {
	var products models.Products
	tx := svc.db.
		Joins("JOIN subscriptions ON subscriptions.product_id = products.product_id").
		Joins("JOIN users ON users.user_id = subscriptions.user_id").
		Where("users.email = ?", emailAddr).
		Find(&products)
	return products, tx.Error
}
