package lib

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/fiffu/pricewatch/config"
	"github.com/fiffu/pricewatch/lib/models"
	"github.com/fiffu/pricewatch/lib/scraper"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type trackProduct struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	scraper *scraper.Scraper
}

// TrackProduct handles a submission from the tracking form: scrape the page
// once to validate it, then upsert the user, the product (with its seed price
// observation), and the subscription. Resubmitting the same email and URL is
// idempotent.
func (svc *trackProduct) TrackProduct(ctx context.Context, firstName, lastName, emailAddr, pageURL string) (*models.Product, error) {
	page, quote, err := svc.scraper.InspectPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	user, err := svc.upsertUser(firstName, lastName, emailAddr)
	if err != nil {
		return nil, err
	}

	product, err := svc.upsertProduct(page, quote, pageURL)
	if err != nil {
		return nil, err
	}

	if err := svc.ensureSubscription(user.UserID, product.ProductID); err != nil {
		return nil, err
	}

	svc.log.Sugar().Infof("User %v (%s) now tracks product %v (%s)", user.UserID, user.Email, product.ProductID, product.ProductName)
	return product, nil
}

func (svc *trackProduct) upsertUser(firstName, lastName, emailAddr string) (*models.User, error) {
	user := models.User{}
	tx := svc.db.Where("email = ?", emailAddr).First(&user)
	if err := tx.Error; err == nil {
		return &user, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		Email:     emailAddr,
		FirstName: capitalize(firstName),
		LastName:  capitalize(lastName),
	}
	tx = svc.db.Create(&user)
	return &user, tx.Error
}

func (svc *trackProduct) upsertProduct(page *scraper.PageProduct, quote *scraper.Quote, pageURL string) (*models.Product, error) {
	product := models.Product{}
	tx := svc.db.Where("product_url = ?", pageURL).First(&product)
	if err := tx.Error; err == nil {
		return &product, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	product = models.Product{
		ProductName: page.Name,
		ProductURL:  pageURL,
		ImageURL:    page.ImageURL,
		WebsiteName: websiteName(pageURL),
	}
	product.ProductAvailability.Bool = quote.InStock
	product.ProductAvailability.Valid = true
	if err := svc.db.Create(&product).Error; err != nil {
		return nil, err
	}

	// Seed the price history so the next tick has something to compare to.
	seed := models.PriceObservation{
		ProductID: product.ProductID,
		UpdatedAt: time.Now().UTC(),
		Price:     quote.Price,
	}
	if err := svc.db.Create(&seed).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (svc *trackProduct) ensureSubscription(userID, productID uint) error {
	sub := models.Subscription{}
	tx := svc.db.Where("user_id = ? AND product_id = ?", userID, productID).First(&sub)
	if err := tx.Error; err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	sub = models.Subscription{
		UserID:    userID,
		ProductID: productID,
		Token:     uuid.NewString(),
	}
	return svc.db.Create(&sub).Error
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func websiteName(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if name, _, found := strings.Cut(host, "."); found {
		return name
	}
	return host
}
