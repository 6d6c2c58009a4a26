package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/fiffu/pricewatch/config"
	"github.com/fiffu/pricewatch/lib"
	"github.com/fiffu/pricewatch/lib/models"
	"github.com/fiffu/pricewatch/lib/scraper"
	"github.com/fiffu/pricewatch/senders"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T, pricingAPI string) (http.Handler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.PriceObservation{},
		&models.Subscription{},
	))

	cfg := &config.Config{ServerDNS: "http://localhost:8080"}
	cfg.Scrape.Store = "COM"
	cfg.Scrape.Currency = "GBP"
	cfg.Scrape.Concurrency = 5
	cfg.Scrape.PollIntervalSecs = 3600
	cfg.Scrape.TimeoutSecs = 5
	cfg.Scrape.PricingAPI = pricingAPI

	lc := fxtest.NewLifecycle(t)
	log := zap.NewNop()
	scr := scraper.NewScraper(lc, cfg, db, log, http.DefaultTransport, senders.Registry{})
	svc := lib.NewService(lc, cfg, log, db, scr)
	return router(cfg, log, svc), db
}

func serveRetailer(t *testing.T, productID string, price float64, inStock bool) (page, pricing *httptest.Server) {
	t.Helper()
	page = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
			<script type="application/ld+json">{"productID": %q, "name": "Corduroy Jacket", "image": "https://images.example.com/jacket.jpg"}</script>
		</head></html>`, productID)
	}))
	t.Cleanup(page.Close)

	pricing = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"productPrice": {"current": {"value": %v}}, "variants": [{"isInStock": %v}]}]`, price, inStock)
	}))
	t.Cleanup(pricing.Close)
	return page, pricing
}

func postForm(router http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := get(router, "/health")
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestTrackProductEndpoint(t *testing.T) {
	page, pricing := serveRetailer(t, "123456", 50.00, true)
	router, db := newTestRouter(t, pricing.URL)

	rec := postForm(router, "/api/products", url.Values{
		"first_name": {"jane"},
		"last_name":  {"doe"},
		"email":      {"jane@example.com"},
		"url":        {page.URL},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var view ProductView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Corduroy Jacket", view.Name)
	assert.Equal(t, page.URL, view.URL)
	require.NotNil(t, view.Availability)
	assert.True(t, *view.Availability)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestTrackProductRequiresEmailAndURL(t *testing.T) {
	router, _ := newTestRouter(t, "")

	rec := postForm(router, "/api/products", url.Values{"url": {"https://www.asos.com/p/1"}})
	assert.Equal(t, 400, rec.Code)

	rec = postForm(router, "/api/products", url.Values{"email": {"jane@example.com"}})
	assert.Equal(t, 400, rec.Code)
}

func TestTrackProductBadPageIsUnprocessable(t *testing.T) {
	notAProduct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Homepage</title></head></html>`))
	}))
	t.Cleanup(notAProduct.Close)

	router, _ := newTestRouter(t, "")
	rec := postForm(router, "/api/products", url.Values{
		"email": {"jane@example.com"},
		"url":   {notAProduct.URL},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTrackProductUnreachablePageIsBadGateway(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := postForm(router, "/api/products", url.Values{
		"email": {"jane@example.com"},
		"url":   {"http://127.0.0.1:1/nothing-here"},
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestListProductsWithLatestPrice(t *testing.T) {
	router, db := newTestRouter(t, "")

	jacket := &models.Product{ProductName: "Jacket", ProductURL: "https://www.asos.com/p/1"}
	require.NoError(t, db.Create(jacket).Error)
	require.NoError(t, db.Create(&models.PriceObservation{
		ProductID: jacket.ProductID, UpdatedAt: time.Now().UTC().Add(-time.Hour), Price: 50,
	}).Error)
	require.NoError(t, db.Create(&models.PriceObservation{
		ProductID: jacket.ProductID, UpdatedAt: time.Now().UTC(), Price: 40,
	}).Error)

	rec := get(router, "/api/products")
	require.Equal(t, 200, rec.Code)

	var views []ProductView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.NotNil(t, views[0].LatestPrice)
	assert.Equal(t, 40.0, *views[0].LatestPrice)
}

func TestPriceHistoryEndpoint(t *testing.T) {
	router, db := newTestRouter(t, "")

	jacket := &models.Product{ProductName: "Jacket", ProductURL: "https://www.asos.com/p/1"}
	require.NoError(t, db.Create(jacket).Error)
	require.NoError(t, db.Create(&models.PriceObservation{
		ProductID: jacket.ProductID, UpdatedAt: time.Now().UTC().Add(-time.Hour), Price: 50,
	}).Error)
	require.NoError(t, db.Create(&models.PriceObservation{
		ProductID: jacket.ProductID, UpdatedAt: time.Now().UTC(), Price: 40,
	}).Error)

	rec := get(router, fmt.Sprintf("/api/products/%d/prices", jacket.ProductID))
	require.Equal(t, 200, rec.Code)

	var views []ObservationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, 40.0, views[0].Price)
	assert.Equal(t, 50.0, views[1].Price)
}

func TestListSubscriptionsEndpoint(t *testing.T) {
	router, db := newTestRouter(t, "")

	jacket := &models.Product{ProductName: "Jacket", ProductURL: "https://www.asos.com/p/1"}
	require.NoError(t, db.Create(jacket).Error)
	alice := &models.User{Email: "alice@example.com"}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(&models.Subscription{UserID: alice.UserID, ProductID: jacket.ProductID, Token: "tok"}).Error)

	rec := get(router, "/api/subscriptions?email=alice@example.com")
	require.Equal(t, 200, rec.Code)

	var views []ProductView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "Jacket", views[0].Name)

	rec = get(router, "/api/subscriptions")
	assert.Equal(t, 400, rec.Code)
}

func TestUnsubscribeEndpoint(t *testing.T) {
	router, db := newTestRouter(t, "")

	jacket := &models.Product{ProductName: "Jacket", ProductURL: "https://www.asos.com/p/1"}
	require.NoError(t, db.Create(jacket).Error)
	alice := &models.User{Email: "alice@example.com"}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(&models.Subscription{UserID: alice.UserID, ProductID: jacket.ProductID, Token: "tok"}).Error)

	rec := get(router, "/unsubscribe/tok")
	assert.Equal(t, 200, rec.Code)

	rec = get(router, "/unsubscribe/tok")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
