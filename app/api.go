package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fiffu/pricewatch/config"
	"github.com/fiffu/pricewatch/lib"
	"github.com/fiffu/pricewatch/lib/models"
	"github.com/fiffu/pricewatch/lib/scraper"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewHTTPServer(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *lib.Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("pricewatch", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/products", func(r chi.Router) {
			r.Post("/", ctrl.trackProduct)
			r.Get("/", ctrl.listProducts)
			r.Get("/{product_id}/prices", ctrl.priceHistory)
		})
		r.Get("/subscriptions", ctrl.listSubscriptions)
	})
	r.Get("/unsubscribe/{token}", ctrl.unsubscribe)

	return r
}

type controller struct {
	log *zap.Logger
	svc *lib.Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Error("Request failed", "error", err)
		return
	} else {
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

// rejectPipeline maps the scrape error taxonomy onto statuses: an unreadable
// page means the submitted URL is bad (client error), a transport failure
// means the retailer is unreachable right now (bad gateway).
func (ctrl *controller) rejectPipeline(w http.ResponseWriter, err error) {
	var parseErr *scraper.ParseError
	var pricingErr *scraper.PricingUnavailable
	var fetchErr *scraper.FetchError

	switch {
	case errors.As(err, &parseErr), errors.As(err, &pricingErr):
		ctrl.reject(w, http.StatusUnprocessableEntity, err)
	case errors.As(err, &fetchErr):
		ctrl.reject(w, http.StatusBadGateway, err)
	default:
		ctrl.reject(w, http.StatusInternalServerError, err)
	}
}

func (ctrl *controller) trackProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	firstName := r.FormValue("first_name")
	lastName := r.FormValue("last_name")
	email := r.FormValue("email")
	url := r.FormValue("url")

	if email == "" {
		ctrl.reject(w, 400, errors.New("Email is required"))
		return
	}
	if url == "" {
		ctrl.reject(w, 400, errors.New("Product URL is required"))
		return
	}

	product, err := ctrl.svc.TrackProduct(ctx, firstName, lastName, email, url)
	if err != nil {
		ctrl.rejectPipeline(w, err)
		return
	}
	ctrl.resolve(w, http.StatusAccepted, ProductView{}.From(product))
}

func (ctrl *controller) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := ctrl.svc.ListProducts(ctx)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	prices, err := ctrl.svc.LatestPrices(ctx)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}

	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = ProductView{}.From(&products[i]).WithLatestPrice(prices)
	}
	ctrl.resolve(w, 200, views)
}

func (ctrl *controller) priceHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := chi.URLParam(r, "product_id")

	observations, err := ctrl.svc.PriceHistory(ctx, parseInt(productID))
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, 200, FromMany[models.PriceObservation, ObservationView](observations))
}

func (ctrl *controller) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	email := r.URL.Query().Get("email")
	if email == "" {
		ctrl.reject(w, 400, errors.New("Email is required"))
		return
	}

	products, err := ctrl.svc.ProductsForEmail(ctx, email)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}

	views := make([]ProductView, len(products))
	for i := range products {
		views[i] = ProductView{}.From(&products[i])
	}
	ctrl.resolve(w, 200, views)
}

func (ctrl *controller) unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	err := ctrl.svc.Unsubscribe(ctx, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ctrl.reject(w, http.StatusNotFound, errors.New("no such subscription"))
		return
	} else if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"unsubscribed": true})
}

func parseInt(s string) uint {
	u, _ := strconv.ParseUint(s, 10, 64)
	return uint(u)
}
