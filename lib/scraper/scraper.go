// Package scraper drives the recurring price/availability pipeline: fetch
// each tracked product's page, resolve price and stock, detect changes
// against the store, and email subscribers.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fiffu/pricewatch/config"
	"github.com/fiffu/pricewatch/lib/models"
	"github.com/fiffu/pricewatch/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewScraper(lc fx.Lifecycle, cfg *config.Config, db *gorm.DB, log *zap.Logger, transport http.RoundTripper, senders senders.Registry) *Scraper {
	scraper := &Scraper{
		cfg:          cfg,
		db:           db,
		log:          log,
		transport:    transport,
		senders:      senders,
		locks:        newProductLocks(),
		concurrency:  cfg.Scrape.Concurrency,
		pollInterval: time.Duration(cfg.Scrape.PollIntervalSecs) * time.Second,
		callTimeout:  time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go scraper.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop scraper")
			scraper.Stop()
			return nil
		},
	})

	return scraper
}

type Scraper struct {
	cfg       *config.Config
	db        *gorm.DB
	log       *zap.Logger
	transport http.RoundTripper
	senders   senders.Registry

	locks  *productLocks
	mu     sync.Mutex
	cancel context.CancelFunc

	concurrency  int
	pollInterval time.Duration // interval between ticks over all products
	callTimeout  time.Duration // per network call, not per tick
}

// tickerWithImmediateTick fires once on startup, then at every interval.
func (s *Scraper) tickerWithImmediateTick(interval time.Duration) *time.Ticker {
	withImmediateTick := make(chan time.Time, 1)

	ticker := time.NewTicker(interval)
	tickerC := ticker.C
	go func() {
		withImmediateTick <- time.Now()
		for c := range tickerC {
			withImmediateTick <- c
		}
	}()

	ticker.C = withImmediateTick
	return ticker
}

func (s *Scraper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	ticker := s.tickerWithImmediateTick(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Locking here to wait for the in-flight tick to finish
			s.mu.Lock()

			s.log.Sugar().Info("Scraper stopped")
			return

		case tickStartTime := <-ticker.C:
			s.tick(ctx, tickStartTime.UTC())
		}
	}
}

func (s *Scraper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scraper) tick(ctx context.Context, tickStartTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.pollProducts(ctx)

	if m.totalSelected > 0 {
		args := make([]any, 0)
		if m.errored != 0 {
			args = append(args, "errored", m.errored)
		}
		if m.updated != 0 {
			args = append(args, "updated", m.updated)
		}
		if m.unchanged != 0 {
			args = append(args, "unchanged", m.unchanged)
		}
		if m.notified != 0 {
			args = append(args, "notified", m.notified)
		}

		s.log.Sugar().Infow(
			fmt.Sprintf("Processed %d products", m.totalSelected),
			args...,
		)
	}

	elapsed := time.Now().UTC().Sub(tickStartTime)
	s.log.Sugar().Infow("Scraper tick completed", "elapsed_msecs", int(elapsed.Milliseconds()))
}

// pollProducts fans the per-product pipeline out in batches sized to the
// worker concurrency. One product failing never aborts the others.
func (s *Scraper) pollProducts(ctx context.Context) *tickMetrics {
	var products models.Products
	var metrics = &tickMetrics{}

	s.db.FindInBatches(&products, s.concurrency, func(tx *gorm.DB, batch int) error {
		batchMetrics, errs := s.pollBatch(ctx, products)
		if len(errs) > 0 {
			s.log.Sugar().Warnf("scrape: batch errors: %+v", errs)
		}

		metrics.totalSelected += len(products)
		metrics.Add(batchMetrics)

		return nil
	})

	return metrics
}

func (s *Scraper) pollBatch(ctx context.Context, batch models.Products) (*tickMetrics, []error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var metrics = &tickMetrics{}

	errs := make([]error, 0)
	for _, product := range batch {
		product := product
		wg.Add(1)

		go func() {
			defer wg.Done()
			m, err := s.checkProduct(ctx, &product)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
			}
			metrics.Add(m)
		}()
	}

	wg.Wait()
	return metrics, errs
}
