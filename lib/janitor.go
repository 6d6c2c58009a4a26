package lib

import (
	"context"
	"time"

	"github.com/fiffu/pricewatch/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Janitor prunes old price observations on a cron schedule. Each product's
// most recent observation is always kept so "latest price" stays answerable.
type Janitor struct {
	cfg  *config.Config
	log  *zap.Logger
	db   *gorm.DB
	cron *cron.Cron
}

func NewJanitor(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, db *gorm.DB) (*Janitor, error) {
	j := &Janitor{cfg, log, db, cron.New()}

	if _, err := j.cron.AddFunc(cfg.Retention.CronSpec, j.PruneOldObservations); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			j.cron.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-j.cron.Stop().Done()
			return nil
		},
	})

	return j, nil
}

func (j *Janitor) PruneOldObservations() {
	cutoff := time.Now().UTC().AddDate(0, 0, -j.cfg.Retention.MaxAgeDays)

	tx := j.db.Exec(`
		DELETE FROM prices
		WHERE updated_at < ?
		AND price_id NOT IN (
			SELECT p.price_id FROM prices p
			WHERE NOT EXISTS (
				SELECT 1 FROM prices q
				WHERE q.product_id = p.product_id AND q.updated_at > p.updated_at
			)
		)`, cutoff)
	if err := tx.Error; err != nil {
		j.log.Sugar().Errorf("PruneOldObservations error: %+v", err)
		return
	}
	if tx.RowsAffected > 0 {
		j.log.Sugar().Infof("Pruned %d old price observations", tx.RowsAffected)
	}
}
