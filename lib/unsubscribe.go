package lib

import (
	"context"

	"github.com/fiffu/pricewatch/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type unsubscribe struct {
	log *zap.Logger
	db  *gorm.DB
}

// Unsubscribe deletes the subscription carrying the given token. Tokens come
// from the unsubscribe links in notification emails.
func (svc *unsubscribe) Unsubscribe(ctx context.Context, token string) error {
	tx := svc.db.Where("token = ?", token).Delete(&models.Subscription{})
	if err := tx.Error; err != nil {
		return err
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	svc.log.Sugar().Infof("Deleted subscription for token %s", token)
	return nil
}
