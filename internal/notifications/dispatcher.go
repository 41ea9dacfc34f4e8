package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamevault/gamevault-backend/pkg/logger"
)

// Dispatcher delivers user-facing notifications. Delivery is best-effort:
// implementations must never return errors into the calling flow.
type Dispatcher interface {
	UserRegistered(ctx context.Context, userID uuid.UUID, email string)
	PurchaseCompleted(ctx context.Context, buyerID, purchaseID uuid.UUID)
	PayoutsSettled(ctx context.Context, supplierID uuid.UUID, count int64, total decimal.Decimal)
}

type logDispatcher struct {
	logg *logger.Logger
}

// NewLogDispatcher returns a dispatcher that only records the notification
// in the service log. It stands in until a mail/push provider is wired.
func NewLogDispatcher(logg *logger.Logger) Dispatcher {
	return &logDispatcher{logg: logg}
}

func (d *logDispatcher) UserRegistered(ctx context.Context, userID uuid.UUID, email string) {
	lctx := d.logg.WithFields(ctx, map[string]any{
		"user_id": userID.String(),
		"email":   email,
	})
	d.logg.Info(lctx, "notification: user registered")
}

func (d *logDispatcher) PurchaseCompleted(ctx context.Context, buyerID, purchaseID uuid.UUID) {
	lctx := d.logg.WithFields(ctx, map[string]any{
		"buyer_id":    buyerID.String(),
		"purchase_id": purchaseID.String(),
	})
	d.logg.Info(lctx, "notification: purchase completed")
}

func (d *logDispatcher) PayoutsSettled(ctx context.Context, supplierID uuid.UUID, count int64, total decimal.Decimal) {
	lctx := d.logg.WithFields(ctx, map[string]any{
		"supplier_id": supplierID.String(),
		"count":       count,
		"total":       total.StringFixed(2),
	})
	d.logg.Info(lctx, "notification: payouts settled")
}
