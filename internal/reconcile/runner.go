package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/internal/listings"
	"github.com/gamevault/gamevault-backend/internal/payouts"
	"github.com/gamevault/gamevault-backend/internal/platformledger"
	"github.com/gamevault/gamevault-backend/internal/purchases"
	"github.com/gamevault/gamevault-backend/internal/users"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Runner executes the account-deletion pipeline. All steps run inside one
// transaction; a failure in any step rolls the whole reconciliation back.
type Runner struct {
	tx    txRunner
	steps []Step
	logg  *logger.Logger
}

// NewRunner assembles the pipeline in its fixed order.
func NewRunner(
	tx txRunner,
	payoutRepo payouts.Repository,
	ledgerRepo platformledger.Repository,
	purchaseRepo purchases.Repository,
	listingRepo listings.Repository,
	userRepo users.Repository,
	logg *logger.Logger,
) (*Runner, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if payoutRepo == nil || ledgerRepo == nil || purchaseRepo == nil || listingRepo == nil || userRepo == nil {
		return nil, fmt.Errorf("all repositories required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	steps := []Step{
		deleteSupplierPayouts{payouts: payoutRepo},
		deleteBuyerPayouts{payouts: payoutRepo, purchases: purchaseRepo},
		detachPurchaseLedgerEntries{ledger: ledgerRepo, purchases: purchaseRepo},
		detachUserLedgerEntries{ledger: ledgerRepo},
		deletePurchases{purchases: purchaseRepo},
		detachListings{listings: listingRepo},
		deleteUserRow{users: userRepo},
	}

	return &Runner{tx: tx, steps: steps, logg: logg}, nil
}

// Run reconciles every table touched by the account, then removes it.
func (r *Runner) Run(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	return r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		for _, step := range r.steps {
			count, err := step.Run(ctx, tx, userID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("reconcile step %s", step.Name()))
			}
			lctx := r.logg.WithFields(ctx, map[string]any{
				"step":    step.Name(),
				"rows":    count,
				"user_id": userID.String(),
			})
			r.logg.Info(lctx, "account reconcile step done")
		}
		return nil
	})
}
