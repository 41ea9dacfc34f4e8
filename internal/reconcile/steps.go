package reconcile

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/internal/listings"
	"github.com/gamevault/gamevault-backend/internal/payouts"
	"github.com/gamevault/gamevault-backend/internal/platformledger"
	"github.com/gamevault/gamevault-backend/internal/purchases"
	"github.com/gamevault/gamevault-backend/internal/users"
)

// Step is one named unit of the account-deletion pipeline. Steps are
// idempotent; Run reports how many rows it touched.
type Step interface {
	Name() string
	Run(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

// deleteSupplierPayouts removes payout entries earned by the user as a
// supplier.
type deleteSupplierPayouts struct {
	payouts payouts.Repository
}

func (s deleteSupplierPayouts) Name() string { return "delete_supplier_payouts" }

func (s deleteSupplierPayouts) Run(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	return s.payouts.WithTx(tx).DeleteBySupplier(ctx, userID)
}

// deleteBuyerPayouts removes payout entries generated by purchases the user
// made as a buyer. Without this the purchase delete would orphan them.
type deleteBuyerPayouts struct {
	payouts   payouts.Repository
	purchases purchases.Repository
}

func (s deleteBuyerPayouts) Name() string { return "delete_buyer_payouts" }

func (s deleteBuyerPayouts) Run(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	ids, err := s.purchases.WithTx(tx).ListIDsByBuyer(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.payouts.WithTx(tx).DeleteByPurchaseIDs(ctx, ids)
}

// detachPurchaseLedgerEntries nulls the user and purchase links on platform
// entries tied to the user's purchases. Amounts and timestamps survive so
// platform income totals never move.
type detachPurchaseLedgerEntries struct {
	ledger    platformledger.Repository
	purchases purchases.Repository
}

func (s detachPurchaseLedgerEntries) Name() string { return "detach_purchase_ledger_entries" }

func (s detachPurchaseLedgerEntries) Run(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	ids, err := s.purchases.WithTx(tx).ListIDsByBuyer(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.ledger.WithTx(tx).DetachPurchases(ctx, ids)
}

// detachUserLedgerEntries nulls the user link on platform entries the user
// owns (listing fees, commissions on their sales).
type detachUserLedgerEntries struct {
	ledger platformledger.Repository
}

func (s detachUserLedgerEntries) Name() string { return "detach_user_ledger_entries" }

func (s detachUserLedgerEntries) Run(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	return s.ledger.WithTx(tx).DetachUser(ctx, userID)
}

// deletePurchases removes the user's purchase rows.
type deletePurchases struct {
	purchases purchases.Repository
}

func (s deletePurchases) Name() string { return "delete_purchases" }

func (s deletePurchases) Run(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	return s.purchases.WithTx(tx).DeleteByBuyer(ctx, userID)
}

// detachListings deactivates the user's listings and drops the owner link so
// other users' libraries keep resolving.
type detachListings struct {
	listings listings.Repository
}

func (s detachListings) Name() string { return "detach_listings" }

func (s detachListings) Run(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	return s.listings.WithTx(tx).DeactivateAndDetachBySupplier(ctx, userID)
}

// deleteUserRow hard-deletes the account, freeing the email for reuse.
type deleteUserRow struct {
	users users.Repository
}

func (s deleteUserRow) Name() string { return "delete_user_row" }

func (s deleteUserRow) Run(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	if err := s.users.WithTx(tx).HardDelete(ctx, userID); err != nil {
		return 0, err
	}
	return 1, nil
}
