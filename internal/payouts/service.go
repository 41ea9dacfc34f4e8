package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/internal/revsplit"
	"github.com/gamevault/gamevault-backend/pkg/db"
	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type settlementNotifier interface {
	PayoutsSettled(ctx context.Context, supplierID uuid.UUID, count int64, total decimal.Decimal)
}

// Service manages the supplier side of the revenue split.
type Service interface {
	CreateFromPurchase(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) (*models.SupplierPayout, error)
	MarkPaid(ctx context.Context, payoutID uuid.UUID) (*models.SupplierPayout, error)
	MarkManyPaid(ctx context.Context, payoutIDs []uuid.UUID) (*BatchResult, error)
	Settle(ctx context.Context, input SettleInput) (*SettlementSummary, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *enums.PayoutStatus) ([]models.SupplierPayout, error)
	Balance(ctx context.Context, supplierID uuid.UUID) (*BalanceReport, error)
}

// BatchResult reports the outcome of a best-effort batch payment run.
type BatchResult struct {
	Paid   []models.SupplierPayout
	Failed []BatchFailure
}

// BatchFailure pairs a payout id with the error that kept it pending.
type BatchFailure struct {
	PayoutID uuid.UUID
	Err      error
}

// SettleInput describes a settlement request for one supplier.
type SettleInput struct {
	SupplierID    uuid.UUID
	Method        enums.PayoutMethod
	PayeeEmail    string
	BankAccount   string
	AccountHolder string
}

// SettlementSummary reports what a settlement run paid out.
type SettlementSummary struct {
	SupplierID uuid.UUID
	Method     enums.PayoutMethod
	Count      int64
	Total      decimal.Decimal
	PaidAt     time.Time
}

// BalanceReport aggregates a supplier's earned amounts by payout status,
// plus lifetime gross sales and commission withheld.
type BalanceReport struct {
	SupplierID      uuid.UUID
	Pending         decimal.Decimal
	Paid            decimal.Decimal
	GrossSales      decimal.Decimal
	CommissionTotal decimal.Decimal
}

type service struct {
	repo     Repository
	tx       txRunner
	split    revsplit.Engine
	notifier settlementNotifier
	logg     *logger.Logger
}

// NewService wires the payout service with its dependencies.
func NewService(repo Repository, tx txRunner, split revsplit.Engine, notifier settlementNotifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if split == nil {
		return nil, fmt.Errorf("revenue split engine required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("settlement notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		split:    split,
		notifier: notifier,
		logg:     logg,
	}, nil
}

// CreateFromPurchase records the supplier's share of a completed sale. It must
// run inside the completion transaction so the payout and the status flip
// commit together.
func (s *service) CreateFromPurchase(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) (*models.SupplierPayout, error) {
	if purchase == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for payout creation")
	}

	repo := s.repo.WithTx(tx)

	listing, err := repo.FindListing(ctx, purchase.ListingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if listing.SupplierID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "listing has no supplier to pay")
	}

	breakdown, err := s.split.Split(purchase.PricePaid)
	if err != nil {
		return nil, err
	}

	payout := &models.SupplierPayout{
		PurchaseID:       purchase.ID,
		SupplierID:       *listing.SupplierID,
		GrossAmount:      breakdown.Gross,
		CommissionRate:   breakdown.CommissionRate,
		CommissionAmount: breakdown.Commission,
		NetAmount:        breakdown.Net,
		Status:           enums.PayoutStatusPending,
		SoldAt:           purchase.PurchasedAt,
	}

	if err := repo.Create(ctx, payout); err != nil {
		if db.IsUniqueViolation(err, "uq_payout_purchase") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payout already exists for purchase")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier payout")
	}
	return payout, nil
}

func (s *service) MarkPaid(ctx context.Context, payoutID uuid.UUID) (*models.SupplierPayout, error) {
	if payoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}

	var updated *models.SupplierPayout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByID(ctx, payoutID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payout")
		}
		if payout.Status == enums.PayoutStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payout already paid")
		}

		now := time.Now().UTC()
		if err := repo.UpdateStatus(ctx, payout.ID, enums.PayoutStatusPaid, &now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payout paid")
		}

		payout.Status = enums.PayoutStatusPaid
		payout.PaidAt = &now
		updated = payout
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// MarkManyPaid pays each entry in turn. A failure on one entry is recorded
// and the run continues; already-paid and missing entries count as failures.
func (s *service) MarkManyPaid(ctx context.Context, payoutIDs []uuid.UUID) (*BatchResult, error) {
	if len(payoutIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one payout id required")
	}

	result := &BatchResult{}
	for _, id := range payoutIDs {
		payout, err := s.MarkPaid(ctx, id)
		if err != nil {
			lctx := s.logg.WithField(ctx, "payout_id", id.String())
			s.logg.Warn(lctx, "batch payout entry failed")
			result.Failed = append(result.Failed, BatchFailure{PayoutID: id, Err: err})
			continue
		}
		result.Paid = append(result.Paid, *payout)
	}
	return result, nil
}

func (s *service) Settle(ctx context.Context, input SettleInput) (*SettlementSummary, error) {
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if err := validateSettleMethod(input); err != nil {
		return nil, err
	}

	var summary *SettlementSummary
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		pendingStatus := enums.PayoutStatusPending
		pending, err := repo.ListBySupplier(ctx, input.SupplierID, &pendingStatus)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payouts")
		}
		if len(pending) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "no pending payouts to settle")
		}

		total := decimal.Zero
		for _, payout := range pending {
			total = total.Add(payout.NetAmount)
		}

		paidAt := time.Now().UTC()
		count, err := repo.SettlePendingForSupplier(ctx, input.SupplierID, paidAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle pending payouts")
		}

		summary = &SettlementSummary{
			SupplierID: input.SupplierID,
			Method:     input.Method,
			Count:      count,
			Total:      total,
			PaidAt:     paidAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.PayoutsSettled(ctx, summary.SupplierID, summary.Count, summary.Total)
	return summary, nil
}

func (s *service) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *enums.PayoutStatus) ([]models.SupplierPayout, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout status filter")
	}

	payouts, err := s.repo.ListBySupplier(ctx, supplierID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier payouts")
	}
	return payouts, nil
}

func (s *service) Balance(ctx context.Context, supplierID uuid.UUID) (*BalanceReport, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}

	pending, err := s.repo.SumBySupplier(ctx, supplierID, enums.PayoutStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum pending payouts")
	}
	paid, err := s.repo.SumBySupplier(ctx, supplierID, enums.PayoutStatusPaid)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum paid payouts")
	}
	gross, err := s.repo.SumGrossBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum gross sales")
	}
	commission, err := s.repo.SumCommissionBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum commission withheld")
	}

	return &BalanceReport{
		SupplierID:      supplierID,
		Pending:         pending,
		Paid:            paid,
		GrossSales:      gross,
		CommissionTotal: commission,
	}, nil
}

func validateSettleMethod(input SettleInput) error {
	switch input.Method {
	case enums.PayoutMethodElectronic:
		if input.PayeeEmail == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payee email required for electronic transfer")
		}
	case enums.PayoutMethodBankTransfer:
		if input.BankAccount == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "bank account required for bank transfer")
		}
		if input.AccountHolder == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "account holder required for bank transfer")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payout method")
	}
	return nil
}
