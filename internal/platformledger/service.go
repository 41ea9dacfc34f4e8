package platformledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/pkg/db"
	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/money"
	"github.com/gamevault/gamevault-backend/pkg/pagination"
)

// Service records and reports platform-side revenue entries.
type Service interface {
	RecordSaleCommission(ctx context.Context, tx *gorm.DB, input SaleCommissionInput) (*models.PlatformTransaction, error)
	RecordListingFee(ctx context.Context, tx *gorm.DB, input ListingFeeInput) (*models.PlatformTransaction, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*TransactionList, error)
	Income(ctx context.Context) (*IncomeReport, error)
}

// SaleCommissionInput carries the commission slice of a completed sale.
type SaleCommissionInput struct {
	PurchaseID     uuid.UUID
	SupplierID     *uuid.UUID
	Amount         decimal.Decimal
	CommissionRate decimal.Decimal
	ListingTitle   string
}

// ListingFeeInput carries the flat fee charged when a listing goes live.
type ListingFeeInput struct {
	SupplierID   uuid.UUID
	Amount       decimal.Decimal
	ListingTitle string
}

// TransactionList is a cursor page of ledger entries.
type TransactionList struct {
	Entries    []models.PlatformTransaction
	NextCursor string
}

// IncomeReport aggregates the ledger by kind.
type IncomeReport struct {
	Total           decimal.Decimal
	CommissionTotal decimal.Decimal
	ListingFeeTotal decimal.Decimal
	CommissionCount int64
	ListingFeeCount int64
}

type service struct {
	repo Repository
}

// NewService wires the platform ledger service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("platform ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordSaleCommission(ctx context.Context, tx *gorm.DB, input SaleCommissionInput) (*models.PlatformTransaction, error) {
	if input.PurchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission amount cannot be negative")
	}

	rate := input.CommissionRate
	entry := &models.PlatformTransaction{
		Kind:           enums.PlatformTransactionSaleCommission,
		Amount:         money.Round(input.Amount),
		CommissionRate: &rate,
		Description:    fmt.Sprintf("sale commission for %q", input.ListingTitle),
		UserID:         input.SupplierID,
		PurchaseID:     &input.PurchaseID,
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		if db.IsUniqueViolation(err, "uq_platform_tx_purchase") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "commission already recorded for purchase")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record sale commission")
	}
	return entry, nil
}

func (s *service) RecordListingFee(ctx context.Context, tx *gorm.DB, input ListingFeeInput) (*models.PlatformTransaction, error) {
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing fee cannot be negative")
	}

	supplierID := input.SupplierID
	entry := &models.PlatformTransaction{
		Kind:        enums.PlatformTransactionListingFee,
		Amount:      money.Round(input.Amount),
		Description: fmt.Sprintf("listing fee for %q", input.ListingTitle),
		UserID:      &supplierID,
	}

	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record listing fee")
	}
	return entry, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*TransactionList, error) {
	if filters.Kind != nil && !filters.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction kind filter")
	}

	entries, nextCursor, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list platform transactions")
	}
	return &TransactionList{Entries: entries, NextCursor: nextCursor}, nil
}

func (s *service) Income(ctx context.Context) (*IncomeReport, error) {
	total, err := s.repo.SumAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum platform income")
	}
	commissionTotal, err := s.repo.SumByKind(ctx, enums.PlatformTransactionSaleCommission)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum commissions")
	}
	feeTotal, err := s.repo.SumByKind(ctx, enums.PlatformTransactionListingFee)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum listing fees")
	}
	commissionCount, err := s.repo.CountByKind(ctx, enums.PlatformTransactionSaleCommission)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count commissions")
	}
	feeCount, err := s.repo.CountByKind(ctx, enums.PlatformTransactionListingFee)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count listing fees")
	}

	return &IncomeReport{
		Total:           total,
		CommissionTotal: commissionTotal,
		ListingFeeTotal: feeTotal,
		CommissionCount: commissionCount,
		ListingFeeCount: feeCount,
	}, nil
}
