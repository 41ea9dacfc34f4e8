package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/internal/payments"
	"github.com/gamevault/gamevault-backend/internal/platformledger"
	"github.com/gamevault/gamevault-backend/pkg/db"
	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userGetter interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type listingGetter interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type payoutCreator interface {
	CreateFromPurchase(ctx context.Context, tx *gorm.DB, purchase *models.Purchase) (*models.SupplierPayout, error)
}

type commissionRecorder interface {
	RecordSaleCommission(ctx context.Context, tx *gorm.DB, input platformledger.SaleCommissionInput) (*models.PlatformTransaction, error)
}

type completionNotifier interface {
	PurchaseCompleted(ctx context.Context, buyerID, purchaseID uuid.UUID)
}

// Service drives the purchase lifecycle: create pending, complete with the
// revenue split, and the read-side queries.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Purchase, error)
	Complete(ctx context.Context, purchaseID uuid.UUID) (*models.Purchase, error)
	Refund(ctx context.Context, purchaseID uuid.UUID) error
	GetByID(ctx context.Context, purchaseID uuid.UUID) (*models.Purchase, error)
	Library(ctx context.Context, buyerID uuid.UUID) ([]models.Purchase, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Purchase, error)
	Owned(ctx context.Context, buyerID, listingID uuid.UUID) (bool, error)
	SalesReport(ctx context.Context, supplierID *uuid.UUID) (*SalesReport, error)
}

// CreateInput captures a purchase request. PricePaid is optional; when set it
// must match the listing's current price.
type CreateInput struct {
	BuyerID       uuid.UUID
	ListingID     uuid.UUID
	PricePaid     decimal.Decimal
	PaymentMethod string
	ExternalRef   *string
}

// SalesReport aggregates completed sales, platform-wide or per supplier.
type SalesReport struct {
	Total          decimal.Decimal
	CompletedCount int64
	PendingCount   int64
}

type service struct {
	repo     Repository
	tx       txRunner
	users    userGetter
	listings listingGetter
	payouts  payoutCreator
	ledger   commissionRecorder
	gateway  payments.Gateway
	notifier completionNotifier
	logg     *logger.Logger
}

// NewService wires the purchase lifecycle service with its collaborators.
func NewService(
	repo Repository,
	tx txRunner,
	users userGetter,
	listings listingGetter,
	payouts payoutCreator,
	ledger commissionRecorder,
	gateway payments.Gateway,
	notifier completionNotifier,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchases repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user getter required")
	}
	if listings == nil {
		return nil, fmt.Errorf("listing getter required")
	}
	if payouts == nil {
		return nil, fmt.Errorf("payout creator required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("commission recorder required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("completion notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		users:    users,
		listings: listings,
		payouts:  payouts,
		ledger:   ledger,
		gateway:  gateway,
		notifier: notifier,
		logg:     logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Purchase, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.PaymentMethod == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method required")
	}

	buyer, err := s.users.FindByID(ctx, input.BuyerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer")
	}
	if !buyer.Active {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "buyer account is deactivated")
	}
	if buyer.Role == enums.RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admins cannot purchase listings")
	}

	listing, err := s.listings.FindByID(ctx, input.ListingID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	if !listing.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing is not available for purchase")
	}
	if !input.PricePaid.IsZero() && !input.PricePaid.Equal(listing.Price) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price does not match listing price")
	}

	purchase := &models.Purchase{
		BuyerID:          input.BuyerID,
		ListingID:        input.ListingID,
		PricePaid:        listing.Price,
		PaymentMethod:    input.PaymentMethod,
		ExternalOrderRef: input.ExternalRef,
		Status:           enums.PurchaseStatusPending,
		PurchasedAt:      time.Now().UTC(),
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByBuyerAndListing(ctx, input.BuyerID, input.ListingID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing purchase")
		}
		if existing != nil {
			if existing.Status == enums.PurchaseStatusCompleted {
				return pkgerrors.New(pkgerrors.CodeConflict, "listing already owned by buyer")
			}
			// Stale pending attempt: last writer wins.
			if err := repo.DeleteByID(ctx, existing.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discard pending purchase")
			}
		}

		if err := repo.Create(ctx, purchase); err != nil {
			if db.IsUniqueViolation(err, "uq_purchase_buyer_listing") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "purchase already exists for listing")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// Complete marks a pending purchase completed and records both sides of the
// revenue split in the same transaction. The gateway capture runs before the
// transaction opens; no ledger write waits on an external call.
func (s *service) Complete(ctx context.Context, purchaseID uuid.UUID) (*models.Purchase, error) {
	if purchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}

	preflight, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	if preflight.Status == enums.PurchaseStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "purchase already completed")
	}

	if preflight.ExternalOrderRef != nil {
		result, err := s.gateway.Capture(ctx, *preflight.ExternalOrderRef)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capture payment")
		}
		if !result.Completed {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment not captured")
		}
	}

	var completed *models.Purchase
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// Re-read under the row lock; a concurrent completion surfaces here.
		purchase, err := repo.FindByIDForUpdate(ctx, purchaseID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
		}
		if purchase.Status == enums.PurchaseStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase already completed")
		}

		if err := repo.MarkCompleted(ctx, purchase.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark purchase completed")
		}
		purchase.Status = enums.PurchaseStatusCompleted

		payout, err := s.payouts.CreateFromPurchase(ctx, tx, purchase)
		if err != nil {
			return err
		}

		listingTitle := ""
		if listing, err := s.listings.FindByID(ctx, purchase.ListingID); err == nil {
			listingTitle = listing.Title
		}

		supplierID := payout.SupplierID
		_, err = s.ledger.RecordSaleCommission(ctx, tx, platformledger.SaleCommissionInput{
			PurchaseID:     purchase.ID,
			SupplierID:     &supplierID,
			Amount:         payout.CommissionAmount,
			CommissionRate: payout.CommissionRate,
			ListingTitle:   listingTitle,
		})
		if err != nil {
			return err
		}

		completed = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.PurchaseCompleted(ctx, completed.BuyerID, completed.ID)
	return completed, nil
}

// Refund is not offered. The lifecycle ends at completed; the error code
// keeps the gap visible to clients instead of silently succeeding.
func (s *service) Refund(ctx context.Context, purchaseID uuid.UUID) error {
	if purchaseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	return pkgerrors.New(pkgerrors.CodeUnsupported, "refunds are not available")
}

func (s *service) GetByID(ctx context.Context, purchaseID uuid.UUID) (*models.Purchase, error) {
	if purchaseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}
	return purchase, nil
}

// Library returns the buyer's completed purchases, newest first.
func (s *service) Library(ctx context.Context, buyerID uuid.UUID) ([]models.Purchase, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "buyer id required")
	}
	status := enums.PurchaseStatusCompleted
	purchases, err := s.repo.ListByBuyer(ctx, buyerID, &status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer purchases")
	}
	return purchases, nil
}

func (s *service) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Purchase, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	purchases, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier sales")
	}
	return purchases, nil
}

func (s *service) Owned(ctx context.Context, buyerID, listingID uuid.UUID) (bool, error) {
	if buyerID == uuid.Nil || listingID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "buyer id and listing id required")
	}
	owned, err := s.repo.ExistsCompleted(ctx, buyerID, listingID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ownership")
	}
	return owned, nil
}

func (s *service) SalesReport(ctx context.Context, supplierID *uuid.UUID) (*SalesReport, error) {
	var total decimal.Decimal
	var err error
	if supplierID != nil {
		total, err = s.repo.SumCompletedBySupplier(ctx, *supplierID)
	} else {
		total, err = s.repo.SumCompleted(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum completed sales")
	}

	completedCount, err := s.repo.CountByStatus(ctx, enums.PurchaseStatusCompleted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count completed purchases")
	}
	pendingCount, err := s.repo.CountByStatus(ctx, enums.PurchaseStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending purchases")
	}

	return &SalesReport{
		Total:          total,
		CompletedCount: completedCount,
		PendingCount:   pendingCount,
	}, nil
}
