package payouts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/internal/revsplit"
	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubPayoutRepo struct {
	payouts  map[uuid.UUID]*models.SupplierPayout
	listings map[uuid.UUID]*models.Listing
}

func newStubPayoutRepo() *stubPayoutRepo {
	return &stubPayoutRepo{
		payouts:  map[uuid.UUID]*models.SupplierPayout{},
		listings: map[uuid.UUID]*models.Listing{},
	}
}

func (s *stubPayoutRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPayoutRepo) Create(ctx context.Context, payout *models.SupplierPayout) error {
	for _, existing := range s.payouts {
		if existing.PurchaseID == payout.PurchaseID {
			return errUniquePayout
		}
	}
	if payout.ID == uuid.Nil {
		payout.ID = uuid.New()
	}
	s.payouts[payout.ID] = payout
	return nil
}

func (s *stubPayoutRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.SupplierPayout, error) {
	p, ok := s.payouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *stubPayoutRepo) FindByPurchase(ctx context.Context, purchaseID uuid.UUID) (*models.SupplierPayout, error) {
	for _, p := range s.payouts {
		if p.PurchaseID == purchaseID {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPayoutRepo) FindListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	l, ok := s.listings[listingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return l, nil
}

func (s *stubPayoutRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *enums.PayoutStatus) ([]models.SupplierPayout, error) {
	var out []models.SupplierPayout
	for _, p := range s.payouts {
		if p.SupplierID != supplierID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubPayoutRepo) ListPending(ctx context.Context) ([]models.SupplierPayout, error) {
	panic("not implemented")
}

func (s *stubPayoutRepo) SumBySupplier(ctx context.Context, supplierID uuid.UUID, status enums.PayoutStatus) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range s.payouts {
		if p.SupplierID == supplierID && p.Status == status {
			total = total.Add(p.NetAmount)
		}
	}
	return total, nil
}

func (s *stubPayoutRepo) SumGrossBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range s.payouts {
		if p.SupplierID == supplierID {
			total = total.Add(p.GrossAmount)
		}
	}
	return total, nil
}

func (s *stubPayoutRepo) SumCommissionBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range s.payouts {
		if p.SupplierID == supplierID {
			total = total.Add(p.CommissionAmount)
		}
	}
	return total, nil
}

func (s *stubPayoutRepo) CountByStatus(ctx context.Context, status enums.PayoutStatus) (int64, error) {
	var count int64
	for _, p := range s.payouts {
		if p.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *stubPayoutRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PayoutStatus, paidAt *time.Time) error {
	p, ok := s.payouts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Status = status
	p.PaidAt = paidAt
	return nil
}

func (s *stubPayoutRepo) SettlePendingForSupplier(ctx context.Context, supplierID uuid.UUID, paidAt time.Time) (int64, error) {
	var count int64
	for _, p := range s.payouts {
		if p.SupplierID == supplierID && p.Status == enums.PayoutStatusPending {
			p.Status = enums.PayoutStatusPaid
			at := paidAt
			p.PaidAt = &at
			count++
		}
	}
	return count, nil
}

func (s *stubPayoutRepo) DeleteBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	panic("not implemented")
}

func (s *stubPayoutRepo) DeleteByPurchaseIDs(ctx context.Context, purchaseIDs []uuid.UUID) (int64, error) {
	panic("not implemented")
}

var errUniquePayout = &uniqueErr{}

type uniqueErr struct{}

func (*uniqueErr) Error() string { return "UNIQUE constraint failed: supplier_payouts.purchase_id" }

type stubSettlementNotifier struct {
	settled int
}

func (s *stubSettlementNotifier) PayoutsSettled(ctx context.Context, supplierID uuid.UUID, count int64, total decimal.Decimal) {
	s.settled++
}

type payoutFixture struct {
	svc      Service
	repo     *stubPayoutRepo
	notifier *stubSettlementNotifier
}

func newPayoutFixture(t *testing.T) *payoutFixture {
	t.Helper()

	repo := newStubPayoutRepo()
	notifier := &stubSettlementNotifier{}
	split, err := revsplit.NewEngine(decimal.RequireFromString("0.15"))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "test"})

	svc, err := NewService(repo, stubTxRunner{}, split, notifier, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &payoutFixture{svc: svc, repo: repo, notifier: notifier}
}

func pendingPayout(repo *stubPayoutRepo, supplierID uuid.UUID, net string) *models.SupplierPayout {
	payout := &models.SupplierPayout{
		ID:         uuid.New(),
		PurchaseID: uuid.New(),
		SupplierID: supplierID,
		NetAmount:  decimal.RequireFromString(net),
		Status:     enums.PayoutStatusPending,
	}
	repo.payouts[payout.ID] = payout
	return payout
}

func TestCreateFromPurchaseSplitsRevenue(t *testing.T) {
	f := newPayoutFixture(t)

	supplierID := uuid.New()
	listing := &models.Listing{ID: uuid.New(), SupplierID: &supplierID}
	f.repo.listings[listing.ID] = listing

	purchase := &models.Purchase{
		ID:          uuid.New(),
		ListingID:   listing.ID,
		PricePaid:   decimal.RequireFromString("20.00"),
		PurchasedAt: time.Now().UTC(),
	}

	payout, err := f.svc.CreateFromPurchase(context.Background(), &gorm.DB{}, purchase)
	if err != nil {
		t.Fatalf("CreateFromPurchase: %v", err)
	}
	if payout.SupplierID != supplierID {
		t.Fatal("supplier must come from the listing owner")
	}
	if got := payout.CommissionAmount.StringFixed(2); got != "3.00" {
		t.Fatalf("commission = %s, want 3.00", got)
	}
	if got := payout.NetAmount.StringFixed(2); got != "17.00" {
		t.Fatalf("net = %s, want 17.00", got)
	}
	if payout.Status != enums.PayoutStatusPending {
		t.Fatalf("status = %s, want pending", payout.Status)
	}
}

func TestCreateFromPurchaseDetachedOwner(t *testing.T) {
	f := newPayoutFixture(t)

	listing := &models.Listing{ID: uuid.New(), SupplierID: nil}
	f.repo.listings[listing.ID] = listing

	purchase := &models.Purchase{
		ID:        uuid.New(),
		ListingID: listing.ID,
		PricePaid: decimal.RequireFromString("10.00"),
	}

	_, err := f.svc.CreateFromPurchase(context.Background(), &gorm.DB{}, purchase)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict for detached owner, got %v", err)
	}
}

func TestCreateFromPurchaseDuplicate(t *testing.T) {
	f := newPayoutFixture(t)

	supplierID := uuid.New()
	listing := &models.Listing{ID: uuid.New(), SupplierID: &supplierID}
	f.repo.listings[listing.ID] = listing

	purchase := &models.Purchase{
		ID:        uuid.New(),
		ListingID: listing.ID,
		PricePaid: decimal.RequireFromString("10.00"),
	}

	if _, err := f.svc.CreateFromPurchase(context.Background(), &gorm.DB{}, purchase); err != nil {
		t.Fatalf("first CreateFromPurchase: %v", err)
	}
	_, err := f.svc.CreateFromPurchase(context.Background(), &gorm.DB{}, purchase)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for duplicate payout, got %v", err)
	}
}

func TestMarkPaidTransitions(t *testing.T) {
	f := newPayoutFixture(t)

	payout := pendingPayout(f.repo, uuid.New(), "17.00")

	paid, err := f.svc.MarkPaid(context.Background(), payout.ID)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if paid.Status != enums.PayoutStatusPaid || paid.PaidAt == nil {
		t.Fatal("payout must be paid with a timestamp")
	}

	_, err = f.svc.MarkPaid(context.Background(), payout.ID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on double pay, got %v", err)
	}
}

func TestMarkManyPaidPartialSuccess(t *testing.T) {
	f := newPayoutFixture(t)

	good := pendingPayout(f.repo, uuid.New(), "5.00")
	alreadyPaid := pendingPayout(f.repo, uuid.New(), "6.00")
	alreadyPaid.Status = enums.PayoutStatusPaid
	missing := uuid.New()

	result, err := f.svc.MarkManyPaid(context.Background(), []uuid.UUID{good.ID, alreadyPaid.ID, missing})
	if err != nil {
		t.Fatalf("MarkManyPaid: %v", err)
	}
	if len(result.Paid) != 1 || result.Paid[0].ID != good.ID {
		t.Fatalf("paid = %v, want only the pending entry", result.Paid)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("failed = %d, want 2", len(result.Failed))
	}
}

func TestSettleRequiresMethodFields(t *testing.T) {
	f := newPayoutFixture(t)
	supplierID := uuid.New()
	pendingPayout(f.repo, supplierID, "10.00")

	_, err := f.svc.Settle(context.Background(), SettleInput{
		SupplierID: supplierID,
		Method:     enums.PayoutMethodElectronic,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing payee email, got %v", err)
	}

	_, err = f.svc.Settle(context.Background(), SettleInput{
		SupplierID:  supplierID,
		Method:      enums.PayoutMethodBankTransfer,
		BankAccount: "12345678",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing holder, got %v", err)
	}
}

func TestSettleMarksAllPendingWithSharedTimestamp(t *testing.T) {
	f := newPayoutFixture(t)
	supplierID := uuid.New()

	first := pendingPayout(f.repo, supplierID, "10.00")
	second := pendingPayout(f.repo, supplierID, "7.50")
	otherSupplier := pendingPayout(f.repo, uuid.New(), "3.00")

	summary, err := f.svc.Settle(context.Background(), SettleInput{
		SupplierID: supplierID,
		Method:     enums.PayoutMethodElectronic,
		PayeeEmail: "dev@studio.example",
	})
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if summary.Count != 2 {
		t.Fatalf("count = %d, want 2", summary.Count)
	}
	if got := summary.Total.StringFixed(2); got != "17.50" {
		t.Fatalf("total = %s, want 17.50", got)
	}
	if first.PaidAt == nil || second.PaidAt == nil || !first.PaidAt.Equal(*second.PaidAt) {
		t.Fatal("all settled entries must share one timestamp")
	}
	if otherSupplier.Status != enums.PayoutStatusPending {
		t.Fatal("other suppliers' entries must stay pending")
	}
	if f.notifier.settled != 1 {
		t.Fatal("expected one settlement notification")
	}
}

func TestSettleNothingPending(t *testing.T) {
	f := newPayoutFixture(t)

	_, err := f.svc.Settle(context.Background(), SettleInput{
		SupplierID: uuid.New(),
		Method:     enums.PayoutMethodElectronic,
		PayeeEmail: "dev@studio.example",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty settlement, got %v", err)
	}
}

func TestBalanceAggregates(t *testing.T) {
	f := newPayoutFixture(t)
	supplierID := uuid.New()

	p1 := pendingPayout(f.repo, supplierID, "17.00")
	p1.GrossAmount = decimal.RequireFromString("20.00")
	p1.CommissionAmount = decimal.RequireFromString("3.00")

	p2 := pendingPayout(f.repo, supplierID, "8.50")
	p2.GrossAmount = decimal.RequireFromString("10.00")
	p2.CommissionAmount = decimal.RequireFromString("1.50")
	p2.Status = enums.PayoutStatusPaid

	report, err := f.svc.Balance(context.Background(), supplierID)
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if got := report.Pending.StringFixed(2); got != "17.00" {
		t.Fatalf("pending = %s, want 17.00", got)
	}
	if got := report.Paid.StringFixed(2); got != "8.50" {
		t.Fatalf("paid = %s, want 8.50", got)
	}
	if got := report.GrossSales.StringFixed(2); got != "30.00" {
		t.Fatalf("gross = %s, want 30.00", got)
	}
	if got := report.CommissionTotal.StringFixed(2); got != "4.50" {
		t.Fatalf("commission = %s, want 4.50", got)
	}
}
