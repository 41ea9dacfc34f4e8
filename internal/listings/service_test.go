package listings

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/internal/platformledger"
	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubListingRepo struct {
	listings     map[uuid.UUID]*models.Listing
	activeTitles map[string]uuid.UUID
	created      []*models.Listing
}

func newStubListingRepo() *stubListingRepo {
	return &stubListingRepo{
		listings:     map[uuid.UUID]*models.Listing{},
		activeTitles: map[string]uuid.UUID{},
	}
}

func (r *stubListingRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubListingRepo) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == uuid.Nil {
		listing.ID = uuid.New()
	}
	r.listings[listing.ID] = listing
	if listing.Active {
		r.activeTitles[strings.ToLower(listing.Title)] = listing.ID
	}
	r.created = append(r.created, listing)
	return nil
}

func (r *stubListingRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	listing, ok := r.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return listing, nil
}

func (r *stubListingRepo) ExistsActiveTitle(ctx context.Context, title string, excludeID *uuid.UUID) (bool, error) {
	id, ok := r.activeTitles[strings.ToLower(title)]
	if !ok {
		return false, nil
	}
	if excludeID != nil && *excludeID == id {
		return false, nil
	}
	return true, nil
}

func (r *stubListingRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	listing, ok := r.listings[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if title, ok := updates["title"].(string); ok {
		listing.Title = title
	}
	if active, ok := updates["active"].(bool); ok {
		listing.Active = active
	}
	if price, ok := updates["price"].(decimal.Decimal); ok {
		listing.Price = price
	}
	return nil
}

func (r *stubListingRepo) ListActive(ctx context.Context) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range r.listings {
		if l.Active {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubListingRepo) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Listing, error) {
	var out []models.Listing
	for _, l := range r.listings {
		if l.SupplierID != nil && *l.SupplierID == supplierID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubListingRepo) Search(ctx context.Context, term, category string) ([]models.Listing, error) {
	return nil, nil
}

func (r *stubListingRepo) CountActive(ctx context.Context) (int64, error) {
	return int64(len(r.activeTitles)), nil
}

func (r *stubListingRepo) DeactivateAndDetachBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubUserGetter struct {
	users map[uuid.UUID]*models.User
}

func (g *stubUserGetter) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := g.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type stubFeeRecorder struct {
	recorded []platformledger.ListingFeeInput
}

func (r *stubFeeRecorder) RecordListingFee(ctx context.Context, tx *gorm.DB, input platformledger.ListingFeeInput) (*models.PlatformTransaction, error) {
	r.recorded = append(r.recorded, input)
	return &models.PlatformTransaction{ID: uuid.New(), Kind: enums.PlatformTransactionListingFee, Amount: input.Amount}, nil
}

func supplierFixture(role enums.Role, active bool) *models.User {
	return &models.User{ID: uuid.New(), Name: "Supplier", Email: "s@test.example", Role: role, Active: active}
}

func newListingService(t *testing.T, repo *stubListingRepo, users *stubUserGetter, ledger *stubFeeRecorder) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, users, ledger, decimal.RequireFromString("25.00"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestPublishRecordsListingFee(t *testing.T) {
	repo := newStubListingRepo()
	supplier := supplierFixture(enums.RoleSupplier, true)
	users := &stubUserGetter{users: map[uuid.UUID]*models.User{supplier.ID: supplier}}
	ledger := &stubFeeRecorder{}
	svc := newListingService(t, repo, users, ledger)

	listing, err := svc.Publish(context.Background(), PublishInput{
		SupplierID: supplier.ID,
		Title:      "Space Trader",
		Price:      decimal.RequireFromString("19.99"),
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !listing.Active {
		t.Error("published listing should be active")
	}
	if listing.PublishedAt == nil {
		t.Error("published listing should carry a publish timestamp")
	}
	if len(ledger.recorded) != 1 {
		t.Fatalf("expected 1 fee entry, got %d", len(ledger.recorded))
	}
	fee := ledger.recorded[0]
	if !fee.Amount.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("fee = %s, want 25.00", fee.Amount)
	}
	if fee.SupplierID != supplier.ID {
		t.Error("fee should reference the supplier")
	}
}

func TestPublishCustomFee(t *testing.T) {
	repo := newStubListingRepo()
	supplier := supplierFixture(enums.RoleSupplier, true)
	users := &stubUserGetter{users: map[uuid.UUID]*models.User{supplier.ID: supplier}}
	ledger := &stubFeeRecorder{}
	svc := newListingService(t, repo, users, ledger)

	fee := decimal.RequireFromString("10.005")
	_, err := svc.Publish(context.Background(), PublishInput{
		SupplierID: supplier.ID,
		Title:      "Indie Bundle",
		Price:      decimal.RequireFromString("5.00"),
		ListingFee: &fee,
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := ledger.recorded[0].Amount; !got.Equal(decimal.RequireFromString("10.01")) {
		t.Errorf("fee = %s, want 10.01 after rounding", got)
	}
}

func TestPublishDuplicateTitle(t *testing.T) {
	repo := newStubListingRepo()
	supplier := supplierFixture(enums.RoleSupplier, true)
	users := &stubUserGetter{users: map[uuid.UUID]*models.User{supplier.ID: supplier}}
	ledger := &stubFeeRecorder{}
	svc := newListingService(t, repo, users, ledger)

	input := PublishInput{SupplierID: supplier.ID, Title: "Same Title", Price: decimal.RequireFromString("9.99")}
	if _, err := svc.Publish(context.Background(), input); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	_, err := svc.Publish(context.Background(), input)
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(ledger.recorded) != 1 {
		t.Errorf("duplicate publish must not record a second fee, got %d", len(ledger.recorded))
	}
}

func TestPublishRejectsNonSupplier(t *testing.T) {
	repo := newStubListingRepo()
	customer := supplierFixture(enums.RoleCustomer, true)
	users := &stubUserGetter{users: map[uuid.UUID]*models.User{customer.ID: customer}}
	svc := newListingService(t, repo, users, &stubFeeRecorder{})

	_, err := svc.Publish(context.Background(), PublishInput{
		SupplierID: customer.ID,
		Title:      "Not Allowed",
		Price:      decimal.RequireFromString("1.00"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPublishRejectsInactiveSupplier(t *testing.T) {
	repo := newStubListingRepo()
	supplier := supplierFixture(enums.RoleSupplier, false)
	users := &stubUserGetter{users: map[uuid.UUID]*models.User{supplier.ID: supplier}}
	svc := newListingService(t, repo, users, &stubFeeRecorder{})

	_, err := svc.Publish(context.Background(), PublishInput{
		SupplierID: supplier.ID,
		Title:      "Dormant",
		Price:      decimal.RequireFromString("1.00"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestPublishUnknownSupplier(t *testing.T) {
	repo := newStubListingRepo()
	users := &stubUserGetter{users: map[uuid.UUID]*models.User{}}
	svc := newListingService(t, repo, users, &stubFeeRecorder{})

	_, err := svc.Publish(context.Background(), PublishInput{
		SupplierID: uuid.New(),
		Title:      "Ghost",
		Price:      decimal.RequireFromString("1.00"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateRejectsTakenTitle(t *testing.T) {
	repo := newStubListingRepo()
	supplier := supplierFixture(enums.RoleSupplier, true)
	users := &stubUserGetter{users: map[uuid.UUID]*models.User{supplier.ID: supplier}}
	svc := newListingService(t, repo, users, &stubFeeRecorder{})

	first, err := svc.Publish(context.Background(), PublishInput{SupplierID: supplier.ID, Title: "First", Price: decimal.RequireFromString("1.00")})
	if err != nil {
		t.Fatalf("publish first: %v", err)
	}
	if _, err := svc.Publish(context.Background(), PublishInput{SupplierID: supplier.ID, Title: "Second", Price: decimal.RequireFromString("1.00")}); err != nil {
		t.Fatalf("publish second: %v", err)
	}

	taken := "Second"
	_, err = svc.Update(context.Background(), first.ID, UpdateInput{Title: &taken})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// renaming to its own title is fine
	same := "First"
	if _, err := svc.Update(context.Background(), first.ID, UpdateInput{Title: &same}); err != nil {
		t.Fatalf("self rename: %v", err)
	}
}

func TestSetActiveUnknownListing(t *testing.T) {
	repo := newStubListingRepo()
	users := &stubUserGetter{users: map[uuid.UUID]*models.User{}}
	svc := newListingService(t, repo, users, &stubFeeRecorder{})

	err := svc.SetActive(context.Background(), uuid.New(), false)
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
