package purchases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
)

func setupPurchasesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  tax_id TEXT,
  payout_email TEXT,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	listings := `
CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  supplier_id TEXT,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  cover_image_url TEXT,
  promo_video_url TEXT,
  download_url TEXT,
  file_name TEXT,
  file_size_bytes INTEGER,
  listing_fee NUMERIC NOT NULL DEFAULT 0,
  published_at DATETIME,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	purchases := `
CREATE TABLE IF NOT EXISTS purchases (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  listing_id TEXT NOT NULL,
  price_paid NUMERIC NOT NULL,
  payment_method TEXT NOT NULL,
  external_order_ref TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  purchased_at DATETIME NOT NULL,
  created_at DATETIME,
  CONSTRAINT uq_purchase_buyer_listing UNIQUE (buyer_id, listing_id)
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(listings).Error)
	require.NoError(t, db.Exec(purchases).Error)
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, role enums.Role) *models.User {
	t.Helper()

	user := &models.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        fmt.Sprintf("%s@test.example", uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         role,
		Active:       true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func newTestListing(t *testing.T, db *gorm.DB, supplier *models.User, price string) *models.Listing {
	t.Helper()

	supplierID := supplier.ID
	listing := &models.Listing{
		ID:         uuid.New(),
		SupplierID: &supplierID,
		Title:      fmt.Sprintf("Listing %s", uuid.NewString()[:8]),
		Price:      decimal.RequireFromString(price),
		ListingFee: decimal.RequireFromString("25.00"),
		Active:     true,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func newTestPurchase(t *testing.T, db *gorm.DB, buyer *models.User, listing *models.Listing, status enums.PurchaseStatus, at time.Time) *models.Purchase {
	t.Helper()

	purchase := &models.Purchase{
		ID:            uuid.New(),
		BuyerID:       buyer.ID,
		ListingID:     listing.ID,
		PricePaid:     listing.Price,
		PaymentMethod: "card",
		Status:        status,
		PurchasedAt:   at,
		CreatedAt:     at,
	}
	require.NoError(t, db.Create(purchase).Error)
	return purchase
}

func TestRepositoryMarkCompleted(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	supplier := newTestUser(t, db, enums.RoleSupplier)
	buyer := newTestUser(t, db, enums.RoleCustomer)
	listing := newTestListing(t, db, supplier, "20.00")
	purchase := newTestPurchase(t, db, buyer, listing, enums.PurchaseStatusPending, time.Now().UTC())

	require.NoError(t, repo.MarkCompleted(context.Background(), purchase.ID))

	reloaded, err := repo.FindByID(context.Background(), purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PurchaseStatusCompleted, reloaded.Status)

	err = repo.MarkCompleted(context.Background(), uuid.New())
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}

func TestRepositoryUniqueBuyerListing(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	supplier := newTestUser(t, db, enums.RoleSupplier)
	buyer := newTestUser(t, db, enums.RoleCustomer)
	listing := newTestListing(t, db, supplier, "10.00")
	newTestPurchase(t, db, buyer, listing, enums.PurchaseStatusPending, time.Now().UTC())

	dup := &models.Purchase{
		ID:            uuid.New(),
		BuyerID:       buyer.ID,
		ListingID:     listing.ID,
		PricePaid:     listing.Price,
		PaymentMethod: "card",
		Status:        enums.PurchaseStatusPending,
		PurchasedAt:   time.Now().UTC(),
	}
	err := repo.Create(context.Background(), dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE")
}

func TestRepositoryListByBuyerOrdering(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	supplier := newTestUser(t, db, enums.RoleSupplier)
	buyer := newTestUser(t, db, enums.RoleCustomer)
	older := newTestListing(t, db, supplier, "5.00")
	newer := newTestListing(t, db, supplier, "7.00")

	now := time.Now().UTC()
	newTestPurchase(t, db, buyer, older, enums.PurchaseStatusCompleted, now.Add(-time.Hour))
	newTestPurchase(t, db, buyer, newer, enums.PurchaseStatusCompleted, now)

	status := enums.PurchaseStatusCompleted
	list, err := repo.ListByBuyer(context.Background(), buyer.ID, &status)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ListingID)
	assert.Equal(t, older.ID, list[1].ListingID)
}

func TestRepositorySums(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	supplierA := newTestUser(t, db, enums.RoleSupplier)
	supplierB := newTestUser(t, db, enums.RoleSupplier)
	buyer := newTestUser(t, db, enums.RoleCustomer)

	listingA := newTestListing(t, db, supplierA, "20.00")
	listingB := newTestListing(t, db, supplierB, "9.99")
	pendingListing := newTestListing(t, db, supplierA, "50.00")

	now := time.Now().UTC()
	newTestPurchase(t, db, buyer, listingA, enums.PurchaseStatusCompleted, now)
	newTestPurchase(t, db, buyer, listingB, enums.PurchaseStatusCompleted, now)
	newTestPurchase(t, db, buyer, pendingListing, enums.PurchaseStatusPending, now)

	total, err := repo.SumCompleted(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("29.99")), "total = %s", total)

	bySupplier, err := repo.SumCompletedBySupplier(context.Background(), supplierA.ID)
	require.NoError(t, err)
	assert.True(t, bySupplier.Equal(decimal.RequireFromString("20.00")), "supplier total = %s", bySupplier)

	empty, err := repo.SumCompletedBySupplier(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestRepositoryDeleteByBuyer(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	supplier := newTestUser(t, db, enums.RoleSupplier)
	buyer := newTestUser(t, db, enums.RoleCustomer)
	other := newTestUser(t, db, enums.RoleCustomer)
	listing := newTestListing(t, db, supplier, "10.00")
	listingTwo := newTestListing(t, db, supplier, "12.00")

	now := time.Now().UTC()
	newTestPurchase(t, db, buyer, listing, enums.PurchaseStatusCompleted, now)
	newTestPurchase(t, db, buyer, listingTwo, enums.PurchaseStatusPending, now)
	kept := newTestPurchase(t, db, other, listing, enums.PurchaseStatusCompleted, now)

	count, err := repo.DeleteByBuyer(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	ids, err := repo.ListIDsByBuyer(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = repo.FindByID(context.Background(), kept.ID)
	assert.NoError(t, err)
}

func TestRepositoryExistsCompleted(t *testing.T) {
	db := setupPurchasesTestDB(t)
	repo := NewRepository(db)

	supplier := newTestUser(t, db, enums.RoleSupplier)
	buyer := newTestUser(t, db, enums.RoleCustomer)
	listing := newTestListing(t, db, supplier, "15.00")
	newTestPurchase(t, db, buyer, listing, enums.PurchaseStatusPending, time.Now().UTC())

	owned, err := repo.ExistsCompleted(context.Background(), buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.False(t, owned)

	require.NoError(t, repo.MarkCompleted(context.Background(), mustFindPurchaseID(t, repo, buyer.ID, listing.ID)))

	owned, err = repo.ExistsCompleted(context.Background(), buyer.ID, listing.ID)
	require.NoError(t, err)
	assert.True(t, owned)
}

func mustFindPurchaseID(t *testing.T, repo Repository, buyerID, listingID uuid.UUID) uuid.UUID {
	t.Helper()
	p, err := repo.FindByBuyerAndListing(context.Background(), buyerID, listingID)
	require.NoError(t, err)
	return p.ID
}
