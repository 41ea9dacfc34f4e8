package platformledger

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
	"github.com/gamevault/gamevault-backend/pkg/pagination"
)

func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS platform_transactions (
  id TEXT PRIMARY KEY,
  kind TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  commission_rate NUMERIC,
  description TEXT NOT NULL DEFAULT '',
  user_id TEXT,
  purchase_id TEXT,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func createEntry(t *testing.T, db *gorm.DB, kind enums.PlatformTransactionKind, amount string, userID, purchaseID *uuid.UUID, at time.Time) *models.PlatformTransaction {
	t.Helper()

	entry := &models.PlatformTransaction{
		ID:         uuid.New(),
		Kind:       kind,
		Amount:     decimal.RequireFromString(amount),
		UserID:     userID,
		PurchaseID: purchaseID,
		CreatedAt:  at,
	}
	require.NoError(t, db.Create(entry).Error)
	return entry
}

func TestRepositorySumsAndCounts(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	userID := uuid.New()
	purchaseID := uuid.New()
	createEntry(t, db, enums.PlatformTransactionSaleCommission, "3.00", &userID, &purchaseID, now)
	createEntry(t, db, enums.PlatformTransactionListingFee, "25.00", &userID, nil, now)
	// detached entry still counts toward income
	createEntry(t, db, enums.PlatformTransactionSaleCommission, "1.50", nil, nil, now)

	total, err := repo.SumAll(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("29.50")), "total = %s", total)

	commissions, err := repo.SumByKind(context.Background(), enums.PlatformTransactionSaleCommission)
	require.NoError(t, err)
	assert.True(t, commissions.Equal(decimal.RequireFromString("4.50")), "commissions = %s", commissions)

	fees, err := repo.SumByKind(context.Background(), enums.PlatformTransactionListingFee)
	require.NoError(t, err)
	assert.True(t, fees.Equal(decimal.RequireFromString("25.00")), "fees = %s", fees)

	count, err := repo.CountByKind(context.Background(), enums.PlatformTransactionSaleCommission)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRepositorySumAllEmpty(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	total, err := repo.SumAll(context.Background())
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestRepositoryListPagination(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	userID := uuid.New()
	oldest := createEntry(t, db, enums.PlatformTransactionListingFee, "25.00", &userID, nil, now.Add(-2*time.Hour))
	middle := createEntry(t, db, enums.PlatformTransactionListingFee, "25.00", &userID, nil, now.Add(-time.Hour))
	newest := createEntry(t, db, enums.PlatformTransactionListingFee, "25.00", &userID, nil, now)

	first, cursor, err := repo.List(context.Background(), pagination.Params{Limit: 2}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, newest.ID, first[0].ID)
	assert.Equal(t, middle.ID, first[1].ID)
	require.NotEmpty(t, cursor)

	second, nextCursor, err := repo.List(context.Background(), pagination.Params{Limit: 2, Cursor: cursor}, ListFilters{})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, oldest.ID, second[0].ID)
	assert.Empty(t, nextCursor)
}

func TestRepositoryListFilters(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	userID := uuid.New()
	otherID := uuid.New()
	purchaseID := uuid.New()
	createEntry(t, db, enums.PlatformTransactionSaleCommission, "3.00", &userID, &purchaseID, now)
	createEntry(t, db, enums.PlatformTransactionListingFee, "25.00", &otherID, nil, now)

	kind := enums.PlatformTransactionSaleCommission
	entries, _, err := repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.PlatformTransactionSaleCommission, entries[0].Kind)

	entries, _, err = repo.List(context.Background(), pagination.Params{Limit: 10}, ListFilters{UserID: &otherID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, enums.PlatformTransactionListingFee, entries[0].Kind)
}

func TestRepositoryDetach(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	userID := uuid.New()
	purchaseID := uuid.New()
	linked := createEntry(t, db, enums.PlatformTransactionSaleCommission, "3.00", &userID, &purchaseID, now)
	owned := createEntry(t, db, enums.PlatformTransactionListingFee, "25.00", &userID, nil, now)

	count, err := repo.DetachPurchases(context.Background(), []uuid.UUID{purchaseID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	reloaded, err := repo.FindByID(context.Background(), linked.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.UserID)
	assert.Nil(t, reloaded.PurchaseID)
	assert.True(t, reloaded.Amount.Equal(decimal.RequireFromString("3.00")), "amount must survive detach")

	count, err = repo.DetachUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	reloaded, err = repo.FindByID(context.Background(), owned.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.UserID)

	total, err := repo.SumAll(context.Background())
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("28.00")), "income must not move on detach, got %s", total)
}

func TestRepositoryFindCommissionByPurchase(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewRepository(db)

	now := time.Now().UTC()
	userID := uuid.New()
	purchaseID := uuid.New()
	entry := createEntry(t, db, enums.PlatformTransactionSaleCommission, "3.00", &userID, &purchaseID, now)

	found, err := repo.FindCommissionByPurchase(context.Background(), purchaseID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, found.ID)

	_, err = repo.FindCommissionByPurchase(context.Background(), uuid.New())
	assert.Equal(t, gorm.ErrRecordNotFound, err)
}
