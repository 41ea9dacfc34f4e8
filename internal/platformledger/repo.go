package platformledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	"github.com/gamevault/gamevault-backend/pkg/pagination"
)

// Repository manages persistence for platform transactions. Rows are
// append-only; there are no update or delete operations besides the
// account-deletion detach.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.PlatformTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PlatformTransaction, error)
	FindCommissionByPurchase(ctx context.Context, purchaseID uuid.UUID) (*models.PlatformTransaction, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.PlatformTransaction, string, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PlatformTransaction, error)
	ListFeesByUser(ctx context.Context, userID uuid.UUID) ([]models.PlatformTransaction, error)
	SumAll(ctx context.Context) (decimal.Decimal, error)
	SumByKind(ctx context.Context, kind enums.PlatformTransactionKind) (decimal.Decimal, error)
	CountByKind(ctx context.Context, kind enums.PlatformTransactionKind) (int64, error)
	DetachUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DetachPurchases(ctx context.Context, purchaseIDs []uuid.UUID) (int64, error)
}

// ListFilters narrows ledger listings.
type ListFilters struct {
	Kind   *enums.PlatformTransactionKind
	UserID *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.PlatformTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PlatformTransaction, error) {
	var entry models.PlatformTransaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) FindCommissionByPurchase(ctx context.Context, purchaseID uuid.UUID) (*models.PlatformTransaction, error) {
	var entry models.PlatformTransaction
	err := r.db.WithContext(ctx).
		Where("purchase_id = ? AND kind = ?", purchaseID, enums.PlatformTransactionSaleCommission).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) ([]models.PlatformTransaction, string, error) {
	limit := pagination.Clamp(params.Limit)

	query := r.db.WithContext(ctx).Model(&models.PlatformTransaction{})
	if filters.Kind != nil {
		query = query.Where("kind = ?", *filters.Kind)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}

	cursor, err := pagination.ParseToken(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var entries []models.PlatformTransaction
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&entries).Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		nextCursor = pagination.NextToken(last.CreatedAt, last.ID)
	}
	return entries, nextCursor, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PlatformTransaction, error) {
	var entries []models.PlatformTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListFeesByUser(ctx context.Context, userID uuid.UUID) ([]models.PlatformTransaction, error) {
	var entries []models.PlatformTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, enums.PlatformTransactionListingFee).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumAll(ctx context.Context) (decimal.Decimal, error) {
	return r.sum(ctx, r.db.WithContext(ctx).Model(&models.PlatformTransaction{}))
}

func (r *repository) SumByKind(ctx context.Context, kind enums.PlatformTransactionKind) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.PlatformTransaction{}).
		Where("kind = ?", kind)
	return r.sum(ctx, query)
}

func (r *repository) sum(_ context.Context, query *gorm.DB) (decimal.Decimal, error) {
	var raw *string
	if err := query.Select("SUM(amount)").Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	total, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *repository) CountByKind(ctx context.Context, kind enums.PlatformTransactionKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PlatformTransaction{}).
		Where("kind = ?", kind).
		Count(&count).Error
	return count, err
}

func (r *repository) DetachUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PlatformTransaction{}).
		Where("user_id = ?", userID).
		Update("user_id", nil)
	return res.RowsAffected, res.Error
}

func (r *repository) DetachPurchases(ctx context.Context, purchaseIDs []uuid.UUID) (int64, error) {
	if len(purchaseIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.PlatformTransaction{}).
		Where("purchase_id IN ?", purchaseIDs).
		Updates(map[string]any{
			"purchase_id": nil,
			"user_id":     nil,
		})
	return res.RowsAffected, res.Error
}
