package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
)

// Repository manages persistence for supplier payout entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.SupplierPayout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SupplierPayout, error)
	FindByPurchase(ctx context.Context, purchaseID uuid.UUID) (*models.SupplierPayout, error)
	FindListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *enums.PayoutStatus) ([]models.SupplierPayout, error)
	ListPending(ctx context.Context) ([]models.SupplierPayout, error)
	SumBySupplier(ctx context.Context, supplierID uuid.UUID, status enums.PayoutStatus) (decimal.Decimal, error)
	SumGrossBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error)
	SumCommissionBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error)
	CountByStatus(ctx context.Context, status enums.PayoutStatus) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PayoutStatus, paidAt *time.Time) error
	SettlePendingForSupplier(ctx context.Context, supplierID uuid.UUID, paidAt time.Time) (int64, error)
	DeleteBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
	DeleteByPurchaseIDs(ctx context.Context, purchaseIDs []uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.SupplierPayout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SupplierPayout, error) {
	var payout models.SupplierPayout
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) FindByPurchase(ctx context.Context, purchaseID uuid.UUID) (*models.SupplierPayout, error) {
	var payout models.SupplierPayout
	if err := r.db.WithContext(ctx).Where("purchase_id = ?", purchaseID).First(&payout).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

// FindListing resolves the listing a purchase references. Payout creation
// derives the supplier from the listing row inside the same transaction.
func (r *repository) FindListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", listingID).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) ListBySupplier(ctx context.Context, supplierID uuid.UUID, status *enums.PayoutStatus) ([]models.SupplierPayout, error) {
	query := r.db.WithContext(ctx).Where("supplier_id = ?", supplierID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var payouts []models.SupplierPayout
	if err := query.Order("sold_at DESC, id DESC").Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) ListPending(ctx context.Context) ([]models.SupplierPayout, error) {
	var payouts []models.SupplierPayout
	err := r.db.WithContext(ctx).
		Where("status = ?", enums.PayoutStatusPending).
		Order("sold_at ASC, id ASC").
		Find(&payouts).Error
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

func (r *repository) SumBySupplier(ctx context.Context, supplierID uuid.UUID, status enums.PayoutStatus) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SupplierPayout{}).
		Where("supplier_id = ? AND status = ?", supplierID, status)
	return sumColumn(query, "net_amount")
}

func (r *repository) SumGrossBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SupplierPayout{}).
		Where("supplier_id = ?", supplierID)
	return sumColumn(query, "gross_amount")
}

func (r *repository) SumCommissionBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SupplierPayout{}).
		Where("supplier_id = ?", supplierID)
	return sumColumn(query, "commission_amount")
}

func (r *repository) CountByStatus(ctx context.Context, status enums.PayoutStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SupplierPayout{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func sumColumn(query *gorm.DB, column string) (decimal.Decimal, error) {
	var raw *string
	if err := query.Select("SUM(" + column + ")").Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PayoutStatus, paidAt *time.Time) error {
	updates := map[string]any{
		"status":  status,
		"paid_at": paidAt,
	}
	res := r.db.WithContext(ctx).
		Model(&models.SupplierPayout{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SettlePendingForSupplier flips every pending entry for the supplier to paid
// with a single shared timestamp.
func (r *repository) SettlePendingForSupplier(ctx context.Context, supplierID uuid.UUID, paidAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.SupplierPayout{}).
		Where("supplier_id = ? AND status = ?", supplierID, enums.PayoutStatusPending).
		Updates(map[string]any{
			"status":  enums.PayoutStatusPaid,
			"paid_at": paidAt,
		})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Delete(&models.SupplierPayout{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByPurchaseIDs(ctx context.Context, purchaseIDs []uuid.UUID) (int64, error) {
	if len(purchaseIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("purchase_id IN ?", purchaseIDs).
		Delete(&models.SupplierPayout{})
	return res.RowsAffected, res.Error
}
