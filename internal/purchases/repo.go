package purchases

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
)

// Repository manages persistence for purchases.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	FindByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (*models.Purchase, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, status *enums.PurchaseStatus) ([]models.Purchase, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Purchase, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Purchase, error)
	ListIDsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error)
	DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error)
	SumCompleted(ctx context.Context) (decimal.Decimal, error)
	SumCompletedBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error)
	CountByStatus(ctx context.Context, status enums.PurchaseStatus) (int64, error)
	ExistsCompleted(ctx context.Context, buyerID, listingID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a purchase repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("Listing").
		Where("id = ?", id).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindByIDForUpdate loads the purchase under a row lock so concurrent
// completions serialize; the loser sees the committed status.
func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	query := r.db.WithContext(ctx)
	// sqlite has no FOR UPDATE; its single writer covers the same race.
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var purchase models.Purchase
	err := query.
		Where("id = ?", id).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) FindByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Where("buyer_id = ? AND listing_id = ?", buyerID, listingID).
		First(&purchase).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Purchase{}).Error
}

func (r *repository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		Update("status", enums.PurchaseStatusCompleted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, status *enums.PurchaseStatus) ([]models.Purchase, error) {
	query := r.db.WithContext(ctx).
		Preload("Listing").
		Where("buyer_id = ?", buyerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var purchases []models.Purchase
	if err := query.Order("purchased_at DESC, id DESC").Find(&purchases).Error; err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *repository) ListByListing(ctx context.Context, listingID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		Order("purchased_at DESC, id DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *repository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Purchase, error) {
	var purchases []models.Purchase
	err := r.db.WithContext(ctx).
		Joins("JOIN listings ON listings.id = purchases.listing_id").
		Where("listings.supplier_id = ?", supplierID).
		Order("purchases.purchased_at DESC, purchases.id DESC").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

func (r *repository) ListIDsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("buyer_id = ?", buyerID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) DeleteByBuyer(ctx context.Context, buyerID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Delete(&models.Purchase{})
	return res.RowsAffected, res.Error
}

func (r *repository) SumCompleted(ctx context.Context) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("status = ?", enums.PurchaseStatusCompleted)
	return sumPricePaid(query)
}

func (r *repository) SumCompletedBySupplier(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Joins("JOIN listings ON listings.id = purchases.listing_id").
		Where("purchases.status = ? AND listings.supplier_id = ?", enums.PurchaseStatusCompleted, supplierID)
	return sumPricePaid(query)
}

func sumPricePaid(query *gorm.DB) (decimal.Decimal, error) {
	var raw *string
	if err := query.Select("SUM(price_paid)").Scan(&raw).Error; err != nil {
		return decimal.Zero, err
	}
	if raw == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*raw)
}

func (r *repository) CountByStatus(ctx context.Context, status enums.PurchaseStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *repository) ExistsCompleted(ctx context.Context, buyerID, listingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("buyer_id = ? AND listing_id = ? AND status = ?", buyerID, listingID, enums.PurchaseStatusCompleted).
		Count(&count).Error
	return count > 0, err
}
