package listings

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/pkg/db/models"
)

// Repository manages persistence for listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ExistsActiveTitle(ctx context.Context, title string, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListActive(ctx context.Context) ([]models.Listing, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Listing, error)
	Search(ctx context.Context, term, category string) ([]models.Listing, error)
	CountActive(ctx context.Context) (int64, error)
	DeactivateAndDetachBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a listings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *repository) ExistsActiveTitle(ctx context.Context, title string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("active = ? AND LOWER(title) = ?", true, strings.ToLower(title))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
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

func (r *repository) ListActive(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("published_at DESC, id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *repository) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("supplier_id = ?", supplierID).
		Order("created_at DESC, id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *repository) Search(ctx context.Context, term, category string) ([]models.Listing, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if term != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var listings []models.Listing
	if err := query.Order("published_at DESC, id DESC").Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("active = ?", true).
		Count(&count).Error
	return count, err
}

// DeactivateAndDetachBySupplier turns off and orphans every listing owned by
// the supplier. Purchases keep their listing rows; only the owner link drops.
func (r *repository) DeactivateAndDetachBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("supplier_id = ?", supplierID).
		Updates(map[string]any{
			"active":      false,
			"supplier_id": nil,
		})
	return res.RowsAffected, res.Error
}
