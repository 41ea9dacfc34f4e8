package listings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gamevault/gamevault-backend/internal/platformledger"
	"github.com/gamevault/gamevault-backend/pkg/db/models"
	"github.com/gamevault/gamevault-backend/pkg/enums"
	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/money"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userGetter interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type feeRecorder interface {
	RecordListingFee(ctx context.Context, tx *gorm.DB, input platformledger.ListingFeeInput) (*models.PlatformTransaction, error)
}

// Service manages listing publication and catalog reads.
type Service interface {
	Publish(ctx context.Context, input PublishInput) (*models.Listing, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Listing, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdateMedia(ctx context.Context, id uuid.UUID, input MediaInput) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	Catalog(ctx context.Context) ([]models.Listing, error)
	ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Listing, error)
	Search(ctx context.Context, term, category string) ([]models.Listing, error)
}

// PublishInput carries a new listing. ListingFee nil means the configured
// default applies.
type PublishInput struct {
	SupplierID  uuid.UUID
	Title       string
	Description string
	Price       decimal.Decimal
	Category    string
	ListingFee  *decimal.Decimal
}

// UpdateInput carries mutable listing fields; nil means unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
}

// MediaInput carries object-storage URLs for a listing's artifacts.
type MediaInput struct {
	CoverImageURL *string
	PromoVideoURL *string
	DownloadURL   *string
	FileName      *string
	FileSizeBytes *int64
}

type service struct {
	repo       Repository
	tx         txRunner
	users      userGetter
	ledger     feeRecorder
	defaultFee decimal.Decimal
}

// NewService wires the listings service.
func NewService(repo Repository, tx txRunner, users userGetter, ledger feeRecorder, defaultFee decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user getter required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("fee recorder required")
	}
	if defaultFee.IsNegative() {
		return nil, fmt.Errorf("default listing fee cannot be negative")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		users:      users,
		ledger:     ledger,
		defaultFee: defaultFee,
	}, nil
}

// Publish creates an active listing and records its flat fee in the platform
// ledger inside the same transaction.
func (s *service) Publish(ctx context.Context, input PublishInput) (*models.Listing, error) {
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if input.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	supplier, err := s.users.FindByID(ctx, input.SupplierID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	if !supplier.Active {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "supplier account is deactivated")
	}
	if supplier.Role != enums.RoleSupplier {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only suppliers can publish listings")
	}

	fee := s.defaultFee
	if input.ListingFee != nil {
		if input.ListingFee.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing fee cannot be negative")
		}
		fee = money.Round(*input.ListingFee)
	}

	now := time.Now().UTC()
	supplierID := input.SupplierID
	listing := &models.Listing{
		SupplierID:  &supplierID,
		Title:       input.Title,
		Description: input.Description,
		Price:       money.Round(input.Price),
		Category:    input.Category,
		ListingFee:  fee,
		PublishedAt: &now,
		Active:      true,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		taken, err := repo.ExistsActiveTitle(ctx, input.Title, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check title uniqueness")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "an active listing already uses this title")
		}

		if err := repo.Create(ctx, listing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
		}

		_, err = s.ledger.RecordListingFee(ctx, tx, platformledger.ListingFeeInput{
			SupplierID:   input.SupplierID,
			Amount:       fee,
			ListingTitle: input.Title,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Listing, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	updates := map[string]any{}
	if input.Title != nil {
		if *input.Title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		updates["price"] = money.Round(*input.Price)
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	var updated *models.Listing
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.Title != nil {
			taken, err := repo.ExistsActiveTitle(ctx, *input.Title, &id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check title uniqueness")
			}
			if taken {
				return pkgerrors.New(pkgerrors.CodeConflict, "an active listing already uses this title")
			}
		}

		if err := repo.Update(ctx, id, updates); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
		}

		listing, err := repo.FindByID(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload listing")
		}
		updated = listing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	if active {
		listing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		taken, err := s.repo.ExistsActiveTitle(ctx, listing.Title, &id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check title uniqueness")
		}
		if taken {
			return pkgerrors.New(pkgerrors.CodeConflict, "an active listing already uses this title")
		}
	}

	if err := s.repo.Update(ctx, id, map[string]any{"active": active}); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing status")
	}
	return nil
}

func (s *service) UpdateMedia(ctx context.Context, id uuid.UUID, input MediaInput) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	updates := map[string]any{}
	if input.CoverImageURL != nil {
		updates["cover_image_url"] = *input.CoverImageURL
	}
	if input.PromoVideoURL != nil {
		updates["promo_video_url"] = *input.PromoVideoURL
	}
	if input.DownloadURL != nil {
		updates["download_url"] = *input.DownloadURL
	}
	if input.FileName != nil {
		updates["file_name"] = *input.FileName
	}
	if input.FileSizeBytes != nil {
		updates["file_size_bytes"] = *input.FileSizeBytes
	}
	if len(updates) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no media fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing media")
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return listing, nil
}

func (s *service) Catalog(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active listings")
	}
	return listings, nil
}

func (s *service) ListBySupplier(ctx context.Context, supplierID uuid.UUID) ([]models.Listing, error) {
	if supplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	listings, err := s.repo.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list supplier listings")
	}
	return listings, nil
}

func (s *service) Search(ctx context.Context, term, category string) ([]models.Listing, error) {
	listings, err := s.repo.Search(ctx, term, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search listings")
	}
	return listings, nil
}
