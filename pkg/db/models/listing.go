package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is a sellable digital item published by a supplier. SupplierID is
// nullable: deleting a supplier detaches their listings instead of removing
// them, so completed purchases keep a valid listing reference.
type Listing struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID    *uuid.UUID      `gorm:"column:supplier_id;type:uuid;index"`
	Title         string          `gorm:"column:title;not null"`
	Description   string          `gorm:"column:description;type:text"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Category      string          `gorm:"column:category"`
	CoverImageURL string          `gorm:"column:cover_image_url"`
	PromoVideoURL *string         `gorm:"column:promo_video_url"`
	DownloadURL   *string         `gorm:"column:download_url"`
	FileName      *string         `gorm:"column:file_name"`
	FileSizeBytes *int64          `gorm:"column:file_size_bytes"`
	ListingFee    decimal.Decimal `gorm:"column:listing_fee;type:numeric(12,2);not null"`
	PublishedAt   *time.Time      `gorm:"column:published_at"`
	Active        bool            `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
