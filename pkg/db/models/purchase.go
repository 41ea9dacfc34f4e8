package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamevault/gamevault-backend/pkg/enums"
)

// Purchase is one buyer's transaction for one listing. At most one purchase
// may exist per (buyer, listing) pair; the lifecycle service enforces this on
// top of the uq_purchase_buyer_listing constraint.
type Purchase struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID          uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:uq_purchase_buyer_listing"`
	ListingID        uuid.UUID            `gorm:"column:listing_id;type:uuid;not null;uniqueIndex:uq_purchase_buyer_listing"`
	PricePaid        decimal.Decimal      `gorm:"column:price_paid;type:numeric(12,2);not null"`
	PaymentMethod    string               `gorm:"column:payment_method;not null"`
	ExternalOrderRef *string              `gorm:"column:external_order_ref"`
	Status           enums.PurchaseStatus `gorm:"column:status;type:purchase_status_enum;not null"`
	PurchasedAt      time.Time            `gorm:"column:purchased_at;not null"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`

	Listing *Listing `gorm:"foreignKey:ListingID"`
}
