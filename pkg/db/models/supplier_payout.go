package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamevault/gamevault-backend/pkg/enums"
)

// SupplierPayout is the per-sale amount owed to a supplier. One row exists
// per completed purchase (unique). GrossAmount == CommissionAmount + NetAmount
// at two decimal places; only Status and PaidAt change after creation.
type SupplierPayout struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PurchaseID       uuid.UUID          `gorm:"column:purchase_id;type:uuid;not null;uniqueIndex:uq_payout_purchase"`
	SupplierID       uuid.UUID          `gorm:"column:supplier_id;type:uuid;not null;index"`
	GrossAmount      decimal.Decimal    `gorm:"column:gross_amount;type:numeric(12,2);not null"`
	CommissionRate   decimal.Decimal    `gorm:"column:commission_rate;type:numeric(5,4);not null"`
	CommissionAmount decimal.Decimal    `gorm:"column:commission_amount;type:numeric(12,2);not null"`
	NetAmount        decimal.Decimal    `gorm:"column:net_amount;type:numeric(12,2);not null"`
	Status           enums.PayoutStatus `gorm:"column:status;type:payout_status_enum;not null"`
	SoldAt           time.Time          `gorm:"column:sold_at;not null"`
	PaidAt           *time.Time         `gorm:"column:paid_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
}
