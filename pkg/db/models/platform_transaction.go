package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamevault/gamevault-backend/pkg/enums"
)

// PlatformTransaction records platform-side income: a sale commission tied to
// exactly one purchase, or a flat listing fee tied to the supplier who paid it.
// Rows are append-only. UserID and PurchaseID are nullable so the deletion
// reconciler can detach a row while its amount keeps counting toward income.
type PlatformTransaction struct {
	ID             uuid.UUID                     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Kind           enums.PlatformTransactionKind `gorm:"column:kind;type:platform_transaction_kind_enum;not null"`
	Amount         decimal.Decimal               `gorm:"column:amount;type:numeric(12,2);not null"`
	CommissionRate *decimal.Decimal              `gorm:"column:commission_rate;type:numeric(5,4)"`
	Description    string                        `gorm:"column:description"`
	UserID         *uuid.UUID                    `gorm:"column:user_id;type:uuid;index"`
	PurchaseID     *uuid.UUID                    `gorm:"column:purchase_id;type:uuid;uniqueIndex"`
	CreatedAt      time.Time                     `gorm:"column:created_at;autoCreateTime"`
}
