package enums

import "fmt"

// PlatformTransactionKind maps to the platform_transaction_kind_enum enum in Postgres.
// Sale commissions are always created against a purchase; listing fees never are.
type PlatformTransactionKind string

const (
	PlatformTransactionSaleCommission PlatformTransactionKind = "sale_commission"
	PlatformTransactionListingFee     PlatformTransactionKind = "listing_fee"
)

var validPlatformTransactionKinds = []PlatformTransactionKind{
	PlatformTransactionSaleCommission,
	PlatformTransactionListingFee,
}

// IsValid reports whether the value matches the canonical transaction kind enum.
func (k PlatformTransactionKind) IsValid() bool {
	for _, candidate := range validPlatformTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePlatformTransactionKind converts raw input into PlatformTransactionKind.
func ParsePlatformTransactionKind(value string) (PlatformTransactionKind, error) {
	for _, candidate := range validPlatformTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid platform transaction kind %q", value)
}
