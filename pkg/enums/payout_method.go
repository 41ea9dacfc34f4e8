package enums

import "fmt"

// PayoutMethod identifies how a supplier settlement is disbursed.
type PayoutMethod string

const (
	PayoutMethodElectronic   PayoutMethod = "electronic_transfer"
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
)

var validPayoutMethods = []PayoutMethod{
	PayoutMethodElectronic,
	PayoutMethodBankTransfer,
}

// IsValid reports whether the value matches the canonical payout method enum.
func (m PayoutMethod) IsValid() bool {
	for _, candidate := range validPayoutMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePayoutMethod converts raw input into PayoutMethod.
func ParsePayoutMethod(value string) (PayoutMethod, error) {
	for _, candidate := range validPayoutMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout method %q", value)
}
