package revsplit

import (
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/money"
)

// Breakdown is the result of splitting a sale between the platform and the
// supplier. Net is derived as Gross - Commission after each side has been
// rounded once, so Commission + Net always reconstructs Gross exactly.
type Breakdown struct {
	Gross          decimal.Decimal
	CommissionRate decimal.Decimal
	Commission     decimal.Decimal
	Net            decimal.Decimal
}

// Engine computes the platform/supplier split for a sale amount.
type Engine interface {
	Split(gross decimal.Decimal) (Breakdown, error)
	CommissionRate() decimal.Decimal
}

type engine struct {
	rate decimal.Decimal
}

// NewEngine builds a split engine for the given commission rate, expressed
// as a fraction (0.15 for fifteen percent).
func NewEngine(rate decimal.Decimal) (Engine, error) {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("commission rate must be between 0 and 1, got %s", rate)
	}
	return &engine{rate: rate}, nil
}

func (e *engine) CommissionRate() decimal.Decimal {
	return e.rate
}

func (e *engine) Split(gross decimal.Decimal) (Breakdown, error) {
	if gross.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "gross amount cannot be negative")
	}

	roundedGross := money.Round(gross)
	commission := money.Round(roundedGross.Mul(e.rate))
	net := roundedGross.Sub(commission)

	return Breakdown{
		Gross:          roundedGross,
		CommissionRate: e.rate,
		Commission:     commission,
		Net:            net,
	}, nil
}
