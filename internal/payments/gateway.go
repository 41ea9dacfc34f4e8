package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// CaptureResult reports what the gateway settled for an external order.
// The captured amount is informational; the listing's recorded price is the
// source of truth for everything persisted downstream.
type CaptureResult struct {
	Completed bool
	Amount    decimal.Decimal
}

// Gateway captures an authorized external payment by its order reference.
type Gateway interface {
	Capture(ctx context.Context, externalRef string) (CaptureResult, error)
}
