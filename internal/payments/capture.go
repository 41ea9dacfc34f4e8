package payments

import (
	"context"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/gamevault/gamevault-backend/pkg/errors"
	"github.com/gamevault/gamevault-backend/pkg/logger"
)

// autoCaptureGateway approves every capture and logs the reference. It stands
// in until a real processor integration lands; purchases created without an
// external reference never reach it.
type autoCaptureGateway struct {
	logg *logger.Logger
}

// NewAutoCaptureGateway builds the default gateway used by the API binary.
func NewAutoCaptureGateway(logg *logger.Logger) Gateway {
	return &autoCaptureGateway{logg: logg}
}

func (g *autoCaptureGateway) Capture(ctx context.Context, externalRef string) (CaptureResult, error) {
	if externalRef == "" {
		return CaptureResult{}, pkgerrors.New(pkgerrors.CodeValidation, "external order reference required")
	}
	if g.logg != nil {
		ctx = g.logg.WithField(ctx, "external_ref", externalRef)
		g.logg.Info(ctx, "payment capture approved")
	}
	return CaptureResult{Completed: true, Amount: decimal.Zero}, nil
}
