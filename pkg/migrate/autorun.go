package migrate

import (
	"context"

	"github.com/gamevault/gamevault-backend/pkg/db"
	"github.com/gamevault/gamevault-backend/pkg/logger"
)

// AutoRun applies pending migrations at startup when the feature flag is set.
// Failures here abort boot since the schema may be behind the binary.
func AutoRun(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}

	logg.Info(ctx, "running startup migrations")
	if err := Up(ctx, sqlDB); err != nil {
		return err
	}
	logg.Info(ctx, "startup migrations complete")
	return nil
}
