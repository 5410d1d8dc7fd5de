package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/cmd/utils/internal/seeding"
)

// ClearDemo removes the orders created by seed-demo with their tickets and
// payments.
func ClearDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	store, err := openStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer store.Stop(ctx)

	n, err := store.PurgeCreatedBy(ctx, seeding.DemoActor.ID)
	if err != nil {
		return fmt.Errorf("clear demo orders: %w", err)
	}
	logger.Info("Deleted demo orders", "count", n)
	return nil
}
