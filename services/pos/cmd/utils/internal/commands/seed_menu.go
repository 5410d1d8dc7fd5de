package commands

import (
	"context"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/internal/catalog"
)

// SeedMenu applies the embedded menu seeds.
func SeedMenu(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	store, err := openStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer store.Stop(ctx)

	return catalog.ApplyMenuSeeds(ctx, store.Menu(), logger)
}
