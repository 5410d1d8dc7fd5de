package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/cmd/utils/internal/seeding"
	"github.com/appetiteclub/pos/services/pos/internal/app"
	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/appetiteclub/pos/services/pos/internal/pos"
)

// SeedDemo creates the demo orders through the POS service, so tickets,
// payments and bill state are derived the same way live orders are.
func SeedDemo(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	settings, err := app.LoadSettings(config)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer store.Stop(ctx)

	if err := catalog.ApplyMenuSeeds(ctx, store.Menu(), logger); err != nil {
		return fmt.Errorf("seed menu: %w", err)
	}

	service := pos.NewService(store,
		pos.WithTaxRate(settings.TaxRate),
		pos.WithSLA(settings.SLA),
		pos.WithLogger(logger),
	)

	n, err := seeding.ApplyDemo(ctx, service, store.Menu(), logger)
	if err != nil {
		return err
	}
	logger.Info("Demo orders applied", "created", n, "scenarios", len(seeding.Scenarios))
	return nil
}
