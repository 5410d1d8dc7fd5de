package commands

import (
	"context"

	"github.com/appetiteclub/apt"
)

// ResetDB drops every POS collection and recreates the indexes. USE WITH CAUTION.
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("DANGER: this drops every POS collection and cannot be undone")

	store, err := openStore(ctx, config, logger)
	if err != nil {
		return err
	}
	defer store.Stop(ctx)

	return store.Reset(ctx)
}
