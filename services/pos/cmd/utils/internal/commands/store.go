package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/internal/mongo"
)

// openStore connects to the database named by db.mongo.url and db.mongo.name.
// Callers must Stop the returned store.
func openStore(ctx context.Context, config *apt.Config, logger apt.Logger) (*mongo.Store, error) {
	store := mongo.NewStore(config, logger)
	if err := store.Start(ctx); err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	return store, nil
}
