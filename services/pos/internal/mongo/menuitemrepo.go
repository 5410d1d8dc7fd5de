package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MenuItemRepo implements catalog.Repo. It exposes the database so menu
// seeds can be tracked alongside the items.
type MenuItemRepo struct {
	store *Store
}

func (r *MenuItemRepo) collection() *mongo.Collection {
	return r.store.collection(menuCollection)
}

func (r *MenuItemRepo) GetDatabase() *mongo.Database {
	return r.store.db
}

func (r *MenuItemRepo) Create(ctx context.Context, item *catalog.MenuItem) error {
	if _, err := r.collection().InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", catalog.ErrDuplicateShortCode, item.ShortCode)
		}
		return mapErr(err, "create menu item")
	}
	return nil
}

func (r *MenuItemRepo) Save(ctx context.Context, item *catalog.MenuItem) error {
	result, err := r.collection().ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", catalog.ErrDuplicateShortCode, item.ShortCode)
		}
		return mapErr(err, "update menu item")
	}
	if result.MatchedCount == 0 {
		return catalog.ErrMenuItemNotFound
	}
	return nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByShortCode matches case-insensitively.
func (r *MenuItemRepo) GetByShortCode(ctx context.Context, code string) (*catalog.MenuItem, error) {
	pattern := "^" + regexp.QuoteMeta(code) + "$"
	return r.findOne(ctx, bson.M{"short_code": primitive.Regex{Pattern: pattern, Options: "i"}})
}

func (r *MenuItemRepo) List(ctx context.Context, filter catalog.Filter) ([]*catalog.MenuItem, error) {
	query := bson.M{}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Station != "" {
		query["station"] = filter.Station
	}
	if filter.AvailableOnly {
		query["available"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "short_code", Value: 1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, mapErr(err, "list menu items")
	}
	defer cursor.Close(ctx)

	var items []*catalog.MenuItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, mapErr(err, "decode menu items")
	}
	return items, nil
}

func (r *MenuItemRepo) findOne(ctx context.Context, query bson.M) (*catalog.MenuItem, error) {
	var item catalog.MenuItem
	err := r.collection().FindOne(ctx, query).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrMenuItemNotFound
		}
		return nil, mapErr(err, "find menu item")
	}
	return &item, nil
}
