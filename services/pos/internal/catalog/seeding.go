package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

const menuSeedApplication = "pos-menu"

//go:embed seed.json
var seedFile []byte

type menuSeedDocument struct {
	Items []menuItemSeed `json:"items"`
}

type menuItemSeed struct {
	ShortCode      string            `json:"short_code"`
	Name           string            `json:"name"`
	LocalizedNames map[string]string `json:"localized_names"`
	Price          decimal.Decimal   `json:"price"`
	Category       string            `json:"category"`
	Station        string            `json:"station"`
	Modifiers      []modifierSeed    `json:"modifiers"`
}

type modifierSeed struct {
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// seedNamespace keeps seeded ids stable across databases so tills holding
// cached menus keep working after a reset.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://appetite.club/pos/menu"))

func loadMenuSeeds() ([]menuItemSeed, error) {
	if len(seedFile) == 0 {
		return nil, errors.New("menu seed file is empty")
	}
	var doc menuSeedDocument
	if err := json.Unmarshal(seedFile, &doc); err != nil {
		return nil, fmt.Errorf("decode menu seed file: %w", err)
	}
	if len(doc.Items) == 0 {
		return nil, errors.New("menu seed file does not contain items")
	}
	return doc.Items, nil
}

func (s menuItemSeed) toMenuItem() *MenuItem {
	item := &MenuItem{
		ID:             uuid.NewSHA1(seedNamespace, []byte(s.ShortCode)),
		ShortCode:      s.ShortCode,
		Name:           s.Name,
		LocalizedNames: s.LocalizedNames,
		Price:          s.Price,
		Category:       s.Category,
		Station:        s.Station,
		Available:      true,
	}
	for _, m := range s.Modifiers {
		item.Modifiers = append(item.Modifiers, Modifier{
			ID:       uuid.NewSHA1(seedNamespace, []byte(s.ShortCode+"/"+m.Code)),
			Name:     m.Name,
			Price:    m.Price,
			Category: m.Category,
		})
	}
	return item
}

// ensure creates the item unless one with the same short code exists.
func (s menuItemSeed) ensure(ctx context.Context, repo Repo, logger apt.Logger) error {
	_, err := repo.GetByShortCode(ctx, s.ShortCode)
	if err == nil {
		logger.Debug("menu item already present", "short_code", s.ShortCode)
		return nil
	}
	if !errors.Is(err, ErrMenuItemNotFound) {
		return fmt.Errorf("lookup %s: %w", s.ShortCode, err)
	}

	item := s.toMenuItem()
	item.BeforeCreate()
	if errs := Validate(item); len(errs) > 0 {
		return fmt.Errorf("seed %s: %s %s", s.ShortCode, errs[0].Field, errs[0].Message)
	}
	return repo.Create(ctx, item)
}

// Seeds returns one seed per embedded menu item.
func Seeds(repo Repo, logger apt.Logger) ([]seed.Seed, error) {
	raw, err := loadMenuSeeds()
	if err != nil {
		return nil, err
	}

	defs := make([]seed.Seed, 0, len(raw))
	for _, s := range raw {
		item := s
		defs = append(defs, seed.Seed{
			ID:          fmt.Sprintf("2025-10-01_menu_%s", strings.ToLower(item.ShortCode)),
			Description: fmt.Sprintf("Ensure menu item %s exists", item.ShortCode),
			Run: func(ctx context.Context) error {
				return item.ensure(ctx, repo, logger)
			},
		})
	}
	return defs, nil
}

// ApplyMenuSeeds loads the embedded menu. Mongo-backed repos record applied
// seeds in the tracker collection; other repos run every seed, which is safe
// because each one is an ensure.
func ApplyMenuSeeds(ctx context.Context, repo Repo, logger apt.Logger) error {
	if repo == nil {
		return errors.New("menu repository is required")
	}
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	defs, err := Seeds(repo, logger)
	if err != nil {
		return err
	}

	if provider, ok := repo.(mongoDatabaseProvider); ok && provider.GetDatabase() != nil {
		logger.Info("Applying menu seeds", "count", len(defs))
		if err := seed.Apply(ctx, seed.NewMongoTracker(provider.GetDatabase()), defs, menuSeedApplication); err != nil {
			return fmt.Errorf("apply menu seeds: %w", err)
		}
		return nil
	}

	for _, d := range defs {
		if err := d.Run(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", d.ID, err)
		}
	}
	logger.Info("Menu seeds applied", "count", len(defs))
	return nil
}

type mongoDatabaseProvider interface {
	GetDatabase() *mongo.Database
}
