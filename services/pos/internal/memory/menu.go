package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/google/uuid"
)

type menuRepo struct{ s *Store }

func cloneItem(it *catalog.MenuItem) *catalog.MenuItem {
	cp := *it
	cp.Modifiers = slices.Clone(it.Modifiers)
	cp.LocalizedNames = maps.Clone(it.LocalizedNames)
	return &cp
}

func (r *menuRepo) shortCodeTaken(code string, except uuid.UUID) bool {
	for id, it := range r.s.menu {
		if id != except && strings.EqualFold(it.ShortCode, code) {
			return true
		}
	}
	return false
}

func (r *menuRepo) Create(ctx context.Context, item *catalog.MenuItem) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.menu[item.ID]; ok || r.shortCodeTaken(item.ShortCode, item.ID) {
			return catalog.ErrDuplicateShortCode
		}
		r.s.menu[item.ID] = cloneItem(item)
		return nil
	})
}

func (r *menuRepo) Save(ctx context.Context, item *catalog.MenuItem) error {
	return r.s.write(ctx, func() error {
		if _, ok := r.s.menu[item.ID]; !ok {
			return catalog.ErrMenuItemNotFound
		}
		if r.shortCodeTaken(item.ShortCode, item.ID) {
			return catalog.ErrDuplicateShortCode
		}
		r.s.menu[item.ID] = cloneItem(item)
		return nil
	})
}

func (r *menuRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	var found *catalog.MenuItem
	err := r.s.read(ctx, func() error {
		it, ok := r.s.menu[id]
		if !ok {
			return catalog.ErrMenuItemNotFound
		}
		found = cloneItem(it)
		return nil
	})
	return found, err
}

func (r *menuRepo) GetByShortCode(ctx context.Context, code string) (*catalog.MenuItem, error) {
	var found *catalog.MenuItem
	err := r.s.read(ctx, func() error {
		for _, it := range r.s.menu {
			if strings.EqualFold(it.ShortCode, code) {
				found = cloneItem(it)
				return nil
			}
		}
		return catalog.ErrMenuItemNotFound
	})
	return found, err
}

func (r *menuRepo) List(ctx context.Context, f catalog.Filter) ([]*catalog.MenuItem, error) {
	var out []*catalog.MenuItem
	err := r.s.read(ctx, func() error {
		for _, it := range r.s.menu {
			switch {
			case f.AvailableOnly && !it.Available:
				continue
			case f.Category != "" && it.Category != f.Category:
				continue
			case f.Station != "" && it.Station != f.Station:
				continue
			}
			out = append(out, cloneItem(it))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortCode < out[j].ShortCode })
	return out, nil
}
