package catalog

import (
	"fmt"
	"strings"

	"github.com/appetiteclub/pos/pkg/enums/station"
	"github.com/appetiteclub/pos/services/pos/internal/fault"
	"github.com/google/uuid"
)

var ErrInvalidMenuItem = fault.Validation("invalid menu item")

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validate checks a menu item before it is created or saved.
func Validate(item *MenuItem) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(item.ShortCode) == "" {
		errs = append(errs, ValidationError{Field: "short_code", Message: "short_code is required"})
	}
	if strings.TrimSpace(item.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required"})
	}
	for lang, name := range item.LocalizedNames {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("localized_names.%s", lang),
				Message: "name cannot be empty",
			})
		}
	}
	if item.Price.IsNegative() {
		errs = append(errs, ValidationError{Field: "price", Message: "price cannot be negative"})
	}
	if station.ByName(item.Station) == nil {
		errs = append(errs, ValidationError{Field: "station", Message: "station must be kitchen or tea"})
	}

	seen := make(map[uuid.UUID]bool, len(item.Modifiers))
	for i, mod := range item.Modifiers {
		if strings.TrimSpace(mod.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("modifiers[%d].name", i),
				Message: "modifier name is required",
			})
		}
		if mod.Price.IsNegative() {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("modifiers[%d].price", i),
				Message: "modifier price cannot be negative",
			})
		}
		if mod.ID != uuid.Nil {
			if seen[mod.ID] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("modifiers[%d].id", i),
					Message: "duplicate modifier id",
				})
			}
			seen[mod.ID] = true
		}
	}

	return errs
}
