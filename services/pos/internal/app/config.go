package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/shopspring/decimal"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Settings is the typed view of the service configuration.
type Settings struct {
	Driver        string
	NATSURL       string
	StreamEnabled bool
	TaxRate       decimal.Decimal
	SLA           kitchen.SLA
	TickInterval  time.Duration
	AuthSecret    string
	SeedMenu      bool
}

// LoadSettings reads and validates every key the service uses. Missing keys
// take their defaults; malformed ones are an error.
func LoadSettings(config *apt.Config) (Settings, error) {
	return parseSettings(func(key string) string {
		v, _ := config.GetString(key)
		return v
	})
}

func parseSettings(get func(key string) string) (Settings, error) {
	s := Settings{
		Driver:       DriverMongo,
		TaxRate:      decimal.Zero,
		SLA:          kitchen.DefaultSLA(),
		TickInterval: kitchen.DefaultTickInterval,
		SeedMenu:     true,
	}

	if v := get("db.driver"); v != "" {
		if v != DriverMongo && v != DriverMemory {
			return s, fmt.Errorf("unknown db.driver %q", v)
		}
		s.Driver = v
	}

	s.NATSURL = get("nats.url")

	var err error
	if s.StreamEnabled, err = boolSetting(get, "nats.stream.enabled", false); err != nil {
		return s, err
	}
	if s.SeedMenu, err = boolSetting(get, "seeding.menu", true); err != nil {
		return s, err
	}

	if v := get("pos.tax_rate"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return s, fmt.Errorf("invalid pos.tax_rate %q", v)
		}
		s.TaxRate = rate
	}

	for key, target := range map[string]*int{
		"kitchen.sla.dine_in":  &s.SLA.DineIn,
		"kitchen.sla.takeaway": &s.SLA.Takeaway,
		"kitchen.sla.delivery": &s.SLA.Delivery,
	} {
		v := get(key)
		if v == "" {
			continue
		}
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return s, fmt.Errorf("invalid %s %q", key, v)
		}
		*target = minutes
	}

	if v := get("kitchen.tick_interval"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return s, fmt.Errorf("invalid kitchen.tick_interval %q", v)
		}
		s.TickInterval = d
	}

	s.AuthSecret = get("auth.secret")
	return s, nil
}

func boolSetting(get func(string) string, key string, def bool) (bool, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}
