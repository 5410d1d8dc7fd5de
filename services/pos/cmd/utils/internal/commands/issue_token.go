package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/internal/auth"
)

const defaultTokenTTL = 12 * time.Hour

// IssueToken signs a staff token with auth.secret. The actor comes from
// token.actor, token.name and token.role; token.ttl bounds its lifetime.
func IssueToken(config *apt.Config) (string, error) {
	secret, _ := config.GetString("auth.secret")
	if secret == "" {
		return "", errors.New("auth.secret is required")
	}

	actorID, _ := config.GetString("token.actor")
	if actorID == "" {
		return "", errors.New("token.actor is required")
	}

	ttl := defaultTokenTTL
	if v, _ := config.GetString("token.ttl"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return "", fmt.Errorf("invalid token.ttl %q", v)
		}
		ttl = d
	}

	return auth.Issue(auth.Actor{
		ID:          actorID,
		DisplayName: config.GetStringOrDef("token.name", actorID),
		Role:        config.GetStringOrDef("token.role", "staff"),
	}, secret, ttl)
}
