package pos

import (
	"context"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/internal/auth"
)

// AuditEntry is a single staff action worth keeping: voids, payments and
// ticket transitions.
type AuditEntry struct {
	Actor     auth.Actor
	Action    string
	Target    string
	Detail    string
	Timestamp time.Time
	Success   bool
	Error     string
}

type AuditLogger struct {
	logger apt.Logger
}

func NewAuditLogger(logger apt.Logger) *AuditLogger {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &AuditLogger{logger: logger}
}

func (a *AuditLogger) Log(ctx context.Context, entry AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	a.logger.Info("audit",
		"request_id", apt.RequestIDFrom(ctx),
		"actor_id", entry.Actor.ID,
		"actor_role", entry.Actor.Role,
		"action", entry.Action,
		"target", entry.Target,
		"detail", entry.Detail,
		"success", entry.Success,
		"timestamp", entry.Timestamp.Format(time.RFC3339),
		"error", entry.Error,
	)
}

// LogResult records action on target, marking it failed when err is set.
func (a *AuditLogger) LogResult(ctx context.Context, action, target, detail string, at time.Time, err error) {
	entry := AuditEntry{
		Actor:     auth.ActorFrom(ctx),
		Action:    action,
		Target:    target,
		Detail:    detail,
		Timestamp: at,
		Success:   err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	a.Log(ctx, entry)
}
