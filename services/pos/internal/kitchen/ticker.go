package kitchen

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/pos/pkg/event"
	"github.com/google/uuid"
)

const (
	DefaultTickInterval = 30 * time.Second
	finishedRetention   = time.Hour
)

// Ticker recomputes urgency for open tickets and publishes band changes.
type Ticker struct {
	cache     *TicketStateCache
	publisher events.Publisher
	clock     func() time.Time
	interval  time.Duration
	logger    apt.Logger

	mu   sync.Mutex
	last map[uuid.UUID]Urgency

	cancel context.CancelFunc
	done   chan struct{}
}

func NewTicker(cache *TicketStateCache, publisher events.Publisher, clock func() time.Time, interval time.Duration, logger apt.Logger) *Ticker {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if clock == nil {
		clock = time.Now
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{
		cache:     cache,
		publisher: publisher,
		clock:     clock,
		interval:  interval,
		logger:    logger,
		last:      make(map[uuid.UUID]Urgency),
	}
}

func (t *Ticker) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)
		tk := time.NewTicker(t.interval)
		defer tk.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-tk.C:
				t.Tick(runCtx)
			}
		}
	}()

	t.logger.Info("urgency ticker started", "interval", t.interval.String())
	return nil
}

func (t *Ticker) Stop(ctx context.Context) error {
	if t.cancel == nil {
		return nil
	}
	t.cancel()
	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Tick evaluates every open ticket once and returns how many changed band.
// The first evaluation of a ticket only records its band unless it is
// already past on_track.
func (t *Ticker) Tick(ctx context.Context) int {
	now := t.clock()
	open := t.cache.Open()

	t.mu.Lock()
	seen := make(map[uuid.UUID]bool, len(open))
	var changed []event.TicketUrgencyEvent
	for _, tk := range open {
		seen[tk.ID] = true
		timing := Evaluate(tk, now)
		prev, known := t.last[tk.ID]
		t.last[tk.ID] = timing.Urgency
		if prev == timing.Urgency || (!known && timing.Urgency == OnTrack) {
			continue
		}
		changed = append(changed, event.TicketUrgencyEvent{
			EventType:       event.EventTicketUrgencyChanged,
			OccurredAt:      now,
			TicketID:        tk.ID.String(),
			OrderID:         tk.OrderID.String(),
			QueueNumber:     tk.QueueNumber,
			Station:         tk.Station,
			AgeMinutes:      timing.AgeMinutes,
			SLAMinutes:      tk.SLAMinutes,
			Urgency:         string(timing.Urgency),
			PreviousUrgency: string(prev),
		})
	}
	for id := range t.last {
		if !seen[id] {
			delete(t.last, id)
		}
	}
	t.mu.Unlock()

	if pruned := t.cache.Prune(now.Add(-finishedRetention)); pruned > 0 {
		t.logger.Debug("pruned finished tickets", "count", pruned)
	}

	if t.publisher == nil {
		return len(changed)
	}
	for _, evt := range changed {
		payload, err := json.Marshal(evt)
		if err != nil {
			t.logger.Error("cannot encode urgency event", "ticket_id", evt.TicketID, "error", err)
			continue
		}
		if err := t.publisher.Publish(ctx, event.UrgencyTopic, payload); err != nil {
			t.logger.Error("cannot publish urgency event", "ticket_id", evt.TicketID, "error", err)
		}
	}
	return len(changed)
}
