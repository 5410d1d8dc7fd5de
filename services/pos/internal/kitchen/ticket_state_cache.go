package kitchen

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/pos/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/pos/pkg/event"
	"github.com/google/uuid"
)

// TicketStateCache keeps the day's tickets in memory, indexed by station and
// status, for board queries and the urgency ticker.
type TicketStateCache struct {
	mu        sync.RWMutex
	tickets   map[uuid.UUID]*Ticket
	byStation map[string][]uuid.UUID
	byStatus  map[string][]uuid.UUID

	stream events.StreamConsumer // replay on startup
	repo   TicketRepository      // fallback when the stream is unavailable
	logger apt.Logger
}

func NewTicketStateCache(stream events.StreamConsumer, repo TicketRepository, logger apt.Logger) *TicketStateCache {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &TicketStateCache{
		tickets:   make(map[uuid.UUID]*Ticket),
		byStation: make(map[string][]uuid.UUID),
		byStatus:  make(map[string][]uuid.UUID),
		stream:    stream,
		repo:      repo,
		logger:    logger,
	}
}

// Warm loads tickets by replaying the change stream, falling back to the
// repository.
func (c *TicketStateCache) Warm(ctx context.Context) error {
	if c.stream != nil {
		if err := c.warmFromStream(ctx); err != nil {
			c.logger.Info("stream replay failed, falling back to repository", "error", err)
		} else {
			c.removeFinishedTickets()
			return nil
		}
	}

	if c.repo == nil {
		c.logger.Info("neither stream nor repo configured, cache remains empty")
		return nil
	}

	return c.WarmFromRepo(ctx)
}

func (c *TicketStateCache) warmFromStream(ctx context.Context) error {
	messages, err := c.stream.Fetch(ctx, 10000)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, msg := range messages {
		if err := c.applyLocked(msg.Data); err != nil {
			c.logger.Debug("skipping replayed message", "sequence", msg.Sequence, "error", err)
		}
	}

	c.logger.Info("cache warmed from stream", "messages", len(messages), "tickets", len(c.tickets))
	return nil
}

// WarmFromRepo loads every ticket still on the line from the repository.
func (c *TicketStateCache) WarmFromRepo(ctx context.Context) error {
	if c.repo == nil {
		return nil
	}

	tickets, err := c.repo.List(ctx, TicketFilter{Statuses: []string{
		kitchenstatus.Statuses.Pending.Code(),
		kitchenstatus.Statuses.InProgress.Code(),
		kitchenstatus.Statuses.Ready.Code(),
	}})
	if err != nil {
		return fmt.Errorf("warm ticket cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range tickets {
		c.setLocked(t)
	}

	c.logger.Info("cache warmed from repository", "count", len(tickets))
	return nil
}

// Apply consumes one change envelope. Non-ticket changes are ignored so it can
// share the changes topic with other consumers.
func (c *TicketStateCache) Apply(ctx context.Context, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyLocked(data)
}

func (c *TicketStateCache) applyLocked(data []byte) error {
	var env event.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Entity != event.EntityTicket {
		return nil
	}

	if env.Op == event.OpDelete {
		id, err := uuid.Parse(env.ID)
		if err != nil {
			return fmt.Errorf("decode ticket id: %w", err)
		}
		c.removeLocked(id)
		return nil
	}

	var t Ticket
	if err := json.Unmarshal(env.Data, &t); err != nil {
		return fmt.Errorf("decode ticket: %w", err)
	}
	if t.Status == kitchenstatus.Statuses.Cancelled.Code() {
		c.removeLocked(t.ID)
		return nil
	}
	c.setIfNewerLocked(&t)
	return nil
}

// removeFinishedTickets drops closed and cancelled tickets after a replay.
func (c *TicketStateCache) removeFinishedTickets() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for id, t := range c.tickets {
		if t.Status == kitchenstatus.Statuses.Closed.Code() || t.Status == kitchenstatus.Statuses.Cancelled.Code() {
			c.removeLocked(id)
			removed++
		}
	}
	c.logger.Info("removed finished tickets from cache", "count", removed)
}

// Prune drops finished tickets last touched before cutoff.
func (c *TicketStateCache) Prune(cutoff time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for id, t := range c.tickets {
		if !t.IsOpen() && t.Status != kitchenstatus.Statuses.Ready.Code() && t.UpdatedAt.Before(cutoff) {
			c.removeLocked(id)
			removed++
		}
	}
	return removed
}

// Set stores t unconditionally.
func (c *TicketStateCache) Set(t *Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(t)
}

// SetIfNewer stores t unless the cached copy has a later UpdatedAt.
func (c *TicketStateCache) SetIfNewer(t *Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setIfNewerLocked(t)
}

func (c *TicketStateCache) setIfNewerLocked(t *Ticket) bool {
	if old, ok := c.tickets[t.ID]; ok && old.UpdatedAt.After(t.UpdatedAt) {
		return false
	}
	c.setLocked(t)
	return true
}

func (c *TicketStateCache) setLocked(t *Ticket) {
	if t == nil {
		return
	}
	t = t.Clone()
	if old, ok := c.tickets[t.ID]; ok {
		c.removeFromIndex(c.byStation, old.Station, t.ID)
		c.removeFromIndex(c.byStatus, old.Status, t.ID)
	}
	c.tickets[t.ID] = t
	c.byStation[t.Station] = append(c.byStation[t.Station], t.ID)
	c.byStatus[t.Status] = append(c.byStatus[t.Status], t.ID)
}

func (c *TicketStateCache) Get(id uuid.UUID) *Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickets[id].Clone()
}

// Query returns copies of matching tickets in board order. Empty arguments
// match everything.
func (c *TicketStateCache) Query(station, status string) []*Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []uuid.UUID
	switch {
	case station != "":
		ids = c.byStation[station]
	case status != "":
		ids = c.byStatus[status]
	default:
		ids = make([]uuid.UUID, 0, len(c.tickets))
		for id := range c.tickets {
			ids = append(ids, id)
		}
	}

	result := make([]*Ticket, 0, len(ids))
	for _, id := range ids {
		t := c.tickets[id]
		if t == nil || (status != "" && t.Status != status) {
			continue
		}
		result = append(result, t.Clone())
	}
	sortForBoard(result)
	return result
}

// Open returns tickets still being prepared.
func (c *TicketStateCache) Open() []*Ticket {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []*Ticket
	for _, status := range []string{kitchenstatus.Statuses.Pending.Code(), kitchenstatus.Statuses.InProgress.Code()} {
		for _, id := range c.byStatus[status] {
			if t := c.tickets[id]; t != nil {
				result = append(result, t.Clone())
			}
		}
	}
	sortForBoard(result)
	return result
}

func (c *TicketStateCache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *TicketStateCache) removeLocked(id uuid.UUID) {
	t := c.tickets[id]
	if t == nil {
		return
	}
	c.removeFromIndex(c.byStation, t.Station, id)
	c.removeFromIndex(c.byStatus, t.Status, id)
	delete(c.tickets, id)
}

func (c *TicketStateCache) removeFromIndex(index map[string][]uuid.UUID, key string, id uuid.UUID) {
	ids := index[key]
	for i, v := range ids {
		if v == id {
			index[key] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

func (c *TicketStateCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tickets)
}

// sortForBoard orders by priority, then creation time.
func sortForBoard(ts []*Ticket) {
	sort.SliceStable(ts, func(i, j int) bool {
		ri, rj := priorityRank(ts[i].Priority), priorityRank(ts[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return ts[i].CreatedAt.Before(ts[j].CreatedAt)
	})
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}
