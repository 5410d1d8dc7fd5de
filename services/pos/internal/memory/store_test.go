package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/appetiteclub/pos/services/pos/internal/fault"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/appetiteclub/pos/services/pos/internal/pos"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var t0 = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func testOrder(created time.Time, typ string, bill order.BillStatus) *order.Order {
	return &order.Order{
		ID:         uuid.New(),
		Type:       typ,
		Total:      decimal.NewFromInt(10),
		BillStatus: bill,
		Status:     order.StatusPending,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestInTxRollsBack(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	kept := testOrder(t0, "takeaway", order.BillUnpaid)
	if err := s.Orders().Create(ctx, kept); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	dropped := testOrder(t0, "takeaway", order.BillUnpaid)
	err := s.InTx(ctx, func(ctx context.Context) error {
		if err := s.Orders().Create(ctx, dropped); err != nil {
			return err
		}
		kept.BillStatus = order.BillPaid
		if err := s.Orders().Update(ctx, kept); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if _, err := s.Orders().FindByID(ctx, dropped.ID); !errors.Is(err, order.ErrOrderNotFound) {
		t.Errorf("rolled back order still present: %v", err)
	}
	got, err := s.Orders().FindByID(ctx, kept.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.BillStatus != order.BillUnpaid {
		t.Errorf("bill = %s, want UNPAID after rollback", got.BillStatus)
	}
}

func TestInTxNested(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	o := testOrder(t0, "takeaway", order.BillUnpaid)

	err := s.InTx(ctx, func(ctx context.Context) error {
		return s.InTx(ctx, func(ctx context.Context) error {
			return s.Orders().Create(ctx, o)
		})
	})
	if err != nil {
		t.Fatalf("nested tx: %v", err)
	}
	if _, err := s.Orders().FindByID(ctx, o.ID); err != nil {
		t.Errorf("order missing after commit: %v", err)
	}
}

func TestCreateConflict(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	o := testOrder(t0, "takeaway", order.BillUnpaid)
	_ = s.Orders().Create(ctx, o)

	err := s.Orders().Create(ctx, o)
	if !errors.Is(err, pos.ErrConflict) || pos.KindOf(err) != fault.KindConflict {
		t.Errorf("err = %v, want conflict", err)
	}
}

func TestStoredRecordsAreCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	o := testOrder(t0, "takeaway", order.BillUnpaid)
	_ = s.Orders().Create(ctx, o)

	o.BillStatus = order.BillPaid
	got, _ := s.Orders().FindByID(ctx, o.ID)
	if got.BillStatus != order.BillUnpaid {
		t.Errorf("caller mutation leaked into store")
	}
}

func TestOrderList(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	yesterday := t0.AddDate(0, 0, -1)
	for _, o := range []*order.Order{
		testOrder(t0.Add(-2*time.Hour), "dine_in", order.BillPaid),
		testOrder(t0.Add(-time.Hour), "takeaway", order.BillUnpaid),
		testOrder(t0, "dine_in", order.BillUnpaid),
		testOrder(yesterday, "delivery", order.BillUnpaid),
	} {
		if err := s.Orders().Create(ctx, o); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	from := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		filter order.Filter
		want   int
	}{
		{"all", order.Filter{}, 4},
		{"unpaid", order.Filter{BillStatus: order.BillUnpaid}, 3},
		{"dineIn", order.Filter{Type: "dine_in"}, 2},
		{"today", order.Filter{CreatedFrom: &from, CreatedTo: &to}, 3},
		{"unpaidToday", order.Filter{BillStatus: order.BillUnpaid, CreatedFrom: &from, CreatedTo: &to}, 2},
		{"limit", order.Filter{Limit: 2}, 2},
		{"cancelled", order.Filter{Status: order.StatusCancelled}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Orders().List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}

	all, _ := s.Orders().List(ctx, order.Filter{})
	if !all[0].CreatedAt.Equal(t0) || !all[3].CreatedAt.Equal(yesterday) {
		t.Errorf("orders are not newest first")
	}
}

func TestTicketList(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	orderID := uuid.New()
	tickets := []*kitchen.Ticket{
		{ID: uuid.New(), OrderID: orderID, Station: "tea", Status: "PENDING", CreatedAt: t0},
		{ID: uuid.New(), OrderID: orderID, Station: "kitchen", Status: "READY", CreatedAt: t0},
		{ID: uuid.New(), OrderID: uuid.New(), Station: "kitchen", Status: "PENDING", CreatedAt: t0.Add(-time.Minute)},
	}
	for _, tk := range tickets {
		if err := s.Tickets().Create(ctx, tk); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	byOrder, err := s.Tickets().FindByOrderID(ctx, orderID)
	if err != nil {
		t.Fatalf("find by order: %v", err)
	}
	if len(byOrder) != 2 || byOrder[0].Station != "kitchen" {
		t.Errorf("by order = %d tickets, first %s", len(byOrder), byOrder[0].Station)
	}

	open, _ := s.Tickets().List(ctx, kitchen.TicketFilter{Statuses: []string{"PENDING", "IN_PROGRESS"}})
	if len(open) != 2 || !open[0].CreatedAt.Before(open[1].CreatedAt) {
		t.Errorf("open tickets = %d, want 2 oldest first", len(open))
	}

	station, _ := s.Tickets().List(ctx, kitchen.TicketFilter{Station: "kitchen", Limit: 1})
	if len(station) != 1 {
		t.Errorf("limited station list = %d, want 1", len(station))
	}

	if err := s.Tickets().Update(ctx, &kitchen.Ticket{ID: uuid.New()}); !errors.Is(err, kitchen.ErrTicketNotFound) {
		t.Errorf("update unknown = %v", err)
	}
}

func TestPaymentList(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	orderID := uuid.New()
	payments := []*order.Payment{
		{ID: uuid.New(), OrderID: orderID, Amount: decimal.NewFromInt(50), Method: "cash", CreatedAt: t0.Add(time.Minute)},
		{ID: uuid.New(), OrderID: orderID, Amount: decimal.NewFromInt(20), Method: "card", CreatedAt: t0},
		{ID: uuid.New(), OrderID: uuid.New(), Amount: decimal.NewFromInt(5), Method: "cash", CreatedAt: t0.AddDate(0, 0, -1)},
	}
	for _, p := range payments {
		if err := s.Payments().Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	byOrder, _ := s.Payments().ListByOrder(ctx, orderID)
	if len(byOrder) != 2 || byOrder[0].Method != "card" {
		t.Errorf("by order not oldest first: %+v", byOrder)
	}

	from := t0.Add(-time.Hour)
	inRange, _ := s.Payments().List(ctx, order.PaymentFilter{From: &from})
	if len(inRange) != 2 {
		t.Errorf("in range = %d, want 2", len(inRange))
	}
	cash, _ := s.Payments().List(ctx, order.PaymentFilter{Method: "cash"})
	if len(cash) != 2 {
		t.Errorf("cash = %d, want 2", len(cash))
	}

	if err := s.Payments().Create(ctx, payments[0]); !errors.Is(err, pos.ErrConflict) {
		t.Errorf("duplicate payment = %v, want conflict", err)
	}
}

func TestMenuRepo(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	rice := &catalog.MenuItem{ID: uuid.New(), ShortCode: "R1", Name: "Rice", Category: "main", Station: "kitchen", Available: true}
	tea := &catalog.MenuItem{ID: uuid.New(), ShortCode: "T1", Name: "Tea", Category: "drink", Station: "tea"}
	for _, it := range []*catalog.MenuItem{rice, tea} {
		if err := s.Menu().Create(ctx, it); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	dup := &catalog.MenuItem{ID: uuid.New(), ShortCode: "r1", Name: "Other"}
	if err := s.Menu().Create(ctx, dup); !errors.Is(err, catalog.ErrDuplicateShortCode) {
		t.Errorf("duplicate short code = %v", err)
	}

	got, err := s.Menu().GetByShortCode(ctx, "t1")
	if err != nil || got.ID != tea.ID {
		t.Errorf("by short code = %v, %v", got, err)
	}

	tests := []struct {
		name   string
		filter catalog.Filter
		want   int
	}{
		{"all", catalog.Filter{}, 2},
		{"available", catalog.Filter{AvailableOnly: true}, 1},
		{"drinks", catalog.Filter{Category: "drink"}, 1},
		{"teaStation", catalog.Filter{Station: "tea"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := s.Menu().List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("len = %d, want %d", len(items), tt.want)
			}
		})
	}

	tea.Available = true
	if err := s.Menu().Save(ctx, tea); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Menu().Save(ctx, &catalog.MenuItem{ID: uuid.New()}); !errors.Is(err, catalog.ErrMenuItemNotFound) {
		t.Errorf("save unknown = %v", err)
	}
}

func TestMenuSeedsAreIdempotent(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	if err := catalog.ApplyMenuSeeds(ctx, s.Menu(), apt.NewNoopLogger()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	first, _ := s.Menu().List(ctx, catalog.Filter{})
	if len(first) == 0 {
		t.Fatal("no menu items seeded")
	}

	if err := catalog.ApplyMenuSeeds(ctx, s.Menu(), apt.NewNoopLogger()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	second, _ := s.Menu().List(ctx, catalog.Filter{})
	if len(second) != len(first) {
		t.Errorf("reseed changed item count %d -> %d", len(first), len(second))
	}
}

func TestCancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Orders().Create(ctx, testOrder(t0, "takeaway", order.BillUnpaid)); !errors.Is(err, context.Canceled) {
		t.Errorf("create with cancelled ctx = %v", err)
	}
}
