package report

import (
	"testing"
	"time"

	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	day      = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	riceID   = uuid.New()
	noodleID = uuid.New()
	teaID    = uuid.New()
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 14, hour, min, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func newOrder(created time.Time, typ string, bill order.BillStatus, status order.Status, items ...order.Item) *order.Order {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return &order.Order{
		ID:         uuid.New(),
		Type:       typ,
		Items:      items,
		Subtotal:   total,
		Total:      total,
		BillStatus: bill,
		Status:     status,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func line(id uuid.UUID, name string, qty int, price string) order.Item {
	return order.Item{LineID: uuid.New(), MenuItemID: id, Name: name, Quantity: qty, UnitPrice: dec(price)}
}

func sampleOrders() []*order.Order {
	return []*order.Order{
		newOrder(at(9, 15), "dine_in", order.BillPaid, order.StatusCompleted, line(riceID, "Rice", 2, "50")),
		newOrder(at(9, 45), "takeaway", order.BillUnpaid, order.StatusPending, line(noodleID, "Noodles", 1, "60")),
		newOrder(at(13, 0), "dine_in", order.BillPaid, order.StatusReady, line(noodleID, "Noodles", 2, "60")),
		newOrder(at(10, 0), "dine_in", order.BillUnpaid, order.StatusCancelled, line(riceID, "Rice", 10, "50")),
		newOrder(at(9, 0).Add(-10*time.Hour), "takeaway", order.BillPaid, order.StatusCompleted, line(teaID, "Tea", 1, "40")),
	}
}

func samplePayments() []*order.Payment {
	return []*order.Payment{
		{ID: uuid.New(), Amount: dec("100"), Method: "cash", CreatedAt: at(9, 20)},
		{ID: uuid.New(), Amount: dec("120"), Method: "card", CreatedAt: at(13, 5)},
		{ID: uuid.New(), Amount: dec("40"), Method: "cash", CreatedAt: at(0, 0).Add(-time.Hour)},
	}
}

func sampleTickets() []*kitchen.Ticket {
	return []*kitchen.Ticket{
		{ID: uuid.New(), Station: "kitchen", Status: "CLOSED", SLAMinutes: 15, CreatedAt: at(9, 15), StartedAt: ptr(at(9, 16)), CompletedAt: ptr(at(9, 26))},
		{ID: uuid.New(), Station: "kitchen", Status: "READY", SLAMinutes: 15, CreatedAt: at(9, 45), CompletedAt: ptr(at(10, 5))},
		{ID: uuid.New(), Station: "tea", Status: "PENDING", SLAMinutes: 15, CreatedAt: at(13, 0)},
		{ID: uuid.New(), Station: "tea", Status: "CLOSED", SLAMinutes: 15, CreatedAt: at(0, 0).Add(-time.Hour), CompletedAt: ptr(at(0, 30))},
	}
}

func TestDaily(t *testing.T) {
	s := Daily(sampleOrders(), day)

	if s.Date != "2025-03-14" {
		t.Errorf("date = %s", s.Date)
	}
	if s.OrderCount != 3 {
		t.Errorf("order count = %d, want 3", s.OrderCount)
	}
	if !s.Sales.Equal(dec("280")) {
		t.Errorf("sales = %s, want 280", s.Sales)
	}
	if !s.AverageOrder.Equal(dec("93.33")) {
		t.Errorf("average = %s, want 93.33", s.AverageOrder)
	}
	if len(s.Hourly) != 24 {
		t.Fatalf("hourly buckets = %d, want 24", len(s.Hourly))
	}
	nine := s.Hourly[9]
	if nine.Hour != "09:00" || nine.Orders != 2 || !nine.Sales.Equal(dec("160")) {
		t.Errorf("09:00 bucket = %+v", nine)
	}
	if s.Hourly[13].Orders != 1 || s.Hourly[10].Orders != 0 {
		t.Errorf("13:00 = %d, 10:00 = %d", s.Hourly[13].Orders, s.Hourly[10].Orders)
	}
	if len(s.PopularItems) != 2 || s.PopularItems[0].Name != "Noodles" || s.PopularItems[0].Quantity != 3 {
		t.Errorf("popular = %+v", s.PopularItems)
	}
}

func TestDailyEmpty(t *testing.T) {
	s := Daily(nil, day)
	if s.OrderCount != 0 || !s.AverageOrder.IsZero() || len(s.PopularItems) != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestSales(t *testing.T) {
	from := at(0, 0)
	to := from.AddDate(0, 0, 1)
	r := Sales(sampleOrders(), samplePayments(), from, to)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"orderCount", r.OrderCount, 3},
		{"paidOrders", r.PaidOrders, 2},
		{"revenue", r.Revenue.String(), "220"},
		{"average", r.AverageOrder.String(), "73.33"},
		{"dineIn", r.OrderTypes["dine_in"], 2},
		{"takeaway", r.OrderTypes["takeaway"], 1},
		{"cash", r.PaymentMethods["cash"].String(), "100"},
		{"card", r.PaymentMethods["card"].String(), "120"},
		{"topItems", len(r.TopItems), 2},
		{"topItem", r.TopItems[0].Name, "Noodles"},
		{"topRevenue", r.TopItems[0].Revenue.String(), "180"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestSalesTopItemsLimit(t *testing.T) {
	var orders []*order.Order
	for i := 0; i < 12; i++ {
		orders = append(orders, newOrder(at(10, i), "takeaway", order.BillPaid, order.StatusCompleted,
			line(uuid.New(), string(rune('A'+i)), 1, "10")))
	}

	r := Sales(orders, nil, at(0, 0), at(23, 59))
	if len(r.TopItems) != topItemsLimit {
		t.Errorf("top items = %d, want %d", len(r.TopItems), topItemsLimit)
	}
	if r.TopItems[0].Name != "A" {
		t.Errorf("ties break by name, first = %s", r.TopItems[0].Name)
	}
}

func TestKitchen(t *testing.T) {
	k := Kitchen(sampleTickets(), at(0, 0), at(0, 0).AddDate(0, 0, 1))

	if k.Tickets != 3 || k.Completed != 2 {
		t.Errorf("tickets = %d completed = %d, want 3 and 2", k.Tickets, k.Completed)
	}
	if k.AvgCookMinutes != 15 {
		t.Errorf("avg cook = %v, want 15", k.AvgCookMinutes)
	}
	if k.Breaches != 1 || k.SLAPerformance != 50 {
		t.Errorf("breaches = %d performance = %v", k.Breaches, k.SLAPerformance)
	}
	if len(k.Rows) != 2 || k.Rows[0].CookMinutes != 10 || !k.Rows[1].Breached {
		t.Errorf("rows = %+v", k.Rows)
	}
}

func TestKitchenNothingCompleted(t *testing.T) {
	k := Kitchen(nil, at(0, 0), at(23, 0))
	if k.SLAPerformance != 100 || k.AvgCookMinutes != 0 {
		t.Errorf("empty performance = %+v", k)
	}
}
