// Package report aggregates orders, payments and tickets into the manager
// dashboards. Everything here is pure; the Service only loads the inputs.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	popularItemsLimit = 5
	topItemsLimit     = 10
)

type ItemStat struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type HourBucket struct {
	Hour   string          `json:"hour"`
	Orders int             `json:"orders"`
	Sales  decimal.Decimal `json:"sales"`
}

type DailySummary struct {
	Date         string          `json:"date"`
	Sales        decimal.Decimal `json:"sales"`
	OrderCount   int             `json:"order_count"`
	AverageOrder decimal.Decimal `json:"average_order"`
	PopularItems []ItemStat      `json:"popular_items"`
	Hourly       []HourBucket    `json:"hourly"`
}

// Daily summarises the orders created on day, in day's location. Cancelled
// orders are left out.
func Daily(orders []*order.Order, day time.Time) DailySummary {
	start := startOfDay(day)
	end := start.AddDate(0, 0, 1)

	s := DailySummary{
		Date:   start.Format(time.DateOnly),
		Sales:  decimal.Zero,
		Hourly: make([]HourBucket, 24),
	}
	for h := range s.Hourly {
		s.Hourly[h] = HourBucket{Hour: fmt.Sprintf("%02d:00", h), Sales: decimal.Zero}
	}

	var counted []*order.Order
	for _, o := range orders {
		created := o.CreatedAt.In(start.Location())
		if o.IsCancelled() || created.Before(start) || !created.Before(end) {
			continue
		}
		counted = append(counted, o)
		s.Sales = s.Sales.Add(o.Total)
		s.OrderCount++
		b := &s.Hourly[created.Hour()]
		b.Orders++
		b.Sales = b.Sales.Add(o.Total)
	}

	s.AverageOrder = average(s.Sales, s.OrderCount)
	s.PopularItems = rankItems(counted, byQuantity, popularItemsLimit)
	return s
}

type SalesReport struct {
	From           time.Time                  `json:"from"`
	To             time.Time                  `json:"to"`
	Revenue        decimal.Decimal            `json:"revenue"`
	OrderCount     int                        `json:"order_count"`
	PaidOrders     int                        `json:"paid_orders"`
	AverageOrder   decimal.Decimal            `json:"average_order"`
	PaymentMethods map[string]decimal.Decimal `json:"payment_methods"`
	OrderTypes     map[string]int             `json:"order_types"`
	TopItems       []ItemStat                 `json:"top_items"`
}

// Sales covers orders created in [from, to). Revenue counts paid orders only;
// the method breakdown sums the applied amount of payments made in range.
func Sales(orders []*order.Order, payments []*order.Payment, from, to time.Time) SalesReport {
	r := SalesReport{
		From:           from,
		To:             to,
		Revenue:        decimal.Zero,
		PaymentMethods: make(map[string]decimal.Decimal),
		OrderTypes:     make(map[string]int),
	}

	var counted []*order.Order
	for _, o := range orders {
		if o.IsCancelled() || !within(o.CreatedAt, from, to) {
			continue
		}
		counted = append(counted, o)
		r.OrderCount++
		r.OrderTypes[o.Type]++
		if o.IsPaid() {
			r.PaidOrders++
			r.Revenue = r.Revenue.Add(o.Total)
		}
	}
	for _, p := range payments {
		if !within(p.CreatedAt, from, to) {
			continue
		}
		sum, ok := r.PaymentMethods[p.Method]
		if !ok {
			sum = decimal.Zero
		}
		r.PaymentMethods[p.Method] = sum.Add(p.Amount)
	}

	r.AverageOrder = average(r.Revenue, r.OrderCount)
	r.TopItems = rankItems(counted, byRevenue, topItemsLimit)
	return r
}

type KitchenPerformance struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	Tickets        int       `json:"tickets"`
	Completed      int       `json:"completed"`
	AvgCookMinutes float64   `json:"avg_cook_minutes"`
	Breaches       int       `json:"sla_breaches"`
	SLAPerformance float64   `json:"sla_performance"`
	Rows           []CookRow `json:"rows,omitempty"`
}

// CookRow is one completed ticket in the kitchen export.
type CookRow struct {
	TicketID    uuid.UUID `json:"ticket_id"`
	Date        string    `json:"date"`
	Station     string    `json:"station"`
	Status      string    `json:"status"`
	CookMinutes float64   `json:"cook_minutes"`
	SLAMinutes  int       `json:"sla_minutes"`
	Breached    bool      `json:"breached"`
}

// Kitchen measures cook time from start (or creation when never started) to
// ready for tickets created in [from, to). A ticket breaches when its cook
// time exceeds its SLA.
func Kitchen(tickets []*kitchen.Ticket, from, to time.Time) KitchenPerformance {
	k := KitchenPerformance{From: from, To: to, SLAPerformance: 100}

	var total float64
	for _, t := range tickets {
		if !within(t.CreatedAt, from, to) {
			continue
		}
		k.Tickets++
		if t.CompletedAt == nil {
			continue
		}
		start := t.CreatedAt
		if t.StartedAt != nil {
			start = *t.StartedAt
		}
		cook := t.CompletedAt.Sub(start).Minutes()
		breached := cook > float64(t.SLAMinutes)

		k.Completed++
		total += cook
		if breached {
			k.Breaches++
		}
		k.Rows = append(k.Rows, CookRow{
			TicketID:    t.ID,
			Date:        t.CreatedAt.Format(time.DateOnly),
			Station:     t.Station,
			Status:      t.Status,
			CookMinutes: round1(cook),
			SLAMinutes:  t.SLAMinutes,
			Breached:    breached,
		})
	}

	if k.Completed > 0 {
		k.AvgCookMinutes = round1(total / float64(k.Completed))
		k.SLAPerformance = round1(float64(k.Completed-k.Breaches) / float64(k.Completed) * 100)
	}
	return k
}

type rankBy int

const (
	byQuantity rankBy = iota
	byRevenue
)

func rankItems(orders []*order.Order, by rankBy, limit int) []ItemStat {
	stats := make(map[uuid.UUID]*ItemStat)
	for _, o := range orders {
		for _, it := range o.Items {
			st, ok := stats[it.MenuItemID]
			if !ok {
				st = &ItemStat{MenuItemID: it.MenuItemID, Name: it.Name, Revenue: decimal.Zero}
				stats[it.MenuItemID] = st
			}
			st.Quantity += it.Quantity
			st.Revenue = st.Revenue.Add(it.Subtotal())
		}
	}

	out := make([]ItemStat, 0, len(stats))
	for _, st := range stats {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch by {
		case byRevenue:
			if !a.Revenue.Equal(b.Revenue) {
				return a.Revenue.GreaterThan(b.Revenue)
			}
		default:
			if a.Quantity != b.Quantity {
				return a.Quantity > b.Quantity
			}
		}
		return a.Name < b.Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func average(sum decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2)
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
