package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/appetiteclub/pos/pkg/enums/kitchenstatus"
	"github.com/appetiteclub/pos/pkg/enums/ordertype"
	"github.com/appetiteclub/pos/pkg/enums/station"
	"github.com/appetiteclub/pos/services/pos/internal/auth"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Details carries the order-type specific fields collected at the till.
type Details struct {
	ID           uuid.UUID
	Type         string
	TableNumber  string
	ContactInfo  string
	Platform     string
	CustomerName string
}

type Policy struct {
	TaxRate decimal.Decimal
}

// Validate runs the submission gate. Nothing is persisted before it passes.
func Validate(cart *Cart, d Details) error {
	if cart == nil || cart.IsEmpty() {
		return ErrEmptyCart
	}
	switch d.Type {
	case ordertype.Types.DineIn.Code():
		if strings.TrimSpace(d.TableNumber) == "" {
			return ErrMissingTable
		}
	case ordertype.Types.Takeaway.Code():
	case ordertype.Types.Delivery.Code():
		if strings.TrimSpace(d.ContactInfo) == "" || strings.TrimSpace(d.Platform) == "" {
			return ErrMissingDeliveryInfo
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrderType, d.Type)
	}
	return nil
}

// Submit turns a cart into an order snapshot. The cart is left untouched so
// a failed persist can be retried.
func Submit(cart *Cart, d Details, p Policy, queueNumber string, by auth.Actor, now time.Time) (*Order, error) {
	if err := Validate(cart, d); err != nil {
		return nil, err
	}

	lines := cart.Lines()
	items := make([]Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, Item{
			LineID:     l.LineID,
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
			Modifiers:  l.Modifiers,
			Station:    l.Station,
			Category:   l.Category,
			Notes:      l.Notes,
		})
	}

	subtotal := cart.Total()
	tax := subtotal.Mul(p.TaxRate).Round(2)
	total := subtotal.Add(tax)

	o := &Order{
		ID:           d.ID,
		QueueNumber:  queueNumber,
		Type:         d.Type,
		CustomerName: strings.TrimSpace(d.CustomerName),
		Items:        items,
		Subtotal:     subtotal,
		Tax:          tax,
		Total:        total,
		BillStatus:   BillUnpaid,
		Status:       StatusPending,
		CreatedBy:    by,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	switch d.Type {
	case ordertype.Types.DineIn.Code():
		o.TableNumber = strings.TrimSpace(d.TableNumber)
	case ordertype.Types.Delivery.Code():
		o.ContactInfo = strings.TrimSpace(d.ContactInfo)
		o.Platform = strings.TrimSpace(d.Platform)
	}
	if !total.IsPositive() {
		o.BillStatus = BillPaid
	}
	o.EnsureID()
	return o, nil
}

// Route partitions the order's items by station, one PENDING ticket per
// station with at least one item. Stations come out in catalog order.
func Route(o *Order, sla kitchen.SLA, now time.Time) []*kitchen.Ticket {
	byStation := make(map[string][]kitchen.TicketItem)
	for _, it := range o.Items {
		st := it.Station
		if station.ByName(st) == nil {
			st = station.Stations.Kitchen.Code()
		}
		byStation[st] = append(byStation[st], kitchen.TicketItem{
			LineID:     it.LineID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Modifiers:  it.Modifiers,
			Category:   it.Category,
			Notes:      it.Notes,
		})
	}

	var stations []string
	for _, s := range station.All {
		if _, ok := byStation[s.Code()]; ok {
			stations = append(stations, s.Code())
		}
	}

	tickets := make([]*kitchen.Ticket, 0, len(stations))
	for _, st := range stations {
		t := &kitchen.Ticket{
			ID:          ticketID(o.ID, st),
			OrderID:     o.ID,
			QueueNumber: o.QueueNumber,
			Station:     st,
			Items:       byStation[st],
			Status:      kitchenstatus.Statuses.Pending.Code(),
			Priority:    kitchen.PriorityNormal,
			SLAMinutes:  sla.Threshold(o.Type),
			OrderType:   o.Type,
			TableNumber: o.TableNumber,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		tickets = append(tickets, t)
	}
	return tickets
}

// ticketID derives a stable id so a retried submission produces the same
// tickets.
func ticketID(orderID uuid.UUID, st string) uuid.UUID {
	return uuid.NewSHA1(orderID, []byte("ticket/"+st))
}

// QueueNumber formats the till number as DDMMHHmm plus a two digit suffix.
func QueueNumber(now time.Time, suffix int) string {
	return fmt.Sprintf("%s%02d", now.Format("02011504"), suffix%100)
}
