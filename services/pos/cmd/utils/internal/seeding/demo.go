package seeding

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/pkg/enums/ordertype"
	"github.com/appetiteclub/pos/pkg/enums/paymentmethod"
	"github.com/appetiteclub/pos/pkg/enums/station"
	"github.com/appetiteclub/pos/services/pos/internal/auth"
	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/appetiteclub/pos/services/pos/internal/pos"
	"github.com/google/uuid"
)

// DemoActor is recorded as the creator of every demo record so clear-demo
// can find them.
var DemoActor = auth.Actor{ID: "demo-seed", DisplayName: "Demo Seed", Role: "system"}

var demoNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://appetite.club/pos/demo"))

type demoLine struct {
	ShortCode string
	Quantity  int
}

// Scenario is one demo order and what happens to it after submission.
type Scenario struct {
	Key          string
	Type         string
	TableNumber  string
	CustomerName string
	ContactInfo  string
	Platform     string
	Lines        []demoLine
	// Progress lists the actions applied to each station's ticket in order.
	Progress map[string][]kitchen.Action
	// PayWith settles the full total with this method when set.
	PayWith string
}

func (s Scenario) OrderID() uuid.UUID {
	return uuid.NewSHA1(demoNamespace, []byte("order/"+s.Key))
}

func (s Scenario) PaymentID() uuid.UUID {
	return uuid.NewSHA1(demoNamespace, []byte("payment/"+s.Key))
}

// Scenarios covers each order type and a spread of ticket and bill states.
var Scenarios = []Scenario{
	{
		Key:         "table-4-lunch",
		Type:        ordertype.Types.DineIn.Code(),
		TableNumber: "4",
		Lines:       []demoLine{{"A001", 2}, {"B001", 2}},
		Progress: map[string][]kitchen.Action{
			station.Stations.Kitchen.Code(): {kitchen.ActionStart},
			station.Stations.Tea.Code():     {kitchen.ActionStart, kitchen.ActionReady},
		},
	},
	{
		Key:          "takeaway-pickup",
		Type:         ordertype.Types.Takeaway.Code(),
		CustomerName: "Somchai",
		Lines:        []demoLine{{"A003", 1}, {"B001", 1}},
		Progress: map[string][]kitchen.Action{
			station.Stations.Kitchen.Code(): {kitchen.ActionStart, kitchen.ActionReady, kitchen.ActionClose},
			station.Stations.Tea.Code():     {kitchen.ActionStart, kitchen.ActionReady, kitchen.ActionClose},
		},
		PayWith: paymentmethod.Methods.Card.Code(),
	},
	{
		Key:         "delivery-grab",
		Type:        ordertype.Types.Delivery.Code(),
		ContactInfo: "081-555-0142",
		Platform:    "grab",
		Lines:       []demoLine{{"A001", 1}, {"A003", 1}},
		PayWith:     paymentmethod.Methods.QR.Code(),
	},
}

// ApplyDemo submits every scenario through the service. Orders that already
// exist are left as they are, so running it twice changes nothing.
func ApplyDemo(ctx context.Context, service *pos.Service, menu catalog.Repo, logger apt.Logger) (int, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	ctx = auth.WithActor(ctx, DemoActor)

	created := 0
	for _, sc := range Scenarios {
		sub, err := submit(ctx, service, menu, sc)
		if err != nil {
			return created, fmt.Errorf("scenario %s: %w", sc.Key, err)
		}
		if sub.Replayed {
			logger.Info("Demo order already present, skipping", "scenario", sc.Key, "order_id", sub.Order.ID)
			continue
		}

		for _, t := range sub.Tickets {
			for _, action := range sc.Progress[t.Station] {
				if _, err := service.AdvanceTicket(ctx, t.ID, action); err != nil {
					return created, fmt.Errorf("scenario %s: %s %s ticket: %w", sc.Key, action, t.Station, err)
				}
			}
		}

		if sc.PayWith != "" {
			_, err := service.RecordPayment(ctx, sub.Order.ID, order.PaymentInput{
				ID:     sc.PaymentID(),
				Amount: sub.Order.Total,
				Method: sc.PayWith,
			})
			if err != nil {
				return created, fmt.Errorf("scenario %s: pay: %w", sc.Key, err)
			}
		}

		created++
		logger.Info("Demo order created", "scenario", sc.Key, "queue_number", sub.Order.QueueNumber)
	}
	return created, nil
}

func submit(ctx context.Context, service *pos.Service, menu catalog.Repo, sc Scenario) (*pos.Submission, error) {
	lines := make([]pos.LineRequest, 0, len(sc.Lines))
	for _, l := range sc.Lines {
		item, err := menu.GetByShortCode(ctx, l.ShortCode)
		if err != nil {
			return nil, fmt.Errorf("menu item %s: %w", l.ShortCode, err)
		}
		lines = append(lines, pos.LineRequest{MenuItemID: item.ID, Quantity: l.Quantity})
	}

	return service.SubmitOrder(ctx, pos.SubmitRequest{
		ID:           sc.OrderID(),
		Type:         sc.Type,
		TableNumber:  sc.TableNumber,
		ContactInfo:  sc.ContactInfo,
		Platform:     sc.Platform,
		CustomerName: sc.CustomerName,
		Lines:        lines,
	})
}
