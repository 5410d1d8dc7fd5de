package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TicketRepo struct {
	store *Store
}

func (r *TicketRepo) collection() *mongo.Collection {
	return r.store.collection(ticketsCollection)
}

func (r *TicketRepo) Create(ctx context.Context, t *kitchen.Ticket) error {
	if _, err := r.collection().InsertOne(ctx, t); err != nil {
		return mapErr(err, "insert ticket")
	}
	return nil
}

func (r *TicketRepo) Update(ctx context.Context, t *kitchen.Ticket) error {
	result, err := r.collection().ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return mapErr(err, "update ticket")
	}
	if result.MatchedCount == 0 {
		return kitchen.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*kitchen.Ticket, error) {
	var ticket kitchen.Ticket
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, kitchen.ErrTicketNotFound
		}
		return nil, mapErr(err, "find ticket")
	}
	return &ticket, nil
}

func (r *TicketRepo) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]*kitchen.Ticket, error) {
	return r.List(ctx, kitchen.TicketFilter{OrderID: &orderID})
}

func (r *TicketRepo) List(ctx context.Context, filter kitchen.TicketFilter) ([]*kitchen.Ticket, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "station", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection().Find(ctx, ticketQuery(filter), opts)
	if err != nil {
		return nil, mapErr(err, "find tickets")
	}
	defer cursor.Close(ctx)

	var tickets []*kitchen.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, mapErr(err, "decode tickets")
	}
	return tickets, nil
}

func ticketQuery(filter kitchen.TicketFilter) bson.M {
	query := bson.M{}
	if filter.OrderID != nil {
		query["order_id"] = *filter.OrderID
	}
	if filter.Station != "" {
		query["station"] = filter.Station
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}
	if created := timeRange(filter.CreatedFrom, filter.CreatedTo); created != nil {
		query["created_at"] = created
	}
	return query
}

// timeRange builds a half-open [from, to) condition, or nil when unbounded.
func timeRange(from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return nil
	}
	cond := bson.M{}
	if from != nil {
		cond["$gte"] = *from
	}
	if to != nil {
		cond["$lt"] = *to
	}
	return cond
}
