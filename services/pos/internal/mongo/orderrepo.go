package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderRepo struct {
	store *Store
}

func (r *OrderRepo) collection() *mongo.Collection {
	return r.store.collection(ordersCollection)
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	if _, err := r.collection().InsertOne(ctx, o); err != nil {
		return mapErr(err, "create order")
	}
	return nil
}

func (r *OrderRepo) Update(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	result, err := r.collection().ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return mapErr(err, "update order")
	}
	if result.MatchedCount == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.ErrOrderNotFound
		}
		return nil, mapErr(err, "get order")
	}
	return &o, nil
}

func (r *OrderRepo) List(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cursor, err := r.collection().Find(ctx, orderQuery(f), opts)
	if err != nil {
		return nil, mapErr(err, "list orders")
	}
	defer cursor.Close(ctx)

	var result []*order.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, mapErr(err, "decode orders")
	}
	return result, nil
}

func orderQuery(f order.Filter) bson.M {
	query := bson.M{}
	if f.BillStatus != "" {
		query["bill_status"] = f.BillStatus
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.Type != "" {
		query["type"] = f.Type
	}
	if created := timeRange(f.CreatedFrom, f.CreatedTo); created != nil {
		query["created_at"] = created
	}
	return query
}

type PaymentRepo struct {
	store *Store
}

func (r *PaymentRepo) collection() *mongo.Collection {
	return r.store.collection(paymentsCollection)
}

func (r *PaymentRepo) Create(ctx context.Context, p *order.Payment) error {
	if _, err := r.collection().InsertOne(ctx, p); err != nil {
		return mapErr(err, "create payment")
	}
	return nil
}

func (r *PaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*order.Payment, error) {
	var p order.Payment
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.ErrPaymentNotFound
		}
		return nil, mapErr(err, "get payment")
	}
	return &p, nil
}

func (r *PaymentRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*order.Payment, error) {
	return r.find(ctx, bson.M{"order_id": orderID})
}

func (r *PaymentRepo) List(ctx context.Context, f order.PaymentFilter) ([]*order.Payment, error) {
	return r.find(ctx, paymentQuery(f))
}

func (r *PaymentRepo) find(ctx context.Context, query bson.M) ([]*order.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection().Find(ctx, query, opts)
	if err != nil {
		return nil, mapErr(err, "list payments")
	}
	defer cursor.Close(ctx)

	var result []*order.Payment
	if err := cursor.All(ctx, &result); err != nil {
		return nil, mapErr(err, "decode payments")
	}
	return result, nil
}

func paymentQuery(f order.PaymentFilter) bson.M {
	query := bson.M{}
	if f.Method != "" {
		query["method"] = f.Method
	}
	if created := timeRange(f.From, f.To); created != nil {
		query["created_at"] = created
	}
	return query
}
