// Package mongo persists the POS records in MongoDB. Writes made inside
// InTx share one multi-document transaction.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/appetiteclub/pos/services/pos/internal/pos"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultURL  = "mongodb://localhost:27017"
	defaultName = "appetite_pos"

	ordersCollection   = "orders"
	ticketsCollection  = "tickets"
	paymentsCollection = "payments"
	menuCollection     = "menu_items"
)

// errStandalone is returned by Start when the server cannot run
// multi-document transactions.
var errStandalone = errors.New("MongoDB must be a replica set or sharded cluster: order submission and payments need transactions")

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger apt.Logger
	config *apt.Config
}

// helloReply holds the fields of the hello command that tell a standalone
// server apart from a replica set member or mongos router.
type helloReply struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

func (h helloReply) supportsTransactions() bool {
	return h.SetName != "" || h.Msg == "isdbgrid"
}

var _ pos.Store = (*Store)(nil)

func NewStore(config *apt.Config, logger apt.Logger) *Store {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Store{
		logger: logger,
		config: config,
	}
}

func (s *Store) Start(ctx context.Context) error {
	mongoURL, _ := s.config.GetString("db.mongo.url")
	if mongoURL == "" {
		mongoURL = defaultURL
	}

	dbName, _ := s.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = defaultName
	}

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetRegistry(NewRegistry()).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	var hello helloReply
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		_ = client.Disconnect(ctx)
		return fmt.Errorf("cannot read MongoDB topology: %w", err)
	}
	if !hello.supportsTransactions() {
		_ = client.Disconnect(ctx)
		return errStandalone
	}

	s.client = client
	s.db = client.Database(dbName)

	if err := s.ensureIndexes(ctx); err != nil {
		return err
	}

	s.logger.Infof("Connected to MongoDB: %s, database: %s", mongoURL, dbName)
	return nil
}

func (s *Store) Stop(ctx context.Context) error {
	if s.client != nil {
		if err := s.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		s.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (s *Store) GetDatabase() *mongo.Database {
	return s.db
}

// Repositories resolve their collection per call, so they can be handed out
// before Start connects.
func (s *Store) Orders() order.Repository {
	return &OrderRepo{store: s}
}

func (s *Store) Tickets() kitchen.TicketRepository {
	return &TicketRepo{store: s}
}

func (s *Store) Payments() order.PaymentRepository {
	return &PaymentRepo{store: s}
}

func (s *Store) Menu() catalog.Repo {
	return &MenuItemRepo{store: s}
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// InTx runs fn inside a session transaction. A ctx that already carries a
// session joins it.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return mapErr(err, "start session")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// Reset drops every POS collection, seed tracking included.
func (s *Store) Reset(ctx context.Context) error {
	names, err := s.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return mapErr(err, "list collections")
	}
	for _, name := range names {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return mapErr(err, "drop "+name)
		}
		s.logger.Info("Dropped collection", "name", name)
	}
	return s.ensureIndexes(ctx)
}

// PurgeCreatedBy deletes the orders created by actorID together with their
// tickets and payments. It returns the number of orders removed.
func (s *Store) PurgeCreatedBy(ctx context.Context, actorID string) (int64, error) {
	var removed int64
	err := s.InTx(ctx, func(ctx context.Context) error {
		cursor, err := s.collection(ordersCollection).Find(ctx, bson.M{"created_by.id": actorID},
			options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			return mapErr(err, "find orders")
		}
		var rows []struct {
			ID any `bson:"_id"`
		}
		if err := cursor.All(ctx, &rows); err != nil {
			return mapErr(err, "decode orders")
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]any, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		byOrder := bson.M{"order_id": bson.M{"$in": ids}}
		if _, err := s.collection(ticketsCollection).DeleteMany(ctx, byOrder); err != nil {
			return mapErr(err, "delete tickets")
		}
		if _, err := s.collection(paymentsCollection).DeleteMany(ctx, byOrder); err != nil {
			return mapErr(err, "delete payments")
		}
		res, err := s.collection(ordersCollection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return mapErr(err, "delete orders")
		}
		removed = res.DeletedCount
		return nil
	})
	return removed, err
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		ordersCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "bill_status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		ticketsCollection: {
			{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "station", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		paymentsCollection: {
			{Keys: bson.D{{Key: "order_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		menuCollection: {
			{Keys: bson.D{{Key: "short_code", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := s.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("cannot create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// mapErr classifies driver failures so the service can tell a conflicting
// write from an outage.
func mapErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: cannot %s: %w", pos.ErrConflict, op, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: cannot %s: %w", pos.ErrUnavailable, op, err)
	}
	return fmt.Errorf("cannot %s: %w", op, err)
}
