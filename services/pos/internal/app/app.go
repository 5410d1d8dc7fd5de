package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/appetiteclub/pos/pkg"
	"github.com/appetiteclub/pos/pkg/event"
	"github.com/appetiteclub/pos/services/pos/internal/auth"
	"github.com/appetiteclub/pos/services/pos/internal/catalog"
	"github.com/appetiteclub/pos/services/pos/internal/feed"
	"github.com/appetiteclub/pos/services/pos/internal/kitchen"
	"github.com/appetiteclub/pos/services/pos/internal/memory"
	"github.com/appetiteclub/pos/services/pos/internal/mongo"
	"github.com/appetiteclub/pos/services/pos/internal/order"
	"github.com/appetiteclub/pos/services/pos/internal/pos"
	"github.com/appetiteclub/pos/services/pos/internal/report"
	"github.com/go-chi/chi/v5"
)

const (
	AppName    = "pos"
	AppVersion = "0.1.0"

	viewWarmLimit = 10000
)

// App wires the store, the event transport and the HTTP and gRPC modules.
type App struct {
	config   *apt.Config
	logger   apt.Logger
	settings Settings
	micro    *apt.Micro

	store   pos.Store
	service *pos.Service
	cache   *kitchen.TicketStateCache
	view    *feed.View
	hub     *feed.Hub
}

func New(config *apt.Config, logger apt.Logger) (*App, error) {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	settings, err := LoadSettings(config)
	if err != nil {
		return nil, err
	}
	return &App{
		config:   config,
		logger:   logger,
		settings: settings,
	}, nil
}

// transport groups the publishers and subscriber for one run.
type transport struct {
	changes    aptevents.Publisher
	urgency    aptevents.Publisher
	subscriber aptevents.Subscriber
	stream     aptevents.StreamConsumer
	closers    []func() error
}

func (a *App) newTransport() (*transport, error) {
	if a.settings.NATSURL == "" {
		bus := feed.NewLocalBus(a.logger)
		a.logger.Info("nats.url not set, using in-process event bus")
		return &transport{
			changes:    bus,
			urgency:    bus,
			subscriber: bus,
			closers:    []func() error{bus.Close},
		}, nil
	}

	publisher, err := pkg.NewNATSPublisher(a.settings.NATSURL)
	if err != nil {
		return nil, err
	}
	subscriber, err := pkg.NewNATSSubscriber(a.settings.NATSURL, a.logger)
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}
	t := &transport{
		changes:    publisher,
		urgency:    publisher,
		subscriber: subscriber,
		closers:    []func() error{subscriber.Close, publisher.Close},
	}

	if a.settings.StreamEnabled {
		stream, err := pkg.NewNATSStream(pkg.NATSStreamConfig{
			URL:          a.settings.NATSURL,
			StreamName:   event.ChangesStream,
			Topic:        event.ChangesTopic,
			ConsumerName: "pos-feed",
			MaxAge:       24 * time.Hour,
		}, a.logger)
		if err != nil {
			for _, c := range t.closers {
				_ = c()
			}
			return nil, err
		}
		a.logger.Info("NATS stream initialized for persistent events")
		// Urgency stays on core NATS; the stream only retains changes.
		t.changes = stream
		t.stream = stream
		t.closers = append([]func() error{stream.Close}, t.closers...)
	}
	return t, nil
}

func (a *App) Initialize(ctx context.Context) error {
	var lifecycles []interface{}

	switch a.settings.Driver {
	case DriverMemory:
		a.store = memory.NewStore()
		a.logger.Info("Using in-memory store")
	default:
		store := mongo.NewStore(a.config, a.logger)
		a.store = store
		lifecycles = append(lifecycles, store)
	}

	tr, err := a.newTransport()
	if err != nil {
		return err
	}

	// The cache warms from the store; the stream feeds the view.
	a.cache = kitchen.NewTicketStateCache(nil, a.store.Tickets(), a.logger)
	a.view = feed.NewView(a.logger)
	a.hub = feed.NewHub(a.logger)

	a.service = pos.NewService(a.store,
		pos.WithPublisher(tr.changes),
		pos.WithTicketCache(a.cache),
		pos.WithTaxRate(a.settings.TaxRate),
		pos.WithSLA(a.settings.SLA),
		pos.WithLogger(a.logger),
	)

	ticker := kitchen.NewTicker(a.cache, tr.urgency, time.Now, a.settings.TickInterval, a.logger)
	relay := feed.NewRelay(tr.subscriber, a.view, a.cache, a.hub, a.logger)
	streamServer := feed.NewStreamServer(a.view, a.hub, a.logger)

	modules := &modules{
		verifier: auth.NewVerifier(a.settings.AuthSecret),
		logger:   a.logger,
		handlers: []routeRegistrar{
			catalog.NewHandler(a.store.Menu(), a.config, a.logger),
			pos.NewHandler(a.service, a.config, a.logger),
			kitchen.NewHandler(kitchen.HandlerDeps{
				Repo:     a.store.Tickets(),
				Cache:    a.cache,
				Workflow: a.service,
			}, a.config, a.logger),
			report.NewHandler(report.NewService(a.store, nil), a.logger),
			feed.NewHandler(a.view, a.hub, a.logger),
		},
	}
	streamServer.Use(auth.StreamInterceptor(modules.verifier, a.logger))
	if !modules.verifier.Enabled() {
		a.logger.Info("auth.secret not set, requests run as anonymous staff")
	}

	startup := apt.LifecycleHooks{
		OnStart: func(ctx context.Context) error {
			if a.settings.SeedMenu {
				if err := catalog.ApplyMenuSeeds(ctx, a.store.Menu(), a.logger); err != nil {
					a.logger.Error("menu seeding failed (non-fatal)", "error", err)
				}
			}
			if err := a.cache.Warm(ctx); err != nil {
				a.logger.Info("failed to warm ticket cache", "error", err)
			}
			if err := a.warmView(ctx, tr.stream); err != nil {
				a.logger.Info("failed to warm feed view", "error", err)
			}
			if err := relay.Start(ctx); err != nil {
				return err
			}
			return ticker.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			err := ticker.Stop(ctx)
			a.hub.Close()
			for _, c := range tr.closers {
				err = errors.Join(err, c())
			}
			return err
		},
	}
	lifecycles = append(lifecycles, startup)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: a.logger,
	})

	options := []apt.Option{
		apt.WithConfig(a.config),
		apt.WithLogger(a.logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", modules),
		apt.WithGRPCServerModules("grpc.port", streamServer),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(AppName),
	}

	a.micro = apt.NewMicro(options...)
	return nil
}

// warmView replays the retained change stream, or loads today's records from
// the store when no stream is configured, the replay fails or it yields
// nothing.
func (a *App) warmView(ctx context.Context, stream aptevents.StreamConsumer) error {
	return warmFeedView(ctx, a.view, stream, a.store, a.service, a.logger)
}

func warmFeedView(ctx context.Context, view *feed.View, stream aptevents.StreamConsumer, store pos.Store, service *pos.Service, logger apt.Logger) error {
	if stream != nil {
		n, err := view.Warm(ctx, stream, viewWarmLimit)
		switch {
		case err != nil:
			logger.Info("stream replay failed, falling back to store", "error", err)
		case n == 0:
			logger.Info("stream replay was empty, falling back to store")
		default:
			logger.Info("feed view warmed from stream", "messages", n)
			return nil
		}
	}
	return WarmViewFromStore(ctx, view, store, service)
}

// WarmViewFromStore loads the orders of the current day with their tickets
// and payments.
func WarmViewFromStore(ctx context.Context, view *feed.View, store pos.Store, service *pos.Service) error {
	from, to := service.Today()
	orders, err := store.Orders().List(ctx, order.Filter{CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return fmt.Errorf("cannot load orders: %w", err)
	}
	for _, o := range orders {
		view.Apply(feed.OrderChange(event.OpInsert, o))

		tickets, err := store.Tickets().FindByOrderID(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("cannot load tickets: %w", err)
		}
		for _, t := range tickets {
			view.Apply(feed.TicketChange(event.OpInsert, t))
		}

		payments, err := store.Payments().ListByOrder(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("cannot load payments: %w", err)
		}
		for _, p := range payments {
			view.Apply(feed.PaymentChange(p))
		}
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}

type routeRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// modules mounts every handler behind the auth middleware.
type modules struct {
	verifier *auth.Verifier
	logger   apt.Logger
	handlers []routeRegistrar
}

func (m *modules) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(m.verifier, m.logger))
		for _, h := range m.handlers {
			h.RegisterRoutes(r)
		}
	})
}
