package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/snusnumrick/notalock-orders/internal/platform/config"
	"github.com/snusnumrick/notalock-orders/internal/platform/events"
	platformfs "github.com/snusnumrick/notalock-orders/internal/platform/firestore"
	"github.com/snusnumrick/notalock-orders/internal/platform/observability"
	repofs "github.com/snusnumrick/notalock-orders/internal/repositories/firestore"
	"github.com/snusnumrick/notalock-orders/internal/services"
)

// Container wires configuration, infrastructure clients, repositories, and
// services. All dependencies are passed explicitly; nothing is global.
type Container struct {
	cfg    config.Config
	logger *zap.Logger

	provider     *platformfs.Provider
	pubsubClient *pubsub.Client
	topic        *pubsub.Topic

	orderService services.OrderService
	dispatcher   *services.NotificationDispatcher

	closeOnce sync.Once
	closeErr  error
}

// Options tunes container construction. Zero value works for production.
type Options struct {
	// Config overrides loading from the environment when non-nil.
	Config *config.Config
	// Logger overrides the default zap production logger.
	Logger *zap.Logger
	// EmailNotifier and SMSNotifier are optional delivery collaborators.
	EmailNotifier services.Notifier
	SMSNotifier   services.Notifier
	// DisableEvents skips Pub/Sub wiring, for tooling and tests.
	DisableEvents bool
}

// New builds the container. The returned container owns the infrastructure
// clients and must be closed.
func New(ctx context.Context, opts Options) (*Container, error) {
	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("di: load config: %w", err)
		}
		cfg = loaded
	}

	logger := opts.Logger
	if logger == nil {
		built, err := observability.NewLogger()
		if err != nil {
			return nil, fmt.Errorf("di: build logger: %w", err)
		}
		logger = built
	}

	c := &Container{cfg: cfg, logger: logger}

	c.provider = platformfs.NewProvider(cfg.Firestore)

	var publisher services.OrderEventPublisher
	if !opts.DisableEvents && strings.TrimSpace(cfg.PubSub.ProjectID) != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			c.closeAll(ctx)
			return nil, fmt.Errorf("di: pubsub client: %w", err)
		}
		c.pubsubClient = client
		c.topic = client.Topic(cfg.PubSub.OrderEventsTopic)

		pub, err := events.NewPubSubOrderPublisher(c.topic)
		if err != nil {
			c.closeAll(ctx)
			return nil, fmt.Errorf("di: event publisher: %w", err)
		}
		publisher = pub
	}

	eventLogger := observability.EventLogger(logger)

	c.dispatcher = services.NewNotificationDispatcher(services.NotificationDispatcherDeps{
		Email:  opts.EmailNotifier,
		SMS:    opts.SMSNotifier,
		Logger: eventLogger,
	})

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:              repofs.NewOrderRepository(c.provider),
		Carts:               repofs.NewCartRepository(c.provider),
		Counters:            repofs.NewCounterRepository(c.provider),
		Events:              publisher,
		Notifications:       c.dispatcher,
		Logger:              eventLogger,
		UndoWindow:          cfg.Orders.UndoWindow,
		ConvertedCartStatus: cfg.Orders.ConvertedCartStatus,
		OrderNumberCounter:  cfg.Orders.OrderNumberCounter,
	})
	if err != nil {
		c.closeAll(ctx)
		return nil, fmt.Errorf("di: order service: %w", err)
	}
	c.orderService = orderService

	return c, nil
}

// Config returns the effective configuration.
func (c *Container) Config() config.Config {
	return c.cfg
}

// Logger returns the shared logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// OrderService returns the order lifecycle service.
func (c *Container) OrderService() services.OrderService {
	return c.orderService
}

// Notifications returns the notification dispatcher.
func (c *Container) Notifications() *services.NotificationDispatcher {
	return c.dispatcher
}

// Close releases infrastructure clients. Safe to call more than once.
func (c *Container) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closeErr = c.closeAll(ctx)
	})
	return c.closeErr
}

func (c *Container) closeAll(ctx context.Context) error {
	var errs []error
	if c.topic != nil {
		c.topic.Stop()
	}
	if c.pubsubClient != nil {
		if err := c.pubsubClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("di: close pubsub: %w", err))
		}
	}
	if c.provider != nil {
		if err := c.provider.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("di: close firestore: %w", err))
		}
	}
	return errors.Join(errs...)
}
