package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/salonops/internal/blocking/application"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/commands"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/queries"
	"github.com/felixgeelhaar/salonops/internal/blocking/application/services"
	"github.com/felixgeelhaar/salonops/internal/blocking/domain"
	"github.com/felixgeelhaar/salonops/internal/blocking/infrastructure/audit"
	"github.com/felixgeelhaar/salonops/internal/blocking/infrastructure/blockapi"
	"github.com/felixgeelhaar/salonops/internal/blocking/infrastructure/cache"
	"github.com/felixgeelhaar/salonops/internal/blocking/infrastructure/persistence"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/salonops/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/salonops/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/salonops/pkg/config"
	"github.com/felixgeelhaar/salonops/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Local mode database
	DBConn   database.Connection
	DBDriver database.Driver
	Store    *persistence.Store

	// Remote mode client
	APIClient *blockapi.Client

	// Redis
	RedisClient   *redis.Client
	BookingsCache *cache.BookingsCache

	// Events. EventPublisher is what the application publishes to; it is
	// the outbox when one is active, otherwise the broker itself.
	Broker          eventbus.Publisher
	Outbox          *outbox.SQLRepository
	OutboxProcessor *outbox.Processor

	// Ports
	BlockAPI       application.BlockAPI
	Bookings       application.BookingsProvider
	EventPublisher eventbus.Publisher

	// Handlers
	ListBlocksHandler   *queries.ListBlocksHandler
	LoadBookingsHandler *queries.LoadBookingsHandler
	DeleteBlockHandler  *commands.DeleteBlockHandler
}

// NewContainer creates and wires all dependencies. Without a Block API URL
// (or with LOCAL_MODE set) blocks are kept in the local database.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}

	var err error
	if cfg.LocalMode {
		err = c.initLocal(ctx)
	} else {
		err = c.initRemote()
	}
	if err != nil {
		c.Close()
		return nil, err
	}

	if err := c.initRedis(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initPublisher(ctx); err != nil {
		c.Close()
		return nil, err
	}

	c.ListBlocksHandler = queries.NewListBlocksHandler(c.BlockAPI)
	c.LoadBookingsHandler = queries.NewLoadBookingsHandler(c.Bookings)
	c.DeleteBlockHandler = commands.NewDeleteBlockHandler(c.BlockAPI, c.EventPublisher, c.Metrics, logger)

	return c, nil
}

func (c *Container) initLocal(ctx context.Context) error {
	cfg := c.Config
	driver, err := database.ParseDriver(cfg.DatabaseDriver)
	if err != nil {
		return err
	}
	dbCfg := database.Config{
		Driver:     driver,
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	}
	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()

	store := persistence.NewStore(conn, c.Logger)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	c.Logger.Debug("local store ready", "driver", c.DBDriver.String())

	c.Store = store
	c.BlockAPI = store
	c.Bookings = store
	c.Health.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, store.Ping))
	return nil
}

func (c *Container) initRemote() error {
	cfg := c.Config
	client := blockapi.NewClient(blockapi.Config{
		BaseURL:   cfg.APIURL,
		Timeout:   cfg.APITimeout,
		RateLimit: cfg.APIRateLimit,
		RateBurst: cfg.APIRateBurst,
		Breaker: blockapi.BreakerConfig{
			MaxRequests:      cfg.BreakerMaxRequests,
			Interval:         cfg.BreakerInterval,
			Timeout:          cfg.BreakerTimeout,
			FailureThreshold: cfg.BreakerFailureThreshold,
		},
	}, c.Logger).WithMetrics(c.Metrics)

	c.APIClient = client
	c.BlockAPI = client
	c.Bookings = client
	c.Health.Register("block_api", observability.PingChecker("block_api", observability.HealthStatusUnhealthy, client.Ping))
	return nil
}

// initRedis puts the bookings cache in front of the provider. Redis is
// optional in development.
func (c *Container) initRedis(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, bookings will not be cached", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, bookings will not be cached", "error", err)
		return nil
	}

	c.RedisClient = client
	c.BookingsCache = cache.NewBookingsCache(client, c.Bookings, cfg.BookingsCacheTTL, c.Logger).WithMetrics(c.Metrics)
	c.Bookings = c.BookingsCache
	c.Health.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, c.BookingsCache.Ping))
	c.Logger.Info("connected to Redis")
	return nil
}

// initPublisher connects to RabbitMQ when configured. Otherwise, and as the
// development fallback, events go to an in-process bus that logs them. With a
// local database the application publishes into the outbox, and the outbox
// processor forwards to the broker.
func (c *Container) initPublisher(ctx context.Context) error {
	cfg := c.Config
	if cfg.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, c.Logger)
		if err == nil {
			c.Broker = publisher.WithMetrics(c.Metrics)
			c.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", observability.HealthStatusDegraded, publisher.Ping))
		} else if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		} else {
			c.Logger.Warn("RabbitMQ not available, using in-process event bus", "error", err)
		}
	}
	if c.Broker == nil {
		bus := eventbus.NewInProcessEventBus(c.Logger)
		bus.RegisterConsumer(audit.NewLogConsumer(c.Logger, c.Metrics))
		c.Broker = bus
	}
	c.EventPublisher = c.Broker

	if c.DBConn == nil || !cfg.OutboxEnabled {
		return nil
	}
	repo := outbox.NewSQLRepository(c.DBConn)
	if err := repo.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run outbox migrations: %w", err)
	}
	procCfg := outbox.DefaultProcessorConfig()
	if cfg.OutboxMaxRetries > 0 {
		procCfg.MaxRetries = cfg.OutboxMaxRetries
	}
	c.Outbox = repo
	c.OutboxProcessor = outbox.NewProcessor(repo, c.Broker, procCfg, c.Logger).WithMetrics(c.Metrics)
	c.EventPublisher = outbox.NewPublisher(repo)
	return nil
}

// FlushOutbox forwards every due outbox message to the broker. It is a no-op
// without an outbox.
func (c *Container) FlushOutbox(ctx context.Context) (int, error) {
	if c.OutboxProcessor == nil {
		return 0, nil
	}
	return c.OutboxProcessor.Flush(ctx)
}

// PruneOutbox deletes published outbox messages older than the configured
// retention.
func (c *Container) PruneOutbox(ctx context.Context) (int64, error) {
	if c.Outbox == nil || c.Config.OutboxRetention <= 0 {
		return 0, nil
	}
	return c.Outbox.DeleteOld(ctx, time.Now().Add(-c.Config.OutboxRetention))
}

// Session returns the caller identity from configuration.
func (c *Container) Session() application.Session {
	return application.Session{
		AccessToken: c.Config.APIToken,
		ActorID:     c.Config.ActorID,
	}
}

// NewCoordinator returns a coordinator for one form flow.
func (c *Container) NewCoordinator() *services.MutationCoordinator {
	return services.NewMutationCoordinator(c.BlockAPI, c.Session(), c.Logger).
		WithValidator(domain.NewValidator(c.Config.DefaultBlockReason)).
		WithPublisher(c.EventPublisher).
		WithMetrics(c.Metrics)
}

// Close flushes the outbox and cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if n, err := c.FlushOutbox(ctx); err != nil {
			c.Logger.Warn("error flushing outbox", "error", err)
		} else if n > 0 {
			c.Logger.Debug("outbox flushed", "published", n)
		}
		if _, err := c.PruneOutbox(ctx); err != nil {
			c.Logger.Warn("error pruning outbox", "error", err)
		}
		cancel()
	}

	if c.Metrics != nil {
		if counters := c.Metrics.Counters(); len(counters) > 0 {
			c.Logger.Debug("session metrics", "counters", counters)
		}
	}

	if c.Broker != nil {
		if err := c.Broker.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Debug("database connection closed", "driver", c.DBDriver.String())
		}
	}
}
