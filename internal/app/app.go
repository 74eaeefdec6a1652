package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/EcommerceGo/storefront/internal/cart"
	"github.com/utafrali/EcommerceGo/storefront/internal/checkout"
	"github.com/utafrali/EcommerceGo/storefront/internal/client"
	"github.com/utafrali/EcommerceGo/storefront/internal/config"
	"github.com/utafrali/EcommerceGo/storefront/internal/discount"
	"github.com/utafrali/EcommerceGo/storefront/internal/event"
	handler "github.com/utafrali/EcommerceGo/storefront/internal/handler/http"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository/memory"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository/postgres"
	redisrepo "github.com/utafrali/EcommerceGo/storefront/internal/repository/redis"
	"github.com/utafrali/EcommerceGo/storefront/internal/service"
	"github.com/utafrali/EcommerceGo/storefront/internal/shipping"
	"github.com/utafrali/EcommerceGo/storefront/pkg/database"
	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/EcommerceGo/storefront/pkg/kafka"
	"github.com/utafrali/EcommerceGo/storefront/pkg/middleware"
	"github.com/utafrali/EcommerceGo/storefront/pkg/tracing"
)

const serviceName = "storefront"

// Purger removes expired cart and checkout slots. Redis expires keys on its
// own and has no purger.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// slotBackend is what a persistence backend contributes to the app.
type slotBackend struct {
	slots  repository.SlotStore
	purger Purger
	close  func()
}

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	backend        slotBackend
	producer       *pkgkafka.Producer
	resolver       *shipping.Resolver
	httpServer     *http.Server
	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	if cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	}

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return nil, err
	}
	store := repository.New(backend.slots)

	// Downstream clients.
	catalog := client.NewCatalogClient(newBreaker(cfg, "catalog", logger), cfg.CatalogServiceURL)
	discounts := client.NewDiscountClient(newBreaker(cfg, "discount", logger), cfg.DiscountServiceURL)

	var primary, seed shipping.Loader
	if cfg.ShippingServiceURL != "" {
		primary = client.NewShippingClient(newBreaker(cfg, "shipping", logger), cfg.ShippingServiceURL)
	}
	if cfg.ShippingFeeSeedFile != "" {
		seed = shipping.NewFileLoader(cfg.ShippingFeeSeedFile)
	}
	resolver := shipping.NewResolver(shipping.Config{
		DefaultFee: cfg.DefaultShippingFee,
		TableTTL:   cfg.ShippingTableTTL,
	}, primary, seed, logger)

	// Events. A nil publisher turns every publish into a no-op.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher
	)
	if cfg.EventsEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}
	events := event.NewProducer(publisher, logger)

	// Cart stores and checkout sessions.
	carts, err := cart.NewManager(store, cfg.SessionCacheSize, logger)
	if err != nil {
		backend.close()
		return nil, fmt.Errorf("create cart manager: %w", err)
	}
	sessions, err := checkout.NewSessions(cfg.SessionCacheSize, cfg.LookupTimeout)
	if err != nil {
		backend.close()
		return nil, fmt.Errorf("create checkout sessions: %w", err)
	}
	carts.OnChange(sessions.OnCartChanged)
	carts.OnChange(events.OnCartChanged)

	cartService := service.NewCartService(carts, catalog, cfg.LookupTimeout, logger)
	checkoutService := service.NewCheckoutService(
		carts, store,
		discount.NewValidator(discounts, logger),
		resolver,
		checkout.NewAssembler(logger),
		sessions, events, logger,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("persistence", backend.slots.Ping)
	healthHandler.RegisterOptional("shipping_fee_table", resolver.Check)
	if producer != nil {
		healthHandler.RegisterOptional("kafka", producer.Ping)
	}

	router := handler.NewRouter(cartService, checkoutService, healthHandler, logger, handler.RouterConfig{
		CORS:           middleware.CORSConfig{AllowedOrigins: cfg.CORSOrigins},
		RequestTimeout: cfg.RequestTimeout,
		InternalCIDRs:  cfg.InternalCIDRs,
		DiscountLimit: middleware.RateLimitConfig{
			Every:   cfg.DiscountRateEvery,
			Burst:   cfg.DiscountRateBurst,
			MaxKeys: cfg.SessionCacheSize,
		},
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		backend:        backend,
		producer:       producer,
		resolver:       resolver,
		httpServer:     httpServer,
		shutdownTracer: shutdownTracer,
	}, nil
}

func newBreaker(cfg *config.Config, name string, logger *slog.Logger) *httpclient.CircuitBreakerClient {
	return httpclient.NewCircuitBreakerClient(httpclient.New(httpclient.DefaultConfig()), httpclient.CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     cfg.CBInterval,
		Timeout:      cfg.CBTimeout,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}, logger)
}

// openBackend connects the configured slot store.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (slotBackend, error) {
	ttl := cfg.CartTTL()

	switch cfg.PersistenceBackend {
	case config.BackendMemory:
		s := memory.NewSlotStore(ttl)
		logger.Warn("using in-memory persistence, carts are lost on restart")
		return slotBackend{slots: s, purger: s, close: func() {}}, nil

	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, &database.PostgresConfig{
			Host:            cfg.PostgresHost,
			Port:            cfg.PostgresPort,
			User:            cfg.PostgresUser,
			Password:        cfg.PostgresPass,
			DBName:          cfg.PostgresDB,
			SSLMode:         cfg.PostgresSSL,
			MaxConns:        cfg.DBMaxConns,
			MinConns:        cfg.DBMinConns,
			MaxConnLifetime: cfg.DBMaxConnLifetime,
			MaxConnIdleTime: cfg.DBMaxConnIdleTime,
		}, logger)
		if err != nil {
			return slotBackend{}, err
		}
		if err := postgres.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return slotBackend{}, fmt.Errorf("run migrations: %w", err)
		}
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.String("database", cfg.PostgresDB),
		)
		s := postgres.NewSlotStore(pool, ttl)
		return slotBackend{slots: s, purger: s, close: pool.Close}, nil

	default:
		rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
			Host:        cfg.RedisHost,
			Port:        cfg.RedisPort,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			PoolSize:    cfg.RedisPoolSize,
			DialTimeout: 5 * time.Second,
		}, logger)
		if err != nil {
			return slotBackend{}, err
		}
		logger.Info("connected to Redis",
			slog.String("host", cfg.RedisHost),
			slog.Int("db", cfg.RedisDB),
		)
		return slotBackend{slots: redisrepo.NewSlotStore(rdb, ttl), close: closeRedis(rdb, logger)}, nil
	}
}

func closeRedis(rdb *redis.Client, logger *slog.Logger) func() {
	return func() {
		if err := rdb.Close(); err != nil {
			logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	// Warm the fee table so the first checkout does not pay for the load.
	if _, err := a.resolver.Table(ctx); err != nil {
		a.logger.Warn("shipping fee table not loaded at startup", slog.String("error", err.Error()))
	} else {
		a.logger.Info("shipping fee table ready", slog.String("source", a.resolver.Source()))
	}

	if a.backend.purger != nil && a.cfg.CartTTL() > 0 && a.cfg.PurgeInterval > 0 {
		go a.runPurger(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("persistence", a.cfg.PersistenceBackend),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// runPurger deletes expired slots every PurgeInterval until ctx ends.
func (a *App) runPurger(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.backend.purger.PurgeExpired(ctx)
			if err != nil {
				a.logger.Error("purge expired slots failed", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				a.logger.Info("purged expired slots", slog.Int64("count", n))
			}
		}
	}
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	a.backend.close()

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
