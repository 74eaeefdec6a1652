package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	pkgconfig "github.com/utafrali/EcommerceGo/storefront/pkg/config"
)

// Persistence backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort       int           `env:"STOREFRONT_HTTP_PORT" envDefault:"8010"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	CORSOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
	InternalCIDRs  []string      `env:"INTERNAL_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Cart and checkout persistence
	PersistenceBackend string        `env:"PERSISTENCE_BACKEND" envDefault:"redis"`
	CartTTLHours       int           `env:"CART_TTL_HOURS" envDefault:"168"`
	PurgeInterval      time.Duration `env:"PERSISTENCE_PURGE_INTERVAL" envDefault:"1h"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"ecommerce"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"ecommerce_secret"`
	PostgresDB   string `env:"STOREFRONT_DB_NAME" envDefault:"storefront_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`

	// Kafka
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	EventsEnabled bool     `env:"EVENTS_ENABLED" envDefault:"false"`

	// Downstream services
	CatalogServiceURL  string `env:"CATALOG_SERVICE_URL" envDefault:"http://localhost:8001"`
	DiscountServiceURL string `env:"DISCOUNT_SERVICE_URL" envDefault:"http://localhost:8008"`
	ShippingServiceURL string `env:"SHIPPING_SERVICE_URL" envDefault:""`

	// Circuit breaker settings for downstream calls
	CBMaxRequests  uint32        `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     time.Duration `env:"CB_INTERVAL" envDefault:"60s"`
	CBTimeout      time.Duration `env:"CB_TIMEOUT" envDefault:"20s"`
	CBFailureRatio float64       `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32        `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Pricing
	LookupTimeout       time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"10s"`
	DefaultShippingFee  int64         `env:"DEFAULT_SHIPPING_FEE" envDefault:"15000"`
	ShippingTableTTL    time.Duration `env:"SHIPPING_TABLE_TTL" envDefault:"10m"`
	ShippingFeeSeedFile string        `env:"SHIPPING_FEE_SEED_FILE" envDefault:"configs/shipping_fees.yaml"`
	SessionCacheSize    int           `env:"SESSION_CACHE_SIZE" envDefault:"10000"`
	DiscountRateEvery   time.Duration `env:"DISCOUNT_RATE_EVERY" envDefault:"6s"`
	DiscountRateBurst   int           `env:"DISCOUNT_RATE_BURST" envDefault:"5"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow storage operation logging, 0 disables it
	SlowQueryThreshold time.Duration `env:"LOG_SLOW_QUERY" envDefault:"500ms"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains([]string{BackendMemory, BackendRedis, BackendPostgres}, c.PersistenceBackend) {
		return fmt.Errorf("PERSISTENCE_BACKEND must be memory, redis or postgres, got %q", c.PersistenceBackend)
	}
	if c.CartTTLHours < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative, got %d", c.CartTTLHours)
	}
	if c.PersistenceBackend == BackendPostgres && c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.PersistenceBackend == BackendRedis && c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	if c.EventsEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_ENABLED is set")
	}
	if c.DefaultShippingFee <= 0 {
		return fmt.Errorf("DEFAULT_SHIPPING_FEE must be positive, got %d", c.DefaultShippingFee)
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("LOOKUP_TIMEOUT must be positive, got %s", c.LookupTimeout)
	}
	if c.SessionCacheSize <= 0 {
		return fmt.Errorf("SESSION_CACHE_SIZE must be positive, got %d", c.SessionCacheSize)
	}
	if c.DiscountRateEvery > 0 && c.DiscountRateBurst < 1 {
		return fmt.Errorf("DISCOUNT_RATE_BURST must be at least 1, got %d", c.DiscountRateBurst)
	}
	if c.ShippingServiceURL == "" && c.ShippingFeeSeedFile == "" {
		return fmt.Errorf("one of SHIPPING_SERVICE_URL or SHIPPING_FEE_SEED_FILE is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}

	urls := map[string]string{
		"CATALOG_SERVICE_URL":  c.CatalogServiceURL,
		"DISCOUNT_SERVICE_URL": c.DiscountServiceURL,
	}
	if c.ShippingServiceURL != "" {
		urls["SHIPPING_SERVICE_URL"] = c.ShippingServiceURL
	}
	for name, rawURL := range urls {
		if rawURL == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := url.ParseRequestURI(rawURL); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, rawURL, err)
		}
	}
	return nil
}

// CartTTL is how long an untouched cart or checkout slot is kept.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}
