package shipping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/internal/metrics"
	"github.com/utafrali/EcommerceGo/storefront/pkg/logger"
)

// Source names reported in logs and metrics.
const (
	SourceRemote = "remote"
	SourceSeed   = "seed"
)

// Config controls the Resolver.
type Config struct {
	DefaultFee int64
	TableTTL   time.Duration
}

// Resolver caches the shipping-fee table and resolves fees against it. The
// table is refreshed from the primary loader once per TTL; when that fails
// the fallback loader is tried, and a previously loaded table stays in use
// if both fail.
type Resolver struct {
	primary  Loader
	fallback Loader
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	table    *domain.FeeTable
	source   string
	loadedAt time.Time
}

// NewResolver creates a Resolver. Either loader may be nil, but not both.
func NewResolver(cfg Config, primary, fallback Loader, logger *slog.Logger) *Resolver {
	if cfg.DefaultFee <= 0 {
		cfg.DefaultFee = domain.DefaultShippingFee
	}
	return &Resolver{
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Quote resolves the fee for an address. A blank province or ward short
// circuits without loading the table.
func (r *Resolver) Quote(ctx context.Context, provinceCode, wardCode string) (domain.FeeResolution, error) {
	var table *domain.FeeTable
	if strings.TrimSpace(provinceCode) != "" && strings.TrimSpace(wardCode) != "" {
		t, err := r.Table(ctx)
		if err != nil {
			return domain.FeeResolution{}, err
		}
		table = t
	}

	res, err := domain.ResolveShippingFee(provinceCode, wardCode, table, r.cfg.DefaultFee)
	if err != nil {
		return domain.FeeResolution{}, err
	}
	metrics.ShippingResolutions.WithLabelValues(string(res.Tier)).Inc()
	if res.DefaultApplied {
		logger.WithContext(ctx, r.logger).WarnContext(ctx, "no shipping fee entry, default applied",
			slog.String("province_code", provinceCode),
			slog.String("ward_code", wardCode),
			slog.Int64("fee", res.Fee),
		)
	}
	return res, nil
}

// Table returns the cached table, refreshing it when it is older than the
// TTL.
func (r *Resolver) Table(ctx context.Context) (*domain.FeeTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.table != nil && r.now().Sub(r.loadedAt) < r.cfg.TableTTL {
		return r.table, nil
	}

	table, source, err := r.load(ctx)
	if err != nil {
		if r.table != nil {
			logger.WithContext(ctx, r.logger).WarnContext(ctx, "shipping table refresh failed, keeping previous table",
				slog.String("source", r.source),
				slog.String("error", err.Error()),
			)
			return r.table, nil
		}
		return nil, err
	}

	r.table, r.source, r.loadedAt = table, source, r.now()
	r.logger.InfoContext(ctx, "shipping fee table loaded",
		slog.String("source", source),
		slog.Int("entries", table.Len()),
	)
	return table, nil
}

// Source returns where the current table came from, or "" before the first
// load.
func (r *Resolver) Source() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// Check backs the readiness endpoint. It fails when no table can be loaded, and when
// the shipping service is configured but the table in use came from the seed.
func (r *Resolver) Check(ctx context.Context) error {
	if _, err := r.Table(ctx); err != nil {
		return err
	}
	if r.primary != nil && r.Source() == SourceSeed {
		return errors.New("shipping service unavailable, serving seed fee table")
	}
	return nil
}

func (r *Resolver) load(ctx context.Context) (*domain.FeeTable, string, error) {
	if r.primary == nil {
		table, err := loadFrom(ctx, r.fallback, SourceSeed)
		if err != nil {
			return nil, "", err
		}
		return table, SourceSeed, nil
	}

	table, err := loadFrom(ctx, r.primary, SourceRemote)
	if err == nil {
		return table, SourceRemote, nil
	}
	if r.fallback == nil {
		return nil, "", err
	}

	logger.WithContext(ctx, r.logger).WarnContext(ctx, "shipping fee service unavailable, using seed table",
		slog.String("error", err.Error()),
	)
	table, ferr := loadFrom(ctx, r.fallback, SourceSeed)
	if ferr != nil {
		return nil, "", fmt.Errorf("%w (seed: %v)", err, ferr)
	}
	return table, SourceSeed, nil
}

func loadFrom(ctx context.Context, l Loader, source string) (*domain.FeeTable, error) {
	entries, err := l.LoadFeeTable(ctx)
	if err != nil {
		metrics.ShippingTableRefreshes.WithLabelValues(source, "error").Inc()
		return nil, err
	}
	table, err := domain.NewFeeTable(entries)
	if err != nil {
		metrics.ShippingTableRefreshes.WithLabelValues(source, "invalid").Inc()
		return nil, err
	}
	metrics.ShippingTableRefreshes.WithLabelValues(source, "ok").Inc()
	return table, nil
}
