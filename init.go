package main

import (
	"context"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tournevent/freightquote/internal/config"
	"github.com/tournevent/freightquote/internal/db"
	"github.com/tournevent/freightquote/internal/telemetry"
	"github.com/tournevent/freightquote/pkg/freight"
	"github.com/tournevent/freightquote/pkg/freight/postgres"
	"github.com/tournevent/freightquote/pkg/freight/tabular"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}

	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version, cfg.Attributes()...)
}

// rateStore is the configured backend plus its lifecycle hooks.
type rateStore struct {
	freight.Store
	reload func(ctx context.Context) error
	close  func()
}

// Reload re-reads reference data. It is a no-op for live backends.
func (s *rateStore) Reload(ctx context.Context) error {
	if s.reload == nil {
		return nil
	}
	return s.reload(ctx)
}

func (s *rateStore) Close() {
	if s.close != nil {
		s.close()
	}
}

func initStore(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (*rateStore, error) {
	switch cfg.RateBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		logger.Info("Using PostgreSQL rate backend")
		return &rateStore{Store: postgres.New(pool, logger), close: pool.Close}, nil

	case config.BackendTabular:
		table, err := readTable(cfg)
		if err != nil {
			return nil, err
		}
		src, err := tabular.New(table, logger)
		if err != nil {
			return nil, err
		}
		return &rateStore{
			Store: src,
			reload: func(ctx context.Context) error {
				table, err := readTable(cfg)
				if err != nil {
					return err
				}
				return src.Replace(table)
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown rate backend %q", cfg.RateBackend)
}

func readTable(cfg *config.Config) (*tabular.Table, error) {
	if cfg.RateTableFile == "" {
		return tabular.DefaultTable(), nil
	}
	return tabular.LoadFile(cfg.RateTableFile)
}

func initEngine(cfg *config.Config, store freight.Store, logger *otelzap.Logger, tracer trace.Tracer) *freight.Engine {
	logger.Debug("Quote engine configured",
		zap.String("default_origin", cfg.DefaultOrigin),
		zap.String("currency", cfg.Currency),
		zap.Int("parallelism", cfg.QuoteParallelism),
	)
	return freight.NewEngine(freight.Config{
		DefaultOrigin: cfg.DefaultOrigin,
		Currency:      cfg.Currency,
		Parallelism:   cfg.QuoteParallelism,
		Schedule:      freight.DefaultSchedule(),
	}, store, store, logger, tracer)
}

// initWeightEngine builds an engine without reference data; only
// ComputeChargeableWeight may be called on it.
func initWeightEngine(logger *otelzap.Logger) *freight.Engine {
	return freight.NewEngine(freight.Config{}, nil, nil, logger, nil)
}
