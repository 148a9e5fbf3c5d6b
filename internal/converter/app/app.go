package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/langowen/converter/deploy/config"
	"github.com/langowen/converter/internal/converter/adapter/api_client"
	"github.com/langowen/converter/internal/converter/adapter/api_client/currency_layer"
	"github.com/langowen/converter/internal/converter/adapter/api_client/fixer"
	"github.com/langowen/converter/internal/converter/adapter/cache/memory"
	"github.com/langowen/converter/internal/converter/adapter/cache/postgres"
	"github.com/langowen/converter/internal/converter/adapter/cache/redis"
	"github.com/langowen/converter/internal/converter/adapter/iso4217"
	"github.com/langowen/converter/internal/converter/adapter/symbol"
	"github.com/langowen/converter/internal/converter/metrics"
	"github.com/langowen/converter/internal/converter/ports/http/public"
	"github.com/langowen/converter/internal/converter/service"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	redisPack "github.com/redis/go-redis/v9"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	closers []func()
}

func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Start wires every component and runs the HTTP server until ctx is done.
// The returned channel is closed once the server and backends are stopped.
func (a *App) Start(ctx context.Context) (<-chan struct{}, error) {
	const op = "app.Start"

	a.initLogger()
	a.logger.Info("Logger initialized")

	a.logger.Info("starting application",
		"provider", a.cfg.Provider.Name,
		"cache_backend", a.cfg.Cache.Backend,
		"cache_ttl", a.cfg.Cache.TTL.String(),
		"http_port", a.cfg.HTTPServer.Port,
	)

	a.metrics = metrics.New(prometheus.DefaultRegisterer)

	cache, err := a.initCache(ctx)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}
	a.logger.Info("Cache initialized", "backend", a.cfg.Cache.Backend)

	converter, err := a.initConverter(cache)
	if err != nil {
		a.close()
		return nil, errors.Wrap(err, op)
	}
	a.logger.Info("Converter initialized")

	serverDone, err := public.StartServer(ctx, converter, a.cfg, a.logger)
	if err != nil {
		a.close()
		return nil, errors.Wrap(err, op)
	}
	a.logger.Info("server started", "port", a.cfg.HTTPServer.Port)

	done := make(chan struct{})
	go func() {
		<-serverDone
		a.close()
		close(done)
	}()

	return done, nil
}

func (a *App) initLogger() {
	a.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     parseLevel(a.cfg.Log.Level),
		AddSource: false,
	}))
	slog.SetDefault(a.logger)
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (a *App) initCache(ctx context.Context) (service.Cache, error) {
	switch strings.ToLower(a.cfg.Cache.Backend) {
	case BackendMemory, "":
		storage := memory.NewStorage()
		storage.StartCleanup(ctx, 5*time.Minute)
		return storage, nil

	case BackendRedis:
		options := &redisPack.Options{
			Addr:     a.cfg.Redis.Host,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		}

		storage, err := redis.InitStorage(ctx, options, a.cfg.Cache.Prefix)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = storage.Close() })
		return storage, nil

	case BackendPostgres:
		storage, err := postgres.InitStorage(ctx, a.cfg.Storage)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, storage.Close)
		go a.purgeExpired(ctx, storage)
		return storage, nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", a.cfg.Cache.Backend)
	}
}

func (a *App) purgeExpired(ctx context.Context, storage *postgres.Storage) {
	const op = "app.purgeExpired"

	interval := a.cfg.Cache.TTL
	if interval <= 0 {
		interval = service.DefaultTTL
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := storage.DeleteExpired(ctx)
			if err != nil {
				a.logger.Error("Failed to purge expired cache rows", "op", op, "error", err)
				continue
			}
			a.logger.Debug("Purged expired cache rows", "op", op, "rows", n)
		case <-ctx.Done():
			return
		}
	}
}

// NewProvider selects the upstream rate API by name, fixer being the default.
func NewProvider(cfg config.Provider, logger *slog.Logger, m *metrics.Metrics) (service.RateProvider, error) {
	client := api_client.NewHTTPClient(cfg.Timeout)

	switch strings.ToLower(cfg.Name) {
	case fixer.Name, "":
		return fixer.NewProvider(client, cfg.FixerURL, cfg.FixerKey, logger, m), nil
	case currency_layer.Name:
		if cfg.CurrencyLayerKey == "" {
			return nil, errors.New("currencylayer provider requires PROVIDER_CURRENCYLAYER_KEY")
		}
		return currency_layer.NewProvider(client, cfg.CurrencyLayerURL, cfg.CurrencyLayerKey, logger, m), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

func (a *App) initConverter(cache service.Cache) (*service.Converter, error) {
	provider, err := NewProvider(a.cfg.Provider, a.logger, a.metrics)
	if err != nil {
		return nil, err
	}

	table, err := iso4217.Default()
	if err != nil {
		return nil, err
	}

	formatter := symbol.NewFormatter(a.cfg.Cache.DefaultLocale, a.logger)

	return service.NewConverter(provider, cache, table, formatter,
		service.WithTTL(a.cfg.Cache.TTL),
		service.WithDefaultLocale(a.cfg.Cache.DefaultLocale),
		service.WithLogger(a.logger),
		service.WithMetrics(a.metrics),
	), nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
