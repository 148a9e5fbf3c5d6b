package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/langowen/converter/internal/converter/metrics"
	"github.com/langowen/converter/internal/entities"
	"github.com/pkg/errors"
)

const (
	DefaultTTL    = 10800 * time.Second
	DefaultLocale = "en_US"

	currencyListKey = "currencyList"
)

type Converter struct {
	provider RateProvider
	cache    Cache
	table    CurrencyTable
	symbols  SymbolFormatter
	ttl      time.Duration
	locale   string
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type Option func(c *Converter)

func WithTTL(ttl time.Duration) Option {
	return func(c *Converter) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithDefaultLocale(locale string) Option {
	return func(c *Converter) {
		if locale = normalizeLocale(locale); locale != "" {
			c.locale = locale
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Converter) {
		c.metrics = m
	}
}

func NewConverter(provider RateProvider, cache Cache, table CurrencyTable, symbols SymbolFormatter, opts ...Option) *Converter {
	c := &Converter{
		provider: provider,
		cache:    cache,
		table:    table,
		symbols:  symbols,
		ttl:      DefaultTTL,
		locale:   DefaultLocale,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ConversionRate returns the multiplier from one currency to another.
// Identical codes always yield exactly 1.0 without asking the provider.
func (c *Converter) ConversionRate(ctx context.Context, from, to string) (float64, error) {
	const op = "service.ConversionRate"

	from = entities.NormalizeCode(from)
	to = entities.NormalizeCode(to)

	if from == to {
		c.logger.Info("Same currency requested, returning identity rate", "op", op, "currency", from)
		return 1.0, nil
	}

	rate, err := remember(ctx, c, "rate", from+to, func(ctx context.Context) (float64, bool) {
		return c.provider.ConversionRate(ctx, from, to)
	})
	if err != nil {
		return 0, errors.Wrap(err, op)
	}

	return rate, nil
}

func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	const op = "service.Convert"

	rate, err := c.ConversionRate(ctx, from, to)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}

	return amount * rate, nil
}

func (c *Converter) CurrencyList(ctx context.Context) ([]string, error) {
	const op = "service.CurrencyList"

	list, err := remember(ctx, c, "currency_list", currencyListKey, func(ctx context.Context) ([]string, bool) {
		list := c.provider.CurrencyList(ctx)
		return list, len(list) > 0
	})
	if errors.Is(err, entities.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return list, nil
}

// Alpha3ByCountryCode resolves a country to its ISO 4217 currency code.
// Only hits are cached, unknown countries go back to the table every time.
func (c *Converter) Alpha3ByCountryCode(ctx context.Context, countryCode string) (string, error) {
	const op = "service.Alpha3ByCountryCode"

	countryCode = entities.NormalizeCode(countryCode)

	alpha3, err := remember(ctx, c, "alpha3", countryCode+"_Alpha3", func(context.Context) (string, bool) {
		cur, ok := c.table.ByCountry(countryCode)
		return cur.Alpha3, ok
	})
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	return alpha3, nil
}

func (c *Converter) CurrencyByCountryCode(ctx context.Context, countryCode string) (string, error) {
	const op = "service.CurrencyByCountryCode"

	countryCode = entities.NormalizeCode(countryCode)

	name, err := remember(ctx, c, "currency", countryCode+"_Currency", func(context.Context) (string, bool) {
		cur, ok := c.table.ByCountry(countryCode)
		return cur.Name, ok
	})
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	return name, nil
}

// CurrencySymbolByAlpha3 formats the display symbol of a currency for a
// locale such as "en_US". An empty locale selects the converter default.
func (c *Converter) CurrencySymbolByAlpha3(ctx context.Context, alpha3, locale string) (string, error) {
	const op = "service.CurrencySymbolByAlpha3"

	alpha3 = entities.NormalizeCode(alpha3)
	locale = normalizeLocale(locale)
	if locale == "" {
		locale = c.locale
	}

	key := alpha3 + "_" + locale + "_Symbol"

	var formatErr error
	symbol, err := remember(ctx, c, "symbol", key, func(context.Context) (string, bool) {
		symbol, err := c.symbols.Symbol(alpha3, locale)
		if err != nil {
			formatErr = err
			return "", false
		}
		return symbol, true
	})
	if formatErr != nil && !errors.Is(formatErr, entities.ErrNotFound) {
		return "", errors.Wrap(formatErr, op)
	}
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	return symbol, nil
}

// CurrencySymbolByCountryCode returns entities.ErrNotFound when the country
// cannot be resolved, the formatter is never asked about an empty code.
func (c *Converter) CurrencySymbolByCountryCode(ctx context.Context, countryCode, locale string) (string, error) {
	const op = "service.CurrencySymbolByCountryCode"

	alpha3, err := c.Alpha3ByCountryCode(ctx, countryCode)
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	symbol, err := c.CurrencySymbolByAlpha3(ctx, alpha3, locale)
	if err != nil {
		return "", errors.Wrap(err, op)
	}

	return symbol, nil
}

// normalizeLocale writes "en-US" and " en_US " as "en_US".
func normalizeLocale(locale string) string {
	return strings.ReplaceAll(strings.TrimSpace(locale), "-", "_")
}

// remember serves key from the cache or computes it with fetch. Values are
// stored only when fetch reports success, otherwise entities.ErrNotFound is
// returned. Cache backend errors are the only other failure.
func remember[T any](ctx context.Context, c *Converter, operation, key string, fetch func(ctx context.Context) (T, bool)) (T, error) {
	const op = "service.remember"

	var value T

	raw, found, err := c.cache.Get(ctx, key)
	if err != nil {
		return value, errors.Wrapf(err, "%s: get %q", op, key)
	}

	if found {
		decodeErr := json.Unmarshal(raw, &value)
		if decodeErr == nil {
			c.metrics.CacheHit(operation)
			c.logger.Debug("Cache hit", "op", op, "key", key)
			return value, nil
		}
		c.logger.Warn("Ignoring undecodable cache entry", "op", op, "key", key, "error", decodeErr)
	}

	c.metrics.CacheMiss(operation)
	c.logger.Debug("Cache miss", "op", op, "key", key)

	value, ok := fetch(ctx)
	if !ok {
		return value, entities.ErrNotFound
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return value, errors.Wrapf(err, "%s: encode %q", op, key)
	}

	if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
		return value, errors.Wrapf(err, "%s: set %q", op, key)
	}

	return value, nil
}
