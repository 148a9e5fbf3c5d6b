package fixer

import (
	"context"
	"log/slog"
	"net/url"
	"sort"

	"github.com/langowen/converter/internal/converter/metrics"
	"github.com/langowen/converter/internal/entities"
	"github.com/pkg/errors"
)

const Name = "fixer"

type HTTPClient interface {
	GetJSON(ctx context.Context, url string, dst any) error
}

type latestResponse struct {
	Success *bool              `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
}

// Provider talks to the fixer.io latest endpoint, which accepts any base.
type Provider struct {
	client  HTTPClient
	baseURL string
	key     string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewProvider(client HTTPClient, baseURL, key string, logger *slog.Logger, m *metrics.Metrics) *Provider {
	if logger == nil {
		logger = slog.Default()
	}

	return &Provider{
		client:  client,
		baseURL: baseURL,
		key:     key,
		logger:  logger.With("provider", Name),
		metrics: m,
	}
}

func (p *Provider) ConversionRate(ctx context.Context, from, to string) (float64, bool) {
	const op = "fixer.ConversionRate"

	resp, err := p.latest(ctx, from, to)
	if err != nil {
		p.fail(op, err, "from", from, "to", to)
		return 0, false
	}

	rate, ok := resp.Rates[to]
	if !ok || rate <= 0 {
		p.fail(op, errors.Wrapf(entities.ErrMissingField, "rates.%s", to), "from", from, "to", to)
		return 0, false
	}

	p.metrics.ProviderRequest(Name, metrics.OutcomeOK)

	return rate, true
}

// CurrencyList is derived from the USD based rates plus USD itself, fixer
// has no dedicated symbols endpoint on the free plan.
func (p *Provider) CurrencyList(ctx context.Context) []string {
	const op = "fixer.CurrencyList"

	resp, err := p.latest(ctx, "USD", "")
	if err != nil {
		p.fail(op, err)
		return []string{}
	}

	list := make([]string, 0, len(resp.Rates)+1)
	for code := range resp.Rates {
		if code != "USD" {
			list = append(list, code)
		}
	}
	list = append(list, "USD")
	sort.Strings(list)

	p.metrics.ProviderRequest(Name, metrics.OutcomeOK)

	return list
}

func (p *Provider) latest(ctx context.Context, base, symbols string) (*latestResponse, error) {
	endpoint, err := p.latestURL(base, symbols)
	if err != nil {
		return nil, err
	}

	var resp latestResponse
	if err := p.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	if resp.Success != nil && !*resp.Success {
		if resp.Error != nil {
			return nil, errors.Wrapf(entities.ErrMissingField, "fixer error %d %s: %s", resp.Error.Code, resp.Error.Type, resp.Error.Info)
		}
		return nil, errors.Wrap(entities.ErrMissingField, "fixer reported failure")
	}

	if resp.Rates == nil {
		return nil, errors.Wrap(entities.ErrMissingField, "rates")
	}

	return &resp, nil
}

func (p *Provider) latestURL(base, symbols string) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", errors.Wrap(err, "fixer.latestURL")
	}
	u = u.JoinPath("latest")

	q := u.Query()
	if p.key != "" {
		q.Set("access_key", p.key)
	}
	q.Set("base", base)
	if symbols != "" {
		q.Set("symbols", symbols)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (p *Provider) fail(op string, err error, args ...any) {
	p.metrics.ProviderRequest(Name, metrics.OutcomeFailed)
	p.logger.Error("Fixer request failed", append([]any{"op", op, "error", err}, args...)...)
}
