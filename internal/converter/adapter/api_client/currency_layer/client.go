package currency_layer

import (
	"context"
	"log/slog"
	"net/url"
	"sort"

	"github.com/langowen/converter/internal/converter/metrics"
	"github.com/langowen/converter/internal/entities"
	"github.com/pkg/errors"
)

const (
	Name = "currencylayer"

	source = "USD"
)

type HTTPClient interface {
	GetJSON(ctx context.Context, url string, dst any) error
}

type liveResponse struct {
	Success *bool              `json:"success"`
	Source  string             `json:"source"`
	Quotes  map[string]float64 `json:"quotes"`
	Error   *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Provider talks to the currencylayer live endpoint. The free plan is
// pinned to USD quotes, so any other pair is computed as a cross rate.
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
	const op = "currency_layer.ConversionRate"

	resp, err := p.live(ctx)
	if err != nil {
		p.fail(op, err, "from", from, "to", to)
		return 0, false
	}

	fromQuote, okFrom := resp.Quotes[source+from]
	toQuote, okTo := resp.Quotes[source+to]
	if !okFrom || !okTo || fromQuote <= 0 || toQuote <= 0 {
		err := errors.Wrapf(entities.ErrMissingField, "quotes for %s -> %s", source+from, source+to)
		p.fail(op, err, "from", from, "to", to)
		return 0, false
	}

	p.metrics.ProviderRequest(Name, metrics.OutcomeOK)

	return toQuote / fromQuote, true
}

// CurrencyList strips the three character source prefix from every quote.
func (p *Provider) CurrencyList(ctx context.Context) []string {
	const op = "currency_layer.CurrencyList"

	resp, err := p.live(ctx)
	if err != nil {
		p.fail(op, err)
		return []string{}
	}

	list := make([]string, 0, len(resp.Quotes))
	for pair := range resp.Quotes {
		if len(pair) <= len(source) {
			continue
		}
		list = append(list, pair[len(source):])
	}
	sort.Strings(list)

	p.metrics.ProviderRequest(Name, metrics.OutcomeOK)

	return list
}

func (p *Provider) live(ctx context.Context) (*liveResponse, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "currency_layer.live")
	}
	u = u.JoinPath("live")

	q := u.Query()
	q.Set("access_key", p.key)
	q.Set("format", "1")
	u.RawQuery = q.Encode()

	var resp liveResponse
	if err := p.client.GetJSON(ctx, u.String(), &resp); err != nil {
		return nil, err
	}

	if resp.Success != nil && !*resp.Success {
		if resp.Error != nil {
			return nil, errors.Wrapf(entities.ErrMissingField, "currencylayer error %d: %s", resp.Error.Code, resp.Error.Info)
		}
		return nil, errors.Wrap(entities.ErrMissingField, "currencylayer reported failure")
	}

	if resp.Quotes == nil {
		return nil, errors.Wrap(entities.ErrMissingField, "quotes")
	}

	return &resp, nil
}

func (p *Provider) fail(op string, err error, args ...any) {
	p.metrics.ProviderRequest(Name, metrics.OutcomeFailed)
	p.logger.Error("CurrencyLayer request failed", append([]any{"op", op, "error", err}, args...)...)
}
