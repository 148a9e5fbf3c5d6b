package fixer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/langowen/converter/internal/converter/adapter/api_client"
	"github.com/langowen/converter/internal/converter/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *metrics.Metrics) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewProvider(api_client.NewHTTPClient(time.Second), srv.URL, "", logger, m), m
}

func TestProvider_ConversionRate(t *testing.T) {
	p, m := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Equal(t, "EUR", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`{"base":"USD","date":"2024-01-02","rates":{"EUR":0.9137}}`))
	})

	rate, ok := p.ConversionRate(context.Background(), "USD", "EUR")
	require.True(t, ok)
	assert.Equal(t, 0.9137, rate)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues(Name, metrics.OutcomeOK)))
}

func TestProvider_ConversionRate_AccessKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("access_key"))
		_, _ = w.Write([]byte(`{"success":true,"rates":{"TRY":30.1}}`))
	}))
	defer srv.Close()

	p := NewProvider(api_client.NewHTTPClient(time.Second), srv.URL, "secret", nil, nil)

	rate, ok := p.ConversionRate(context.Background(), "USD", "TRY")
	require.True(t, ok)
	assert.Equal(t, 30.1, rate)
}

func TestProvider_ConversionRate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"non-200", http.StatusInternalServerError, `{"rates":{"EUR":1}}`},
		{"missing rate", http.StatusOK, `{"rates":{"GBP":0.8}}`},
		{"missing rates", http.StatusOK, `{"A":["B","C","D"]}`},
		{"malformed", http.StatusOK, `<html>`},
		{"api error", http.StatusOK, `{"success":false,"error":{"code":101,"type":"missing_access_key","info":"no key"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, m := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			})

			rate, ok := p.ConversionRate(context.Background(), "USD", "EUR")
			assert.False(t, ok)
			assert.Zero(t, rate)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues(Name, metrics.OutcomeFailed)))
		})
	}
}

func TestProvider_CurrencyList(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "USD", r.URL.Query().Get("base"))
		assert.Empty(t, r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"TRY":30.1,"EUR":0.91,"CAD":1.33}}`))
	})

	list := p.CurrencyList(context.Background())
	assert.Equal(t, []string{"CAD", "EUR", "TRY", "USD"}, list)
}

func TestProvider_CurrencyList_Failures(t *testing.T) {
	p, _ := newProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	list := p.CurrencyList(context.Background())
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestProvider_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewProvider(api_client.NewHTTPClient(time.Second), url, "", nil, nil)

	_, ok := p.ConversionRate(context.Background(), "USD", "EUR")
	assert.False(t, ok)
	assert.Empty(t, p.CurrencyList(context.Background()))
}
