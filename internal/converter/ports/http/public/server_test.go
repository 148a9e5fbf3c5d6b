package public

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/langowen/converter/internal/entities"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) ConversionRate(ctx context.Context, from, to string) (float64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockService) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	args := m.Called(ctx, amount, from, to)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockService) CurrencyList(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockService) Alpha3ByCountryCode(ctx context.Context, countryCode string) (string, error) {
	args := m.Called(ctx, countryCode)
	return args.String(0), args.Error(1)
}

func (m *mockService) CurrencyByCountryCode(ctx context.Context, countryCode string) (string, error) {
	args := m.Called(ctx, countryCode)
	return args.String(0), args.Error(1)
}

func (m *mockService) CurrencySymbolByAlpha3(ctx context.Context, alpha3, locale string) (string, error) {
	args := m.Called(ctx, alpha3, locale)
	return args.String(0), args.Error(1)
}

func (m *mockService) CurrencySymbolByCountryCode(ctx context.Context, countryCode, locale string) (string, error) {
	args := m.Called(ctx, countryCode, locale)
	return args.String(0), args.Error(1)
}

func setupRouter(t *testing.T, limitRate string) (http.Handler, *mockService) {
	t.Helper()

	svc := new(mockService)
	server := NewServer(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router, err := server.Router(limitRate)
	require.NoError(t, err)

	return router, svc
}

func doGet(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func TestGetRate(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("ConversionRate", mock.Anything, "USD", "EUR").Return(0.92, nil)

	rec := doGet(t, router, "/rates/usd/eur")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, RateResponse{From: "USD", To: "EUR", Rate: 0.92}, resp)
}

func TestGetRate_NotFound(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("ConversionRate", mock.Anything, "USD", "NAN").
		Return(0.0, pkgerrors.Wrap(entities.ErrNotFound, "service.ConversionRate"))

	rec := doGet(t, router, "/rates/USD/NAN")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRate_InvalidCode(t *testing.T) {
	router, svc := setupRouter(t, "")

	rec := doGet(t, router, "/rates/US/EURO")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.AssertNotCalled(t, "ConversionRate", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetRate_InternalError(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("ConversionRate", mock.Anything, "USD", "EUR").Return(0.0, errors.New("redis down"))

	rec := doGet(t, router, "/rates/USD/EUR")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis down")
}

func TestConvert(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("Convert", mock.Anything, 12.5, "EUR", "TRY").Return(437.5, nil)

	rec := doGet(t, router, "/convert?from=eur&to=try&amount=12.5")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 437.5, resp.Result)
	assert.Equal(t, 12.5, resp.Amount)
}

func TestConvert_BadRequests(t *testing.T) {
	router, svc := setupRouter(t, "")

	for _, target := range []string{
		"/convert?from=USD&to=EUR",
		"/convert?from=USD&to=EUR&amount=abc",
		"/convert?from=USD&to=EUR&amount=NaN",
		"/convert?from=USD&to=EUR&amount=Inf",
		"/convert?from=USD&amount=1",
	} {
		rec := doGet(t, router, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	svc.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConvert_NegativeAmount(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("Convert", mock.Anything, -10.0, "USD", "EUR").Return(-9.2, nil)

	rec := doGet(t, router, "/convert?from=USD&to=EUR&amount=-10")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ConvertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, -9.2, resp.Result)
}

func TestGetCurrencies(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("CurrencyList", mock.Anything).Return([]string{"EUR", "USD"}, nil)

	rec := doGet(t, router, "/currencies")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"EUR", "USD"}, list)
}

func TestGetCountry(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("Alpha3ByCountryCode", mock.Anything, "US").Return("USD", nil)
	svc.On("CurrencyByCountryCode", mock.Anything, "US").Return("US Dollar", nil)

	rec := doGet(t, router, "/countries/us")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CountryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, CountryResponse{Country: "US", Alpha3: "USD", Currency: "US Dollar"}, resp)
}

func TestGetCountry_Unknown(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("Alpha3ByCountryCode", mock.Anything, "WQ").Return("", entities.ErrNotFound)

	rec := doGet(t, router, "/countries/WQ")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGet(t, router, "/countries/TEST")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSymbol(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("CurrencySymbolByAlpha3", mock.Anything, "TRY", "tr_TR").Return("₺", nil)
	svc.On("CurrencySymbolByAlpha3", mock.Anything, "USD", "").Return("$", nil)

	rec := doGet(t, router, "/symbols/try?locale=tr_TR")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SymbolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "₺", resp.Symbol)

	rec = doGet(t, router, "/symbols/USD")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "$", resp.Symbol)
}

func TestGetCountrySymbol(t *testing.T) {
	router, svc := setupRouter(t, "")
	svc.On("CurrencySymbolByCountryCode", mock.Anything, "FR", "en_US").Return("€", nil)
	svc.On("CurrencySymbolByCountryCode", mock.Anything, "WQ", "en_US").Return("", entities.ErrNotFound)

	rec := doGet(t, router, "/countries/fr/symbol?locale=en_US")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SymbolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "€", resp.Symbol)

	rec = doGet(t, router, "/countries/WQ/symbol?locale=en_US")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router, _ := setupRouter(t, "")

	rec := doGet(t, router, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	router, svc := setupRouter(t, "2-M")
	svc.On("CurrencyList", mock.Anything).Return([]string{"USD"}, nil)

	assert.Equal(t, http.StatusOK, doGet(t, router, "/currencies").Code)
	assert.Equal(t, http.StatusOK, doGet(t, router, "/currencies").Code)
	assert.Equal(t, http.StatusTooManyRequests, doGet(t, router, "/currencies").Code)

	assert.Equal(t, http.StatusOK, doGet(t, router, "/healthz").Code)
}

func TestRouter_BadLimitRate(t *testing.T) {
	server := NewServer(new(mockService), nil)

	_, err := server.Router("lots")
	assert.Error(t, err)
}
