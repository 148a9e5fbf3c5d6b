package public

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/langowen/converter/deploy/config"
	mwLogger "github.com/langowen/converter/internal/converter/ports/http/public/middleware/logger"
	"github.com/langowen/converter/internal/entities"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	mwLimiter "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

type Server struct {
	Server   *http.Server
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewServer(service Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// Router mounts every endpoint. limitRate uses the limiter format, e.g.
// "100-M"; an empty value disables rate limiting.
func (s *Server) Router(limitRate string) (http.Handler, error) {
	const op = "public.Router"

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mwLogger.New(s.logger))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var limit func(http.Handler) http.Handler
	if limitRate != "" {
		rate, err := limiter.NewRateFromFormatted(limitRate)
		if err != nil {
			return nil, pkgerrors.Wrap(err, op)
		}
		limit = mwLimiter.NewMiddleware(limiter.New(memory.NewStore(), rate)).Handler
	}

	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}

		r.Get("/rates/{from}/{to}", s.GetRate)
		r.Get("/convert", s.Convert)
		r.Get("/currencies", s.GetCurrencies)
		r.Get("/countries/{code}", s.GetCountry)
		r.Get("/countries/{code}/symbol", s.GetCountrySymbol)
		r.Get("/symbols/{alpha3}", s.GetSymbol)
	})

	return r, nil
}

func StartServer(ctx context.Context, service Service, cfg *config.Config, logger *slog.Logger) (<-chan struct{}, error) {
	server := NewServer(service, logger)

	router, err := server.Router(cfg.Limiter.Rate)
	if err != nil {
		return nil, err
	}

	server.Server = &http.Server{
		Addr:         ":" + cfg.HTTPServer.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	doneChan := make(chan struct{})

	go func() {
		if err := server.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.logger.Error("Http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Server.Shutdown(shutdownCtx); err != nil {
			server.logger.Error("Failed to stop server", "error", err)
		}

		close(doneChan)
	}()

	return doneChan, nil
}

func (s *Server) GetRate(w http.ResponseWriter, r *http.Request) {
	req := pairRequest{
		From: entities.NormalizeCode(chi.URLParam(r, "from")),
		To:   entities.NormalizeCode(chi.URLParam(r, "to")),
	}
	if err := s.validate.Struct(req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid currency pair", err.Error())
		return
	}

	rate, err := s.service.ConversionRate(r.Context(), req.From, req.To)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, RateResponse{From: req.From, To: req.To, Rate: rate})
}

func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	amount, err := strconv.ParseFloat(query.Get("amount"), 64)
	if err == nil && (math.IsNaN(amount) || math.IsInf(amount, 0)) {
		err = errors.New("amount must be a finite number")
	}
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	req := convertRequest{
		From:   entities.NormalizeCode(query.Get("from")),
		To:     entities.NormalizeCode(query.Get("to")),
		Amount: amount,
	}
	if err := s.validate.Struct(req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid conversion request", err.Error())
		return
	}

	result, err := s.service.Convert(r.Context(), req.Amount, req.From, req.To)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, ConvertResponse{
		From:   req.From,
		To:     req.To,
		Amount: req.Amount,
		Result: result,
	})
}

func (s *Server) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.CurrencyList(r.Context())
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, list)
}

func (s *Server) GetCountry(w http.ResponseWriter, r *http.Request) {
	req := countryRequest{Code: entities.NormalizeCode(chi.URLParam(r, "code"))}
	if err := s.validate.Struct(req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid country code", err.Error())
		return
	}

	alpha3, err := s.service.Alpha3ByCountryCode(r.Context(), req.Code)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	name, err := s.service.CurrencyByCountryCode(r.Context(), req.Code)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, CountryResponse{Country: req.Code, Alpha3: alpha3, Currency: name})
}

func (s *Server) GetCountrySymbol(w http.ResponseWriter, r *http.Request) {
	req := countryRequest{
		Code:   entities.NormalizeCode(chi.URLParam(r, "code")),
		Locale: r.URL.Query().Get("locale"),
	}
	if err := s.validate.Struct(req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid country code", err.Error())
		return
	}

	symbol, err := s.service.CurrencySymbolByCountryCode(r.Context(), req.Code, req.Locale)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, SymbolResponse{Symbol: symbol})
}

func (s *Server) GetSymbol(w http.ResponseWriter, r *http.Request) {
	req := symbolRequest{
		Alpha3: entities.NormalizeCode(chi.URLParam(r, "alpha3")),
		Locale: r.URL.Query().Get("locale"),
	}
	if err := s.validate.Struct(req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid currency code", err.Error())
		return
	}

	symbol, err := s.service.CurrencySymbolByAlpha3(r.Context(), req.Alpha3, req.Locale)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, SymbolResponse{Symbol: symbol})
}

func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, entities.ErrNotFound) {
		RespondWithError(w, http.StatusNotFound, "not found")
		return
	}

	s.logger.Error("Service call failed", "error", err)
	RespondWithError(w, http.StatusInternalServerError, "internal error")
}

func RespondWithJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func RespondWithError(w http.ResponseWriter, code int, message string, details ...string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)

	errorText := message
	if len(details) > 0 {
		errorText += "\nDetails: " + details[0]
	}

	if _, err := w.Write([]byte(errorText)); err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}
