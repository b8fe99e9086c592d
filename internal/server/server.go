package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/iwvelando/offplan-forecast/internal/config"
	"github.com/iwvelando/offplan-forecast/internal/forecast"
	"github.com/iwvelando/offplan-forecast/internal/metrics"
	"github.com/iwvelando/offplan-forecast/internal/optimizer"
	"github.com/iwvelando/offplan-forecast/pkg/constants"
	"github.com/iwvelando/offplan-forecast/pkg/deal"
	"github.com/iwvelando/offplan-forecast/pkg/exits"
	"github.com/iwvelando/offplan-forecast/pkg/output"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	requestIDHeader = "X-Request-ID"
	cacheHeader     = "X-Cache"
	tracerName      = "github.com/iwvelando/offplan-forecast/internal/server"
)

type requestIDKey struct{}

// Options configures the HTTP handler.
type Options struct {
	MaxUploadSize  int64
	Version        string
	AllowedOrigins []string
	// Cache stores rendered forecast responses. Nil disables caching.
	Cache Cache
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	cache         Cache
}

type forecastOptions struct {
	Optimize bool
}

// NewHandler constructs the HTTP handler that serves the forecast API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion, cache: opts.Cache}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(h.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader, cacheHeader},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Forecast from an uploaded YAML file
		r.Post("/forecast", h.handleForecast)

		// Forecast from an editor-built JSON configuration
		r.Post("/editor/forecast", h.handleForecastEditor)

		// YAML serialization for editor downloads
		r.Post("/editor/export", h.handleConfigExport)

		// Single exit quote
		r.Post("/exit", h.handleExit)

		r.Get("/version", h.handleVersion)
	})

	return r
}

// requestID propagates or assigns a request id.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFromContext returns the id assigned to the request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		h.logger.Debug("request handled",
			zap.String("op", "server.instrument"),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.String("requestId", RequestIDFromContext(r.Context())),
		)
	})
}

type forecastResponse struct {
	Scenarios  []string            `json:"scenarios"`
	Forecasts  []forecast.Forecast `json:"forecasts"`
	CSV        string              `json:"csv"`
	Warnings   []string            `json:"warnings,omitempty"`
	Duration   string              `json:"duration"`
	ConfigYAML string              `json:"configYaml,omitempty"`
}

type exitRequest struct {
	Config     map[string]interface{} `json:"config"`
	Scenario   string                 `json:"scenario"`
	ExitMonths *float64               `json:"exitMonths"`
	Label      string                 `json:"label"`
}

type exitResponse struct {
	Scenario string           `json:"scenario"`
	Currency string           `json:"currency"`
	Exits    []exits.Scenario `json:"exits"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleForecast(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleForecast"
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	opts := forecastOptions{Optimize: coerceBool(r.FormValue("optimize"))}
	h.runForecast(w, r, buf.Bytes(), start, op, opts)
}

func (h *handler) handleExit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExit"
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), op)
	defer span.End()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var req exitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request exceeds limit of %d bytes", maxBytesErr.Limit), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}
	if req.Config == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing config", op)
		return
	}

	configBytes, err := yaml.Marshal(req.Config)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	var scenario *config.Scenario
	if req.Scenario != "" {
		found, ok := cfg.FindScenario(req.Scenario)
		if !ok {
			h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("scenario %q not found", req.Scenario), op)
			return
		}
		scenario = found
	} else if active := cfg.ActiveScenarios(); len(active) > 0 {
		scenario = &active[0]
	} else {
		h.respondErrorWithOp(w, http.StatusBadRequest, "no active scenario", op)
		return
	}
	span.SetAttributes(attribute.String("scenario", scenario.Name))

	p := scenario.Deal.ToParams()
	evaluator, err := exits.NewEvaluator(p)
	if err != nil {
		h.respondCalculationError(w, err, op)
		return
	}

	points := cfg.ExitPointsFor(*scenario, p.TotalMonths())
	if req.ExitMonths != nil {
		label := req.Label
		if label == "" {
			label = fmt.Sprintf("Month %.0f", *req.ExitMonths)
		}
		points = []exits.Point{{Label: label, Months: *req.ExitMonths}}
	}

	quotes, err := evaluator.EvaluatePoints(points, p.EntryCosts(), cfg.ExitCostsFor(*scenario))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.respondCalculationError(w, err, op)
		return
	}

	h.logger.Debug("exit quoted",
		zap.String("op", op),
		zap.String("scenario", scenario.Name),
		zap.Int("points", len(quotes)),
		zap.String("requestId", RequestIDFromContext(ctx)),
	)
	h.writeJSON(w, http.StatusOK, exitResponse{
		Scenario: scenario.Name,
		Currency: cfg.CurrencyCode(),
		Exits:    quotes,
	})
}

func (h *handler) runForecast(w http.ResponseWriter, r *http.Request, configBytes []byte, start time.Time, op string, opts forecastOptions) {
	ctx, span := otel.Tracer(tracerName).Start(r.Context(), op)
	defer span.End()
	span.SetAttributes(attribute.Bool("optimize", opts.Optimize))

	key := CacheKey(fmt.Sprintf("%s:%t", op, opts.Optimize), configBytes)
	if h.cache != nil {
		if cached, ok := h.cache.Get(ctx, key); ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			w.Header().Set(cacheHeader, "HIT")
			h.writeRawJSON(w, http.StatusOK, cached)
			return
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		w.Header().Set(cacheHeader, "MISS")
	}

	fail := func(status int, msg string, err error) {
		metrics.Forecasts.WithLabelValues("error").Inc()
		if err != nil {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, msg)
		h.respondErrorWithOp(w, status, msg, op)
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		fail(http.StatusBadRequest, err.Error(), err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fail(http.StatusBadRequest, err.Error(), err)
		return
	}
	warnings := cfg.ValidateConfiguration()

	var optimizationResult *optimizer.Result
	if opts.Optimize {
		runner, err := optimizer.NewRunner(h.logger, cfg)
		if err != nil {
			fail(http.StatusBadRequest, fmt.Sprintf("failed to initialize optimizer: %v", err), err)
			return
		}

		optimizationResult, err = runner.Run()
		if err != nil {
			fail(http.StatusBadRequest, fmt.Sprintf("optimizer execution failed: %v", err), err)
			return
		}
	}

	results, err := forecast.GetForecast(h.logger, *cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, deal.ErrInvalidParams) {
			status = http.StatusBadRequest
		}
		metrics.CalculationErrors.WithLabelValues(op, errorType(err)).Inc()
		fail(status, fmt.Sprintf("failed to compute forecast: %v", err), err)
		return
	}

	if optimizationResult != nil && !optimizationResult.Empty() {
		optimizationResult.Apply(results)
	}

	elapsed := time.Since(start)
	response := forecastResponse{
		Scenarios:  extractScenarioNames(results),
		Forecasts:  results,
		CSV:        output.CsvString(results),
		Warnings:   warnings,
		Duration:   elapsed.String(),
		ConfigYAML: string(configBytes),
	}
	if response.Forecasts == nil {
		response.Forecasts = []forecast.Forecast{}
	}

	body, err := json.Marshal(response)
	if err != nil {
		fail(http.StatusInternalServerError, fmt.Sprintf("failed to encode response: %v", err), err)
		return
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, body); err != nil {
			h.logger.Warn("failed to cache forecast",
				zap.String("op", op),
				zap.Error(err),
			)
		}
	}

	metrics.Forecasts.WithLabelValues("ok").Inc()
	metrics.Scenarios.Add(float64(len(results)))
	span.SetAttributes(attribute.Int("scenarios", len(results)))

	h.logger.Info("forecast computed",
		zap.String("op", op),
		zap.Int("scenarios", len(response.Scenarios)),
		zap.Duration("duration", elapsed),
		zap.String("requestId", RequestIDFromContext(ctx)),
	)

	h.writeRawJSON(w, http.StatusOK, body)
}

func (h *handler) respondCalculationError(w http.ResponseWriter, err error, op string) {
	metrics.CalculationErrors.WithLabelValues(op, errorType(err)).Inc()
	status := http.StatusInternalServerError
	if errors.Is(err, deal.ErrInvalidParams) || errors.Is(err, exits.ErrNegativeExit) {
		status = http.StatusBadRequest
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, exits.ErrNegativeExit):
		return "negative_exit"
	case errors.Is(err, deal.ErrInvalidMortgage):
		return "invalid_mortgage"
	case errors.Is(err, deal.ErrInvalidParams):
		return "invalid_params"
	default:
		return "internal"
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *handler) writeRawJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func extractScenarioNames(results []forecast.Forecast) []string {
	names := make([]string, 0, len(results))
	for _, scenario := range results {
		names = append(names, scenario.Name)
	}
	return names
}
