package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/echotools/groupseed/internal/intents"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ApiServer struct {
	logger     *zap.Logger
	config     *Config
	metrics    Metrics
	limiter    *rate.Limiter
	router     *mux.Router
	httpServer *http.Server
}

// NewApiServer builds the API handler without listening.
func NewApiServer(logger *zap.Logger, config *Config, metrics Metrics) *ApiServer {
	s := &ApiServer{
		logger:  logger,
		config:  config,
		metrics: metrics,
		router:  mux.NewRouter(),
	}
	if config.API.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.API.RateLimit), config.API.RateBurst)
	}

	s.router.Handle("/healthcheck", s.wrap("Healthcheck", intents.Intent{}, s.healthcheck)).Methods(http.MethodGet)
	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.Handle("/distribute", s.wrap("Distribute", intents.Intent{Distribute: true}, s.distribute)).Methods(http.MethodPost)
	v1.Handle("/settings", s.wrap("SettingsGet", intents.Intent{}, s.getSettings)).Methods(http.MethodGet)
	v1.Handle("/settings", s.wrap("SettingsPut", intents.Intent{Settings: true}, s.putSettings)).Methods(http.MethodPut)
	return s
}

// StartApiServer builds the API handler and serves it on the configured
// address.
func StartApiServer(logger, startupLogger *zap.Logger, config *Config, metrics Metrics) *ApiServer {
	s := NewApiServer(logger, config, metrics)
	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", config.API.Address, config.API.Port),
		ReadTimeout:    time.Millisecond * time.Duration(config.API.ReadTimeoutMs),
		WriteTimeout:   time.Millisecond * time.Duration(config.API.WriteTimeoutMs),
		MaxHeaderBytes: 1 << 20,
		Handler:        s.Handler(),
	}

	startupLogger.Info("Starting API server", zap.String("address", s.httpServer.Addr))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			startupLogger.Fatal("API server listener failed", zap.Error(err))
		}
	}()
	return s
}

func (s *ApiServer) Handler() http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger)),
		handlers.PrintRecoveryStack(true),
	)(handlers.CompressHandler(s.router))
}

func (s *ApiServer) Stop(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("API server shutdown error", zap.Error(err))
	}
}

func (s *ApiServer) healthcheck(w http.ResponseWriter, _ *http.Request) (int, error) {
	writeJSON(w, http.StatusOK, struct{}{})
	return http.StatusOK, nil
}

type apiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// apiHandler returns the status it wrote. A non-nil error means nothing was
// written yet and the wrapper writes the error response.
type apiHandler func(w http.ResponseWriter, r *http.Request) (int, error)

type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

func withStatus(status int, err error) error {
	return &statusError{status: status, err: err}
}

// wrap applies rate limiting, authentication and metrics to a handler.
func (s *ApiServer) wrap(name string, required intents.Intent, h apiHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := loggerForRequest(s.logger, name, start)
		cw := &countingWriter{ResponseWriter: w}

		status, err := s.serve(cw, r, required, h)
		if err != nil {
			status = http.StatusInternalServerError
			var se *statusError
			if errors.As(err, &se) {
				status = se.status
			}
			if status >= http.StatusInternalServerError {
				logger.Error("API request failed", zap.Error(err))
			} else {
				logger.Debug("API request rejected", zap.Int("status", status), zap.Error(err))
			}
			writeJSON(cw, status, apiError{Error: err.Error(), Code: status})
		}

		if s.metrics != nil {
			s.metrics.Api(name, time.Since(start), max(r.ContentLength, 0), cw.written, status >= http.StatusBadRequest)
		}
	})
}

func (s *ApiServer) serve(w http.ResponseWriter, r *http.Request, required intents.Intent, h apiHandler) (int, error) {
	if s.limiter != nil && !s.limiter.Allow() {
		return 0, withStatus(http.StatusTooManyRequests, errors.New("rate limit exceeded"))
	}

	granted, err := s.authenticate(r)
	if err != nil {
		return 0, withStatus(http.StatusUnauthorized, err)
	}
	if (required.Distribute && !granted.Distribute) || (required.Settings && !granted.Settings) {
		return 0, withStatus(http.StatusForbidden, errors.New("api key does not permit this operation"))
	}

	r = r.WithContext(intents.NewContext(r.Context(), granted))
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.API.MaxRequestSizeBytes)
	}
	return h(w, r)
}

// authenticate resolves the request's API key. With no keys configured every
// request is granted every intent.
func (s *ApiServer) authenticate(r *http.Request) (intents.Intent, error) {
	if len(s.config.API.Keys) == 0 {
		return intents.All, nil
	}
	key := r.URL.Query().Get("http_key")
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return intents.Intent{}, errors.New("authorization header must use the Bearer scheme")
		}
		key = token
	}
	if key == "" {
		return intents.Intent{}, errors.New("api key required")
	}
	granted, ok := s.config.API.Keys[key]
	if !ok {
		return intents.Intent{}, errors.New("api key invalid")
	}
	return granted, nil
}

type countingWriter struct {
	http.ResponseWriter
	written int64
}

func (w *countingWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return withStatus(http.StatusRequestEntityTooLarge, err)
		}
		return withStatus(http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}
