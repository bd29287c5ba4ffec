package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/echotools/groupseed/seeding"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uber-go/tally/v4"
	"github.com/uber-go/tally/v4/prometheus"
	"go.uber.org/zap"
)

type Metrics interface {
	Stop(logger *zap.Logger)

	Api(name string, elapsed time.Duration, recvBytes, sentBytes int64, isErr bool)
	Distribution(result *seeding.DistributionResult, elapsed time.Duration)
	SettingsUpdated()
}

var _ Metrics = (*LocalMetrics)(nil)

type LocalMetrics struct {
	logger *zap.Logger
	config *Config

	PrometheusScope      tally.Scope
	prometheusCloser     io.Closer
	prometheusHTTPServer *http.Server
}

func NewLocalMetrics(logger, startupLogger *zap.Logger, config *Config) *LocalMetrics {
	m := &LocalMetrics{
		logger: logger,
		config: config,
	}

	// Create Prometheus reporter and root scope. The registry also carries
	// the Go runtime and process collectors.
	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	reporter := prometheus.NewReporter(prometheus.Options{
		Registerer: registry,
		Gatherer:   registry,
		OnRegisterError: func(err error) {
			logger.Error("Error registering Prometheus metric", zap.Error(err))
		},
	})
	tags := map[string]string{"node_name": config.Name}
	if namespace := config.Metrics.Namespace; namespace != "" {
		tags["namespace"] = namespace
	}
	m.PrometheusScope, m.prometheusCloser = tally.NewRootScope(tally.ScopeOptions{
		Prefix:          config.Metrics.Prefix,
		Tags:            tags,
		CachedReporter:  reporter,
		Separator:       prometheus.DefaultSeparator,
		SanitizeOptions: &prometheus.DefaultSanitizerOpts,
	}, time.Duration(config.Metrics.ReportingFreqSec)*time.Second)

	// Check if exposing Prometheus metrics directly is enabled.
	if config.Metrics.PrometheusPort > 0 {
		router := mux.NewRouter()
		router.Handle("/metrics", reporter.HTTPHandler())
		m.prometheusHTTPServer = &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Metrics.PrometheusPort),
			ReadTimeout:  time.Millisecond * time.Duration(config.API.ReadTimeoutMs),
			WriteTimeout: time.Millisecond * time.Duration(config.API.WriteTimeoutMs),
			Handler:      handlers.CompressHandler(router),
		}

		startupLogger.Info("Starting Prometheus server for metrics requests", zap.Int("port", config.Metrics.PrometheusPort))
		go func() {
			if err := m.prometheusHTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				startupLogger.Fatal("Prometheus listener failed", zap.Error(err))
			}
		}()
	}

	return m
}

// NewScopeMetrics records into an existing scope and serves nothing. It is
// used by the CLI and by tests.
func NewScopeMetrics(logger *zap.Logger, scope tally.Scope) *LocalMetrics {
	return &LocalMetrics{
		logger:          logger,
		PrometheusScope: scope,
	}
}

func (m *LocalMetrics) Stop(logger *zap.Logger) {
	if m.prometheusHTTPServer != nil {
		// Stop Prometheus server if one is running.
		if err := m.prometheusHTTPServer.Shutdown(context.Background()); err != nil {
			logger.Error("Prometheus listener shutdown error", zap.Error(err))
		}
	}
	if m.prometheusCloser != nil {
		if err := m.prometheusCloser.Close(); err != nil {
			logger.Error("Prometheus scope close error", zap.Error(err))
		}
	}
}

// Api records a single API request.
func (m *LocalMetrics) Api(name string, elapsed time.Duration, recvBytes, sentBytes int64, isErr bool) {
	name = "Api" + name

	// Global stats.
	m.PrometheusScope.Counter("overall_count").Inc(1)
	m.PrometheusScope.Counter("overall_request_count").Inc(1)
	m.PrometheusScope.Counter("overall_recv_bytes").Inc(recvBytes)
	m.PrometheusScope.Counter("overall_request_recv_bytes").Inc(recvBytes)
	m.PrometheusScope.Counter("overall_sent_bytes").Inc(sentBytes)
	m.PrometheusScope.Counter("overall_request_sent_bytes").Inc(sentBytes)
	m.PrometheusScope.Timer("overall_latency_ms").Record(elapsed)

	// Per-endpoint stats.
	m.PrometheusScope.Counter(name + "_count").Inc(1)
	m.PrometheusScope.Counter(name + "_recv_bytes").Inc(recvBytes)
	m.PrometheusScope.Counter(name + "_sent_bytes").Inc(sentBytes)
	m.PrometheusScope.Timer(name + "_latency_ms").Record(elapsed)

	// Error stats if applicable.
	if isErr {
		m.PrometheusScope.Counter("overall_errors").Inc(1)
		m.PrometheusScope.Counter("overall_request_errors").Inc(1)
		m.PrometheusScope.Counter(name + "_errors").Inc(1)
	}
}

// Distribution records the outcome of one engine run.
func (m *LocalMetrics) Distribution(result *seeding.DistributionResult, elapsed time.Duration) {
	scope := m.PrometheusScope.Tagged(map[string]string{"strategy": result.Strategy.String()})

	scope.Counter("distribution_runs").Inc(1)
	scope.Counter("distribution_players_placed").Inc(int64(result.TotalPlaced()))
	scope.Counter("distribution_players_unassigned").Inc(int64(result.Unassigned))
	scope.Counter("distribution_groups").Inc(int64(len(result.Groups)))
	scope.Counter("distribution_groups_pruned").Inc(int64(len(result.Pruned)))
	scope.Timer("distribution_latency_ms").Record(elapsed)
	if result.Anomaly {
		scope.Counter("distribution_anomalies").Inc(1)
	}
	for _, summary := range result.Tiers {
		scope.Tagged(map[string]string{"tier": summary.Tier.String()}).
			Gauge("distribution_tier_sweeps").Update(float64(summary.Sweeps))
	}
}

func (m *LocalMetrics) SettingsUpdated() {
	m.PrometheusScope.Counter("settings_updates").Inc(1)
}
