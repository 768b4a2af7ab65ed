package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"wealth_manager/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsCollector struct {
	registry               *prometheus.Registry
	mutations              *prometheus.CounterVec
	recommendationsCreated *prometheus.CounterVec
	ruleFailures           *prometheus.CounterVec
	persistenceFailures    prometheus.Counter
	recommendations        *prometheus.GaugeVec
	netWorth               prometheus.Gauge
	monthlyIncome          prometheus.Gauge
	mu                     sync.RWMutex
	logger                 *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	collector := &MetricsCollector{
		registry: registry,
		mutations: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "financial_store_mutations_total",
			Help: "Total number of applied store mutations",
		}, []string{"entity", "operation"}),
		recommendationsCreated: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "recommendations_created_total",
			Help: "Total number of recommendations accepted after deduplication",
		}, []string{"category"}),
		ruleFailures: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_rule_failures_total",
			Help: "Total number of rule evaluations that failed",
		}, []string{"rule"}),
		persistenceFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "snapshot_persistence_failures_total",
			Help: "Total number of snapshot saves that failed",
		}),
		recommendations: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
			Name: "recommendations",
			Help: "Current number of recommendations by status",
		}, []string{"status"}),
		netWorth: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "net_worth",
			Help: "Total assets minus total debt in the current snapshot",
		}),
		monthlyIncome: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "monthly_income",
			Help: "Monthly income derived from the current snapshot",
		}),
		logger: logger,
	}

	return collector
}

func (m *MetricsCollector) RecordMutation(entity, operation string) {
	m.mutations.WithLabelValues(entity, operation).Inc()
}

func (m *MetricsCollector) RecordRecommendationCreated(category domain.RecommendationCategory) {
	m.recommendationsCreated.WithLabelValues(string(category)).Inc()
}

func (m *MetricsCollector) RecordRuleFailure(rule string) {
	m.ruleFailures.WithLabelValues(rule).Inc()
}

func (m *MetricsCollector) RecordPersistenceFailure() {
	m.persistenceFailures.Inc()
}

// ObserveSnapshot refreshes the gauges that describe the current snapshot.
func (m *MetricsCollector) ObserveSnapshot(counts map[domain.RecommendationStatus]int, netWorth, monthlyIncome float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for status, n := range counts {
		m.recommendations.WithLabelValues(string(status)).Set(float64(n))
	}
	m.netWorth.Set(netWorth)
	m.monthlyIncome.Set(monthlyIncome)
}

func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context, server *http.Server) error {
	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	m.logger.Info("Metrics server shutdown complete")
	return nil
}
