package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "catalogit"

// Metrics records pipeline run metrics on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	scrapeItems   *prometheus.CounterVec
	matches       *prometheus.CounterVec
	matchRate     prometheus.Gauge
	embeddings    *prometheus.CounterVec
	phaseDuration *prometheus.GaugeVec

	pushgatewayURL string
	job            string
	logger         *slog.Logger
}

// Option configures Metrics.
type Option func(*Metrics)

// WithPushgateway pushes metrics to url under job on Push.
func WithPushgateway(url, job string) Option {
	return func(m *Metrics) {
		m.pushgatewayURL = url
		if job != "" {
			m.job = job
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Metrics) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
	}
}

// New creates and registers the pipeline metrics.
func New(opts ...Option) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scrapeItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrape_items_total",
			Help:      "Scraped product pages by result.",
		}, []string{"result"}),
		matches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_total",
			Help:      "Spreadsheet products by match source.",
		}, []string{"source"}),
		matchRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "match_rate",
			Help:      "Fraction of spreadsheet products matched in the last enrichment.",
		}),
		embeddings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embeddings_total",
			Help:      "Product embeddings by result.",
		}, []string{"result"}),
		phaseDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Duration of the last run of each pipeline phase.",
		}, []string{"phase"}),
		job:    "catalogit",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "metrics")

	m.registry.MustRegister(m.scrapeItems, m.matches, m.matchRate, m.embeddings, m.phaseDuration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AddScrapeItems counts scraped pages with the given result label.
func (m *Metrics) AddScrapeItems(result string, n int) {
	if n > 0 {
		m.scrapeItems.WithLabelValues(result).Add(float64(n))
	}
}

// AddMatches counts spreadsheet products resolved by source.
func (m *Metrics) AddMatches(source string, n int) {
	if n > 0 {
		m.matches.WithLabelValues(source).Add(float64(n))
	}
}

// SetMatchRate records the latest enrichment match rate.
func (m *Metrics) SetMatchRate(rate float64) {
	m.matchRate.Set(rate)
}

// AddEmbeddings counts embeddings with the given result label.
func (m *Metrics) AddEmbeddings(result string, n int) {
	if n > 0 {
		m.embeddings.WithLabelValues(result).Add(float64(n))
	}
}

// ObservePhase records how long a phase took.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	m.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
}

// Push sends all metrics to the configured Pushgateway.
// It is a no-op when no gateway is configured.
func (m *Metrics) Push(ctx context.Context) error {
	if m.pushgatewayURL == "" {
		return nil
	}
	err := push.New(m.pushgatewayURL, m.job).Gatherer(m.registry).PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics to %s: %w", m.pushgatewayURL, err)
	}
	m.logger.Debug("pushed metrics", "url", m.pushgatewayURL, "job", m.job)
	return nil
}
