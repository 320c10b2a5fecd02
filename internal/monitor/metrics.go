package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	labelResult = "result"

	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds the refresh metrics
type Metrics struct {
	Refreshes       *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	Products        prometheus.Gauge
	Targets         prometheus.Gauge
	LastRefresh     prometheus.Gauge
}

// NewMetrics creates the refresh metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wuwei_refreshes_total",
				Help: "Product batch refreshes by result",
			},
			[]string{labelResult},
		),
		RefreshDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "wuwei_refresh_duration_seconds",
				Help:    "Time taken to assemble a product batch",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
			},
		),
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wuwei_products",
			Help: "Products in the current batch",
		}),
		Targets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wuwei_target_products",
			Help: "Target products in the current batch",
		}),
		LastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wuwei_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		}),
	}

	reg.MustRegister(m.Refreshes, m.RefreshDuration, m.Products, m.Targets, m.LastRefresh)
	return m
}

func (m *Metrics) observeSuccess(snap Snapshot, seconds float64) {
	if m == nil {
		return
	}
	summary := snap.Summary()
	m.Refreshes.WithLabelValues(resultSuccess).Inc()
	m.RefreshDuration.Observe(seconds)
	m.Products.Set(float64(summary.TotalCount))
	m.Targets.Set(float64(summary.TargetCount))
	m.LastRefresh.Set(float64(snap.LastUpdate.Unix()))
}

func (m *Metrics) observeFailure(seconds float64) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(resultFailure).Inc()
	m.RefreshDuration.Observe(seconds)
}
