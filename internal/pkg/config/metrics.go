package config

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics tracks configuration loads for one component.
// Metric names are prefixed with the component name, so each component must
// construct its ConfigMetrics exactly once (promauto panics on duplicates).
//
//	{component}_config_load_timestamp
//	{component}_config_fallbacks_total{field}
//	{component}_config_fallback_active
type ConfigMetrics struct {
	LoadTimestamp  prometheus.Gauge
	FallbacksTotal *prometheus.CounterVec
	FallbackActive prometheus.Gauge

	component string
}

// NewConfigMetrics registers the metric set with the default registry.
func NewConfigMetrics(component string) *ConfigMetrics {
	return NewConfigMetricsWith(prometheus.DefaultRegisterer, component)
}

// NewConfigMetricsWith registers the metric set with reg.
func NewConfigMetricsWith(reg prometheus.Registerer, component string) *ConfigMetrics {
	f := promauto.With(reg)
	return &ConfigMetrics{
		LoadTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", component),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", component),
		}),
		FallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", component),
			Help: fmt.Sprintf("Total number of %s configuration fallbacks by field", component),
		}, []string{"field"}),
		FallbackActive: f.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", component),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", component),
		}),
		component: component,
	}
}

// Observe records a completed load. fallbacks lists the fields that fell back.
func (m *ConfigMetrics) Observe(fallbacks []string) {
	m.LoadTimestamp.SetToCurrentTime()
	for _, field := range fallbacks {
		m.FallbacksTotal.WithLabelValues(field).Inc()
	}
	if len(fallbacks) > 0 {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}

// Component returns the metric name prefix.
func (m *ConfigMetrics) Component() string { return m.component }
