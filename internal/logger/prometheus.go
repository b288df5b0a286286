package logger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

//nolint:gochecknoglobals
var (
	statementsOnce sync.Once
	statements     *prometheus.CounterVec
)

// PrometheusHook counts log statements per level in
// design_shop_log_statements_total.
type PrometheusHook struct {
	counter *prometheus.CounterVec
}

// Run implements zerolog.Hook.
func (h PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if h.counter == nil || level == zerolog.NoLevel {
		return
	}

	h.counter.WithLabelValues(level.String()).Inc()
}

// NewPrometheusHook returns the log statement hook. The counter is registered
// once per process and carries the service name of the first call.
func NewPrometheusHook(service string) PrometheusHook {
	statementsOnce.Do(func() {
		statements = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "design_shop",
			Subsystem:   "log",
			Name:        "statements_total",
			Help:        "Log statements written, by level.",
			ConstLabels: prometheus.Labels{"service": service},
		}, []string{"level"})
	})

	return PrometheusHook{counter: statements}
}
