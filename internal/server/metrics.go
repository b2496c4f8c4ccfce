package server

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-tangra/go-tangra-osinfo/internal/systeminfo"
)

const metricsNamespace = "osinfo"

// Metrics are the collector's prometheus counters. Each instance owns its
// registry so tests can build servers side by side.
type Metrics struct {
	Registry *prometheus.Registry

	submissions   *prometheus.CounterVec
	parseFailures *prometheus.CounterVec
	refreshes     prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "inventory_submissions_total",
			Help:      "Inventories stored, by platform family.",
		}, []string{"family"}),
		parseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "systeminfo_parse_failures_total",
			Help:      "systeminfo documents rejected by the parser, by error kind.",
		}, []string{"kind"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_commands_total",
			Help:      "Refresh commands queued for agents.",
		}),
	}
	m.Registry.MustRegister(m.submissions, m.parseFailures, m.refreshes)
	return m
}

func parseFailureKind(err error) string {
	var (
		format *systeminfo.FormatError
		lookup *systeminfo.LookupError
		oor    *systeminfo.OutOfRangeError
		layout *systeminfo.UnsupportedLayoutError
	)
	switch {
	case errors.As(err, &format):
		return "format"
	case errors.As(err, &lookup):
		return "lookup"
	case errors.As(err, &oor):
		return "out_of_range"
	case errors.As(err, &layout):
		return "layout"
	}
	return "other"
}
