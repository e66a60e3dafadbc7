// Package metrics exposes tradecal Prometheus metrics on a private registry.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/tradecal/internal/calendar"
)

// Metrics holds all tradecal collectors. It implements calendar.Observer.
type Metrics struct {
	registry *prometheus.Registry

	BuildsTotal      *prometheus.CounterVec // labels: result=ok|error
	BuildDuration    prometheus.Histogram
	CalendarHolidays *prometheus.GaugeVec   // labels: calendar
	RegistryLookups  *prometheus.CounterVec // labels: result=hit|miss
	APIRequests      *prometheus.CounterVec // labels: route, code
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecal_builds_total",
			Help: "Calendar builds by result",
		}, []string{"result"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradecal_build_duration_seconds",
			Help:    "Calendar build latency",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		CalendarHolidays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradecal_calendar_holidays",
			Help: "Full holidays in each registered calendar",
		}, []string{"calendar"}),
		RegistryLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecal_registry_lookups_total",
			Help: "Calendar registry lookups by result",
		}, []string{"result"}),
		APIRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecal_api_requests_total",
			Help: "HTTP API requests by route and status code",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		m.BuildsTotal,
		m.BuildDuration,
		m.CalendarHolidays,
		m.RegistryLookups,
		m.APIRequests,
	)
	return m
}

// ObserveBuild implements calendar.Observer.
func (m *Metrics) ObserveBuild(stats calendar.BuildStats, err error) {
	if err != nil {
		m.BuildsTotal.WithLabelValues("error").Inc()
		return
	}
	m.BuildsTotal.WithLabelValues("ok").Inc()
	m.BuildDuration.Observe(stats.Duration.Seconds())
}

// ObserveLookup counts a registry lookup.
func (m *Metrics) ObserveLookup(hit bool) {
	if hit {
		m.RegistryLookups.WithLabelValues("hit").Inc()
		return
	}
	m.RegistryLookups.WithLabelValues("miss").Inc()
}

// ObserveRegister records the holiday count of a registered calendar.
func (m *Metrics) ObserveRegister(name string, cal *calendar.Calendar) {
	m.CalendarHolidays.WithLabelValues(name).Set(float64(len(cal.Holidays())))
}

// ObserveRequest counts an API request by route template and status code.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.APIRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
