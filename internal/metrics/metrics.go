// Package metrics provides library operation metrics.
// It wraps Prometheus collectors registered on a private registry.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector provides library metrics collection.
type Collector struct {
	registry *prometheus.Registry

	registrations    *prometheus.CounterVec
	loansCreated     prometheus.Counter
	loansReturned    prometheus.Counter
	loansExtended    prometheus.Counter
	linesRejected    *prometheus.CounterVec
	stockAdjustments *prometheus.CounterVec
	loginFailures    prometheus.Counter
	activeLoans      prometheus.Gauge
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "library"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persons",
			Name:      "registered_total",
			Help:      "Persons registered by role",
		},
		[]string{"role"},
	)
	c.loansCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loans",
		Name:      "created_total",
		Help:      "Loans created",
	})
	c.loansReturned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loans",
		Name:      "returned_total",
		Help:      "Loans returned (first return only)",
	})
	c.loansExtended = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loans",
		Name:      "extended_total",
		Help:      "Loan due date extensions",
	})
	c.linesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loans",
			Name:      "lines_rejected_total",
			Help:      "Requested loan lines skipped during validation",
		},
		[]string{"reason"},
	)
	c.stockAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "stock_adjustments_total",
			Help:      "Manual stock adjustments by direction",
		},
		[]string{"direction"},
	)
	c.loginFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "login_failures_total",
		Help:      "Failed or rate-limited login attempts",
	})
	c.activeLoans = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "loans",
		Name:      "open",
		Help:      "Loans not yet returned",
	})

	c.registry.MustRegister(
		c.registrations,
		c.loansCreated,
		c.loansReturned,
		c.loansExtended,
		c.linesRejected,
		c.stockAdjustments,
		c.loginFailures,
		c.activeLoans,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// PersonRegistered counts a registration.
func (c *Collector) PersonRegistered(role string) {
	if c == nil {
		return
	}
	c.registrations.WithLabelValues(role).Inc()
}

// LoanCreated counts a new loan.
func (c *Collector) LoanCreated() {
	if c == nil {
		return
	}
	c.loansCreated.Inc()
	c.activeLoans.Inc()
}

// LoanReturned counts a first return.
func (c *Collector) LoanReturned() {
	if c == nil {
		return
	}
	c.loansReturned.Inc()
	c.activeLoans.Dec()
}

// LoanExtended counts a due date extension.
func (c *Collector) LoanExtended() {
	if c == nil {
		return
	}
	c.loansExtended.Inc()
}

// LineRejected counts a skipped loan line.
func (c *Collector) LineRejected(reason string) {
	if c == nil {
		return
	}
	c.linesRejected.WithLabelValues(reason).Inc()
}

// StockAdjusted counts a manual stock change.
func (c *Collector) StockAdjusted(delta int) {
	if c == nil {
		return
	}
	dir := "in"
	if delta < 0 {
		dir = "out"
	}
	c.stockAdjustments.WithLabelValues(dir).Inc()
}

// LoginFailed counts a failed login.
func (c *Collector) LoginFailed() {
	if c == nil {
		return
	}
	c.loginFailures.Inc()
}

// Sample is one gathered metric value.
type Sample struct {
	Name  string
	Value float64
}

// Snapshot gathers counters and gauges as flat name{labels} samples sorted by name.
func (c *Collector) Snapshot() ([]Sample, error) {
	if c == nil {
		return nil, nil
	}
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}
	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			if lp := m.GetLabel(); len(lp) > 0 {
				parts := make([]string, 0, len(lp))
				for _, l := range lp {
					parts = append(parts, l.GetName()+"="+l.GetValue())
				}
				name += "{" + strings.Join(parts, ",") + "}"
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			default:
				continue
			}
			out = append(out, Sample{Name: name, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
