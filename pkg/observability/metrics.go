package observability

import (
	"context"
	"errors"

	"github.com/aretw0/catena/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the run loop.
type Metrics struct {
	Runs         *prometheus.CounterVec
	NodeVisits   *prometheus.CounterVec
	NodeDuration *prometheus.HistogramVec
	Limits       *prometheus.CounterVec
	ActiveRuns   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// Registering twice on the same registry reuses the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catena_runs_total",
			Help: "Total number of finished runs by outcome",
		}, []string{"outcome"}),
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catena_node_visits_total",
			Help: "Total number of node executions",
		}, []string{"node_id", "status"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catena_node_duration_seconds",
			Help:    "Duration of node executions",
			Buckets: prometheus.DefBuckets,
		}, []string{"node_id"}),
		Limits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catena_limits_exceeded_total",
			Help: "Total number of runs stopped by a soft limit",
		}, []string{"limit"}),
		ActiveRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catena_active_runs",
			Help: "Number of runs in progress",
		}),
	}

	for _, err := range []error{
		register(reg, &m.Runs),
		register(reg, &m.NodeVisits),
		register(reg, &m.NodeDuration),
		register(reg, &m.Limits),
		register(reg, &m.ActiveRuns),
	} {
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// register registers c, swapping in the already registered instance when
// reg has an identical one.
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return err
	}
	existing, ok := are.ExistingCollector.(C)
	if !ok {
		return err
	}
	*c = existing
	return nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			m.ActiveRuns.Inc()
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			m.ActiveRuns.Dec()
			m.Runs.WithLabelValues(Outcome(e.Err)).Inc()
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.NodeID, string(e.Status)).Inc()
			m.NodeDuration.WithLabelValues(e.NodeID).Observe(e.Duration.Seconds())
		},
		OnLimit: func(ctx context.Context, e *domain.LimitEvent) {
			m.Limits.WithLabelValues(string(e.Err.Limit)).Inc()
		},
	}
}

// Outcome classifies the final Context error of a run:
// "ok", "error" or "limit".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var le *domain.LimitExceededError
	if errors.As(err, &le) {
		return "limit"
	}
	return "error"
}
