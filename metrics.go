package uthread

import "github.com/prometheus/client_golang/prometheus"

// metricsSet is the scheduler's optional Prometheus instrumentation.
// Observability, not scheduling policy — carried despite spec.md §1's
// priority/fairness Non-goals the same way the ambient logging stack is.
// A nil *metricsSet (the default) makes every method below a no-op.
type metricsSet struct {
	tasksDispatched prometheus.Counter
	tasksCreated    prometheus.Counter
	stealsAttempted prometheus.Counter
	stealsSucceeded prometheus.Counter
	workersParked   prometheus.Gauge
	tasksBlocked    prometheus.Gauge
}

// NewMetrics constructs a *metricsSet registered against reg. Pass the
// result to WithMetrics. Registering the same reg twice returns an error
// from reg.Register, surfaced here as a panic since it only ever happens
// from a programming mistake (double Init with a shared registry).
func NewMetrics(reg prometheus.Registerer) *metricsSet {
	m := &metricsSet{
		tasksDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uthread", Name: "tasks_dispatched_total",
			Help: "Total number of context switches into a task.",
		}),
		tasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uthread", Name: "tasks_created_total",
			Help: "Total number of tasks created via Create.",
		}),
		stealsAttempted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uthread", Name: "steals_attempted_total",
			Help: "Total number of work-stealing attempts against a peer worker.",
		}),
		stealsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "uthread", Name: "steals_succeeded_total",
			Help: "Total number of work-stealing attempts that returned a task.",
		}),
		workersParked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "uthread", Name: "workers_parked",
			Help: "Number of workers currently in the idle park sleep.",
		}),
		tasksBlocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "uthread", Name: "tasks_blocked",
			Help: "Number of tasks currently BLOCKED (I/O park or mutex wait).",
		}),
	}
	reg.MustRegister(
		m.tasksDispatched, m.tasksCreated,
		m.stealsAttempted, m.stealsSucceeded,
		m.workersParked, m.tasksBlocked,
	)
	return m
}

// WithMetrics wires m into the scheduler's dispatch/steal/park/block
// paths. Omit for no metrics overhead at all (every call site below nil-
// checks before touching a collector).
func WithMetrics(m *metricsSet) Option {
	return func(c *config) { c.metrics = m }
}

func (m *metricsSet) dispatched() {
	if m != nil {
		m.tasksDispatched.Inc()
	}
}

func (m *metricsSet) created() {
	if m != nil {
		m.tasksCreated.Inc()
	}
}

func (m *metricsSet) stealAttempted() {
	if m != nil {
		m.stealsAttempted.Inc()
	}
}

func (m *metricsSet) stealSucceeded() {
	if m != nil {
		m.stealsSucceeded.Inc()
	}
}

func (m *metricsSet) parked(delta float64) {
	if m != nil {
		m.workersParked.Add(delta)
	}
}

func (m *metricsSet) blocked(delta float64) {
	if m != nil {
		m.tasksBlocked.Add(delta)
	}
}
