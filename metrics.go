package vsm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome labels.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Metrics holds the prometheus collectors a Machine records into.
// A nil *Metrics records nothing.
type Metrics struct {
	transitions    *prometheus.CounterVec
	actionRuns     *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	ignoredEvents  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vsm_transitions_total",
			Help: "Total number of state transitions by machine, from_state and to_state",
		}, []string{"machine", "from_state", "to_state"}),

		actionRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vsm_action_runs_total",
			Help: "Total number of entry action executions by machine, state, action and outcome",
		}, []string{"machine", "state", "action", "outcome"}),

		actionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vsm_action_duration_seconds",
			Help:    "Duration of entry action execution by machine and action",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"machine", "action"}),

		ignoredEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vsm_ignored_events_total",
			Help: "Total number of scene events that did not move the machine, by reason",
		}, []string{"machine", "reason"}),
	}
}

func (mt *Metrics) transition(machine string, from, to State) {
	if mt == nil {
		return
	}

	mt.transitions.WithLabelValues(machine, string(from), string(to)).Inc()
}

func (mt *Metrics) action(machine string, st State, action string, elapsed time.Duration, err error) {
	if mt == nil {
		return
	}

	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}

	mt.actionRuns.WithLabelValues(machine, string(st), action, outcome).Inc()
	mt.actionDuration.WithLabelValues(machine, action).Observe(elapsed.Seconds())
}

func (mt *Metrics) ignored(machine, reason string) {
	if mt == nil {
		return
	}

	mt.ignoredEvents.WithLabelValues(machine, reason).Inc()
}
