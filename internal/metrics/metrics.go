// Package metrics exposes refresh cycle and control command counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Purav30803/nds-client/internal/models"
)

const namespace = "nds"

// Recorder implements the cycle and command observers on top of Prometheus collectors.
type Recorder struct {
	Cycles     *prometheus.CounterVec
	Commands   *prometheus.CounterVec
	FeedEvents *prometheus.GaugeVec
	Degraded   prometheus.Gauge
	RunStatus  prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Refresh cycles applied to the view model, by outcome.",
		}, []string{"outcome"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_commands_total",
			Help:      "Start/stop commands sent to the detection backend, by command and result.",
		}, []string{"command", "result"}),
		FeedEvents: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_events",
			Help:      "Events in the last successful snapshot, by feed.",
		}, []string{"feed"}),
		Degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "degraded",
			Help:      "1 while the dashboard shows synthetic counters because the backend is unreachable.",
		}),
		RunStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_status",
			Help:      "Locally assumed detection run status (1 running, 0 stopped).",
		}),
	}

	reg.MustRegister(r.Cycles, r.Commands, r.FeedEvents, r.Degraded, r.RunStatus)
	return r
}

func (r *Recorder) CycleCompleted(result models.CycleResult) {
	r.Cycles.WithLabelValues(string(result.Outcome)).Inc()

	if result.Degraded {
		r.Degraded.Set(1)
		return
	}

	r.Degraded.Set(0)
	for feed, n := range result.Counts {
		r.FeedEvents.WithLabelValues(feed).Set(float64(n))
	}
}

func (r *Recorder) CommandIssued(result models.CommandResult) {
	outcome := "ok"
	if result.Failed() {
		outcome = "failed"
	}
	r.Commands.WithLabelValues(string(result.Command), outcome).Inc()

	if result.StatusAfter.IsRunning() {
		r.RunStatus.Set(1)
	} else {
		r.RunStatus.Set(0)
	}
}
