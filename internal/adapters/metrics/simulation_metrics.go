package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/colonysim/internal/application/simulation"
	"github.com/andrescamacho/colonysim/internal/domain/event"
)

// SimulationCollector records per-tick engine metrics. It implements
// simulation.MetricsRecorder.
type SimulationCollector struct {
	ticksTotal         prometheus.Counter
	tickDuration       prometheus.Histogram
	simulatedSol       prometheus.Gauge
	simulatedMillisol  prometheus.Gauge
	actorsTicked       prometheus.Gauge
	activeTasks        prometheus.Gauge
	tasksStartedTotal  prometheus.Counter
	missionsActive     prometheus.Gauge
	missionsEndedTotal prometheus.Counter
	resuppliesTotal    prometheus.Counter
	eventsTotal        *prometheus.CounterVec
	eventsDropped      prometheus.Gauge
	checkpointsTotal   prometheus.Counter
}

// NewSimulationCollector creates a new simulation metrics collector
func NewSimulationCollector() *SimulationCollector {
	return &SimulationCollector{
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ticks_total",
			Help:      "Total number of ticks executed",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of a single tick",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1.0},
		}),
		simulatedSol: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "sol",
			Help:      "Current simulated sol",
		}),
		simulatedMillisol: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "millisol",
			Help:      "Current simulated millisol within the sol",
		}),
		actorsTicked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "actors_ticked",
			Help:      "Number of actors driven by the engine in the last tick",
		}),
		activeTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_tasks",
			Help:      "Number of tasks still running after the last tick",
		}),
		tasksStartedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_started_total",
			Help:      "Total number of tasks handed out by the selector",
		}),
		missionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "missions_active",
			Help:      "Number of missions still running after the last tick",
		}),
		missionsEndedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "missions_ended_total",
			Help:      "Total number of missions that ended",
		}),
		resuppliesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "resupplies_delivered_total",
			Help:      "Total number of resupply deliveries",
		}),
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_total",
				Help:      "Total number of drained events by type",
			},
			[]string{"type"},
		),
		eventsDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_dropped",
			Help:      "Events overwritten in full producer queues since start",
		}),
		checkpointsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "checkpoints_total",
			Help:      "Total number of checkpoints saved",
		}),
	}
}

// Register registers all simulation metrics with the Prometheus registry
func (c *SimulationCollector) Register() error {
	return register(
		c.ticksTotal,
		c.tickDuration,
		c.simulatedSol,
		c.simulatedMillisol,
		c.actorsTicked,
		c.activeTasks,
		c.tasksStartedTotal,
		c.missionsActive,
		c.missionsEndedTotal,
		c.resuppliesTotal,
		c.eventsTotal,
		c.eventsDropped,
		c.checkpointsTotal,
	)
}

// RecordTick records the outcome of one engine tick
func (c *SimulationCollector) RecordTick(report *simulation.TickReport, events []event.Event, duration time.Duration) {
	c.ticksTotal.Inc()
	c.tickDuration.Observe(duration.Seconds())
	if report == nil {
		return
	}

	c.simulatedSol.Set(float64(report.Time.Sol))
	c.simulatedMillisol.Set(report.Time.Millisol)
	c.actorsTicked.Set(float64(report.ActorsTicked))
	c.activeTasks.Set(float64(report.ActiveTasks))
	c.tasksStartedTotal.Add(float64(report.TasksStarted))
	c.missionsActive.Set(float64(report.MissionsActive))
	c.missionsEndedTotal.Add(float64(report.MissionsEnded))
	c.resuppliesTotal.Add(float64(len(report.Resupplies)))
	c.eventsDropped.Set(float64(report.Dropped))
	if report.Checkpointed {
		c.checkpointsTotal.Inc()
	}

	for _, e := range events {
		c.eventsTotal.WithLabelValues(string(e.Type)).Inc()
	}
}
