package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/colonysim/internal/domain/settlement"
)

// DefaultSettlementPollInterval is how often settlement gauges are refreshed
const DefaultSettlementPollInterval = 10 * time.Second

// SettlementSample is a point-in-time reading of one settlement
type SettlementSample struct {
	ID         string
	Name       string
	Population int
	Robots     int
	Vehicles   int
	Resources  map[settlement.ResourceType]float64
}

// SampleSettlements reads every settlement in the registry. Callers running
// alongside the engine should take the reading between ticks.
func SampleSettlements(registry *settlement.Registry) []SettlementSample {
	all := registry.AllSettlements()
	out := make([]SettlementSample, 0, len(all))
	for _, s := range all {
		inv := s.Inventory()
		resources := make(map[settlement.ResourceType]float64)
		for _, r := range inv.Resources() {
			resources[r] = inv.Amount(r)
		}
		out = append(out, SettlementSample{
			ID:         s.ID(),
			Name:       s.Name(),
			Population: s.Population(),
			Robots:     len(s.Robots()),
			Vehicles:   len(s.Vehicles()),
			Resources:  resources,
		})
	}
	return out
}

// SettlementMetricsCollector polls settlement state and exposes it as gauges
type SettlementMetricsCollector struct {
	sample   func() []SettlementSample
	interval time.Duration

	population *prometheus.GaugeVec
	robots     *prometheus.GaugeVec
	vehicles   *prometheus.GaugeVec
	resources  *prometheus.GaugeVec

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewSettlementMetricsCollector creates a collector that calls sample on every poll
func NewSettlementMetricsCollector(sample func() []SettlementSample, interval time.Duration) *SettlementMetricsCollector {
	if interval <= 0 {
		interval = DefaultSettlementPollInterval
	}
	labels := []string{"settlement_id", "settlement"}
	return &SettlementMetricsCollector{
		sample:   sample,
		interval: interval,

		population: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "population",
				Help:      "Number of resident people",
			},
			labels,
		),
		robots: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "robots",
				Help:      "Number of robots owned by the settlement",
			},
			labels,
		),
		vehicles: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "vehicles",
				Help:      "Number of vehicles owned by the settlement",
			},
			labels,
		),
		resources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "settlement",
				Name:      "resource_kg",
				Help:      "Stored resource mass in kilograms",
			},
			[]string{"settlement_id", "settlement", "resource"},
		),
	}
}

// Register registers all settlement metrics with the Prometheus registry
func (c *SettlementMetricsCollector) Register() error {
	return register(c.population, c.robots, c.vehicles, c.resources)
}

// Start begins the polling goroutine
func (c *SettlementMetricsCollector) Start(ctx context.Context) {
	c.ctx, c.cancelFunc = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.poll()
}

// Stop gracefully stops polling
func (c *SettlementMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

func (c *SettlementMetricsCollector) poll() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Update()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.Update()
		}
	}
}

// Update takes one sample and refreshes every gauge
func (c *SettlementMetricsCollector) Update() {
	if c.sample == nil {
		return
	}

	samples := c.sample()

	// Reset to drop settlements and resources that no longer exist
	c.population.Reset()
	c.robots.Reset()
	c.vehicles.Reset()
	c.resources.Reset()

	for _, s := range samples {
		c.population.WithLabelValues(s.ID, s.Name).Set(float64(s.Population))
		c.robots.WithLabelValues(s.ID, s.Name).Set(float64(s.Robots))
		c.vehicles.WithLabelValues(s.ID, s.Name).Set(float64(s.Vehicles))
		for r, kg := range s.Resources {
			c.resources.WithLabelValues(s.ID, s.Name, string(r)).Set(kg)
		}
	}
}
