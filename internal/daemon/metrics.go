package daemon

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/theirongolddev/garage/internal/model"
)

// Metrics holds the Prometheus collectors exported at /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	CurrentMileage prometheus.Gauge
	PartUsage      *prometheus.GaugeVec
	PartsByStatus  *prometheus.GaugeVec
	FuelEconomy    prometheus.Gauge
	FuelSpend      prometheus.Gauge
	MaintSpend     prometheus.Gauge
	PollsTotal     *prometheus.CounterVec
	PollDuration   prometheus.Histogram
	LastPoll       prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CurrentMileage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "garage_current_mileage_km",
			Help: "Highest odometer reading across the maintenance and fuel logs",
		}),
		PartUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "garage_part_usage_ratio",
			Help: "Unclamped consumed-life fraction per tracked part",
		}, []string{"part"}),
		PartsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "garage_parts",
			Help: "Number of tracked parts per wear status",
		}, []string{"status"}),
		FuelEconomy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "garage_fuel_economy_km_per_liter",
			Help: "Average distance per liter over the fuel log",
		}),
		FuelSpend: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "garage_fuel_spend_total",
			Help: "Sum of fuel total cost",
		}),
		MaintSpend: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "garage_maintenance_spend_total",
			Help: "Sum of maintenance cost",
		}),
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "garage_polls_total",
			Help: "Store polls by result",
		}, []string{"result"}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "garage_poll_duration_seconds",
			Help:    "Time to read both tables and compute the dashboard",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		LastPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "garage_last_successful_poll_timestamp_seconds",
			Help: "Unix time of the last successful poll",
		}),
	}

	m.Registry.MustRegister(
		m.CurrentMileage,
		m.PartUsage,
		m.PartsByStatus,
		m.FuelEconomy,
		m.FuelSpend,
		m.MaintSpend,
		m.PollsTotal,
		m.PollDuration,
		m.LastPoll,
	)
	return m
}

// observe updates the gauges from a freshly loaded dashboard.
func (m *Metrics) observe(d model.Dashboard, snap Snapshot) {
	m.CurrentMileage.Set(float64(d.CurrentMileage))
	m.FuelEconomy.Set(d.Fuel.AvgKMPerLiter)
	m.FuelSpend.Set(d.Fuel.TotalSpend)
	m.MaintSpend.Set(snap.MaintenanceSpend)
	m.LastPoll.Set(float64(snap.At.Unix()))

	m.PartUsage.Reset()
	for _, p := range d.Parts {
		if p.HasRecord() {
			m.PartUsage.WithLabelValues(p.Part.Name).Set(p.Usage)
		}
	}

	counts := d.CountByStatus()
	for _, s := range []model.WearStatus{model.WearOK, model.WearWarning, model.WearOverdue, model.WearNoRecord} {
		m.PartsByStatus.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
