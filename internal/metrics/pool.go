package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a snapshot of the database connection pool
type PoolStats struct {
	Acquired     int32
	Idle         int32
	Total        int32
	Max          int32
	AcquireCount int64
}

// poolCollector reads the pool snapshot on every scrape
type poolCollector struct {
	stats       func() PoolStats
	connections *prometheus.Desc
	maxConns    *prometheus.Desc
	acquires    *prometheus.Desc
}

func newPoolCollector(stats func() PoolStats) *poolCollector {
	return &poolCollector{
		stats: stats,
		connections: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "connections"),
			"Database pool connections by state",
			[]string{"state"}, nil,
		),
		maxConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "max_connections"),
			"Maximum size of the database pool",
			nil, nil,
		),
		acquires: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "acquires_total"),
			"Connections acquired from the database pool",
			nil, nil,
		),
	}
}

// Describe implements the Collector interface
func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connections
	ch <- c.maxConns
	ch <- c.acquires
}

// Collect implements the Collector interface
func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(s.Acquired), "acquired")
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(s.Idle), "idle")
	ch <- prometheus.MustNewConstMetric(c.connections, prometheus.GaugeValue, float64(s.Total), "total")
	ch <- prometheus.MustNewConstMetric(c.maxConns, prometheus.GaugeValue, float64(s.Max))
	ch <- prometheus.MustNewConstMetric(c.acquires, prometheus.CounterValue, float64(s.AcquireCount))
}

// RegisterPool exports the database pool snapshot returned by stats
func (m *Metrics) RegisterPool(stats func() PoolStats) error {
	return m.registry.Register(newPoolCollector(stats))
}
