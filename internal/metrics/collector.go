package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "devlauncher"

// Collector records launcher events as Prometheus metrics in its own
// registry. It satisfies service.Metrics.
type Collector struct {
	up       *prometheus.GaugeVec
	starts   *prometheus.CounterVec
	exits    *prometheus.CounterVec
	shutdown prometheus.Histogram

	registry *prometheus.Registry
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
	}

	c.up = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_up",
			Help:      "Whether the service process is running (1) or not (0)",
		},
		[]string{"service"},
	)

	c.starts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_starts_total",
			Help:      "Start attempts by result",
		},
		[]string{"service", "result"},
	)

	c.exits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_exits_total",
			Help:      "Observed service exits by exit code",
		},
		[]string{"service", "code"},
	)

	c.shutdown = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shutdown_duration_seconds",
			Help:      "Time taken to stop all services",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
	)

	c.registry.MustRegister(
		c.up,
		c.starts,
		c.exits,
		c.shutdown,
	)
	return c
}

// Registry exposes the collector's registry for HTTP exposition and tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) ServiceStarted(name, result string) {
	c.starts.WithLabelValues(name, result).Inc()
}

func (c *Collector) ServiceUp(name string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	c.up.WithLabelValues(name).Set(v)
}

func (c *Collector) ServiceExited(name string, exitCode int) {
	c.exits.WithLabelValues(name, strconv.Itoa(exitCode)).Inc()
}

func (c *Collector) ShutdownDuration(d time.Duration) {
	c.shutdown.Observe(d.Seconds())
}
