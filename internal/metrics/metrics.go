// Package metrics exports the activity of spin mutexes and mpsc channels
// as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/kolkov/syncprim/mpsc"
	"github.com/kolkov/syncprim/spin"
)

const namespace = "syncprim"

var (
	_ spin.Observer = (*Collector)(nil)
	_ mpsc.Observer = (*Collector)(nil)
)

// Collector owns a registry with the module's metrics. It is passed to
// spin.WithObserver and mpsc.WithObserver.
type Collector struct {
	reg *prometheus.Registry

	spinAcquisitions *prometheus.CounterVec
	spinIterations   *prometheus.HistogramVec

	channelSends    prometheus.Counter
	channelReceives *prometheus.CounterVec
	channelWaits    prometheus.Counter
	channelClosed   prometheus.Counter
}

// New creates a Collector on a fresh registry, which also carries the Go
// runtime and process collectors.
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		spinAcquisitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "spin_acquisitions_total",
				Help:      "Spin mutex acquisitions by tier.",
			},
			[]string{"tier"},
		),
		spinIterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "spin_iterations",
				Help:      "Polls of the lock word per acquisition.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"tier"},
		),
		channelSends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_sends_total",
			Help:      "Values appended to mpsc queues.",
		}),
		channelReceives: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "channel_receives_total",
				Help:      "Values delivered by mpsc receivers, by source.",
			},
			[]string{"source"},
		),
		channelWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_waits_total",
			Help:      "Times a receiver blocked on an empty queue.",
		}),
		channelClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_closed_total",
			Help:      "Channels whose last sender closed.",
		}),
	}

	c.reg.MustRegister(
		c.spinAcquisitions,
		c.spinIterations,
		c.channelSends,
		c.channelReceives,
		c.channelWaits,
		c.channelClosed,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Acquired implements spin.Observer.
func (c *Collector) Acquired(tier spin.Tier, spins int) {
	label := tier.String()
	c.spinAcquisitions.WithLabelValues(label).Inc()
	c.spinIterations.WithLabelValues(label).Observe(float64(spins))
}

// Sent implements mpsc.Observer.
func (c *Collector) Sent() { c.channelSends.Inc() }

// Received implements mpsc.Observer.
func (c *Collector) Received(fromBuffer bool) {
	source := "shared"
	if fromBuffer {
		source = "buffer"
	}
	c.channelReceives.WithLabelValues(source).Inc()
}

// Waited implements mpsc.Observer.
func (c *Collector) Waited() { c.channelWaits.Inc() }

// Closed implements mpsc.Observer.
func (c *Collector) Closed() { c.channelClosed.Inc() }

// Gatherer returns the registry backing c.
func (c *Collector) Gatherer() prometheus.Gatherer { return c.reg }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}

// Value returns the current value of a counter in c, summed over label
// values matching labels, or 0 if none is found. It is meant for status
// lines and tests.
func (c *Collector) Value(name string, labels map[string]string) float64 {
	families, err := c.reg.Gather()
	if err != nil {
		return 0
	}
	var sum float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if !matches(m.GetLabel(), labels) {
				continue
			}
			switch {
			case m.Counter != nil:
				sum += m.GetCounter().GetValue()
			case m.Histogram != nil:
				sum += float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return sum
}

func matches(pairs []*dto.LabelPair, want map[string]string) bool {
	for k, v := range want {
		found := false
		for _, p := range pairs {
			if p.GetName() == k && p.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
