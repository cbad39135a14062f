// Package metrics exports game activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wricardo/mcp-training/tileslide/game/engine"
)

const namespace = "tileslide"

// Recorder counts engine events. It implements engine.Observer and is safe
// to share between every session.
type Recorder struct {
	registry *prometheus.Registry

	events          *prometheus.CounterVec
	levelsCompleted *prometheus.CounterVec
	tilesBroken     prometheus.Counter
	ignored         *prometheus.CounterVec
	adsShown        prometheus.Counter
	skips           prometheus.Counter
	tickDuration    prometheus.Histogram
}

// New creates a recorder on its own registry. sessions, when not nil, is
// sampled for the active session gauge on every scrape.
func New(sessions func() int) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Simulation events by type.",
		}, []string{"type"}),
		levelsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "levels_completed_total",
			Help:      "Levels cleared, by level index.",
		}, []string{"level"}),
		tilesBroken: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tiles_broken_total",
			Help:      "Path tiles broken.",
		}),
		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gestures_ignored_total",
			Help:      "Gestures rejected, by reason.",
		}, []string{"reason"}),
		adsShown: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interstitials_shown_total",
			Help:      "Interstitial ads requested.",
		}),
		skips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_skips_total",
			Help:      "Rewind skips requested.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent ticking every session once.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
	}

	r.registry.MustRegister(
		r.events, r.levelsCompleted, r.tilesBroken, r.ignored, r.adsShown, r.skips, r.tickDuration,
		collectors.NewGoCollector(),
	)
	if sessions != nil {
		r.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live play sessions.",
		}, func() float64 { return float64(sessions()) }))
	}
	return r
}

// OnEvent implements engine.Observer
func (r *Recorder) OnEvent(ev engine.Event) {
	r.events.WithLabelValues(string(ev.Type)).Inc()
	switch ev.Type {
	case engine.EventLevelCompleted:
		r.levelsCompleted.WithLabelValues(strconv.Itoa(ev.Level)).Inc()
	case engine.EventTileBroken:
		r.tilesBroken.Inc()
	case engine.EventGestureIgnored:
		r.ignored.WithLabelValues(ev.Detail).Inc()
	case engine.EventAdShown:
		r.adsShown.Inc()
	case engine.EventSkipRequested:
		r.skips.Inc()
	}
}

// ObserveTick records how long one pass over every session took
func (r *Recorder) ObserveTick(d time.Duration) {
	r.tickDuration.Observe(d.Seconds())
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
