package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the process's prometheus metrics behind a private
// registry, so tests can create collectors without global state
// collisions.
type Collector struct {
	reg *prometheus.Registry

	FeedRoutes    prometheus.Gauge
	FeedStops     prometheus.Gauge
	FeedTrips     prometheus.Gauge
	FeedStopTimes prometheus.Gauge

	FeedLoadDuration prometheus.Histogram
	DeriveDuration   prometheus.Histogram
	HTTPDuration     prometheus.Histogram
	HTTPRequests     *prometheus.CounterVec
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		FeedRoutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitdash_feed_routes",
			Help: "Routes in the loaded feed.",
		}),
		FeedStops: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitdash_feed_stops",
			Help: "Stops in the loaded feed.",
		}),
		FeedTrips: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitdash_feed_trips",
			Help: "Trips in the loaded feed.",
		}),
		FeedStopTimes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transitdash_feed_stop_times",
			Help: "Stop times in the loaded feed.",
		}),
		FeedLoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitdash_feed_load_duration_seconds",
			Help:    "Duration to fetch and parse the feed archive.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		DeriveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitdash_derive_duration_seconds",
			Help:    "Duration of the statistics derivation pipeline.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		HTTPDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transitdash_http_duration_seconds",
			Help:    "API request handling duration.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transitdash_http_requests_total",
			Help: "API requests by route pattern and status code.",
		}, []string{"path", "code"}),
	}

	reg.MustRegister(
		c.FeedRoutes, c.FeedStops, c.FeedTrips, c.FeedStopTimes,
		c.FeedLoadDuration, c.DeriveDuration,
		c.HTTPDuration, c.HTTPRequests,
	)

	return c
}

// SetFeedSizes records the loaded feed's table sizes.
func (c *Collector) SetFeedSizes(routes, stops, trips, stopTimes int) {
	c.FeedRoutes.Set(float64(routes))
	c.FeedStops.Set(float64(stops))
	c.FeedTrips.Set(float64(trips))
	c.FeedStopTimes.Set(float64(stopTimes))
}

func (c *Collector) ObserveFeedLoad(d time.Duration) {
	c.FeedLoadDuration.Observe(d.Seconds())
}

func (c *Collector) ObserveDerive(d time.Duration) {
	c.DeriveDuration.Observe(d.Seconds())
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
