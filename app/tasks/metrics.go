package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rss_reader_poll_cycles_total",
		Help: "The total number of completed poll cycles",
	})

	pollCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rss_reader_poll_cycle_duration_seconds",
		Help:    "Time taken for all feeds of a poll cycle to settle",
		Buckets: prometheus.DefBuckets,
	})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rss_reader_fetch_failures_total",
		Help: "Failed feed fetches by task type and error kind",
	}, []string{"type", "kind"})

	postsAdded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rss_reader_posts_added_total",
		Help: "The total number of posts added to the store",
	})

	staleMergesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rss_reader_stale_merges_dropped_total",
		Help: "Poll results discarded because a newer cycle had started",
	})

	trackedFeeds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rss_reader_tracked_feeds",
		Help: "The number of feeds currently tracked",
	})
)
