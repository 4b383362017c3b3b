package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GuidePreparations counts guide preparation calls by output identifier and result.
	GuidePreparations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safetag_guide_preparations_total",
		Help: "Total number of guide preparation calls",
	}, []string{"output", "result"})

	// GuidePreparationSeconds observes how long guide preparation takes.
	GuidePreparationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "safetag_guide_preparation_seconds",
		Help:    "Guide preparation latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"output"})

	// DownloadsInFlight tracks view instances currently in the Downloading state.
	DownloadsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "safetag_downloads_in_flight",
		Help: "Number of download buttons currently in the downloading state",
	})

	// ContentReloads counts content library reloads by outcome.
	ContentReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safetag_content_reloads_total",
		Help: "Total number of content library loads",
	}, []string{"result"})

	// SkippedRecords counts method records omitted from the card list.
	SkippedRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safetag_content_skipped_records_total",
		Help: "Method records skipped because required fields were missing",
	})

	// HTTPRequests counts served requests per route pattern.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safetag_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"method", "route", "code"})

	// HousekeepingRuns counts scheduled housekeeping jobs by job and result.
	HousekeepingRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safetag_housekeeping_runs_total",
		Help: "Total number of housekeeping job runs",
	}, []string{"job", "result"})
)
