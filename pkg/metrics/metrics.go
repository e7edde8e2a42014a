package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	videoDownloader = "video_downloader"

	downloadsTotal     = "downloads_total"
	downloadDuration   = "download_duration_seconds"
	activeDownloads    = "active_downloads"
	cleanedFilesTotal  = "cleaned_files_total"
	uniqueClientsDaily = "unique_clients_per_day"

	// Labels
	formatLabel = "format"
	statusLabel = "status"
)

var downloadsTotalLabels = []string{
	formatLabel,
	statusLabel,
}

/**
* Metrics definition
**/
var downloadsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: videoDownloader,
		Name:      downloadsTotal,
		Help:      "number of finished downloads partitioned by format and final status",
	},
	downloadsTotalLabels,
)

var downloadDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: videoDownloader,
		Name:      downloadDuration,
		Help:      "time spent running the downloader for a job",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	},
	[]string{formatLabel},
)

var activeDownloadsMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: videoDownloader,
		Name:      activeDownloads,
		Help:      "number of downloads currently running",
	},
)

var cleanedFilesTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: videoDownloader,
		Name:      cleanedFilesTotal,
		Help:      "number of expired files removed from the download folder",
	},
)

func IncreaseDownloadsTotalMetric(format, status string) {
	labels := prometheus.Labels{
		formatLabel: format,
		statusLabel: status,
	}
	downloadsTotalMetric.With(labels).Inc()
}

func ObserveDownloadDuration(format string, seconds float64) {
	downloadDurationMetric.With(prometheus.Labels{formatLabel: format}).Observe(seconds)
}

func IncActiveDownloads() { activeDownloadsMetric.Inc() }

func DecActiveDownloads() { activeDownloadsMetric.Dec() }

func AddCleanedFiles(n int) {
	cleanedFilesTotalMetric.Add(float64(n))
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(downloadsTotalMetric)
	prometheus.MustRegister(downloadDurationMetric)
	prometheus.MustRegister(activeDownloadsMetric)
	prometheus.MustRegister(cleanedFilesTotalMetric)
	prometheus.MustRegister(totalUniqueClientsMetric)
}
