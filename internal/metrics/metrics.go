// Package metrics exposes Prometheus collectors for the bot. Because the
// process is a short-lived scheduled job, metrics are pushed to a
// Pushgateway at end of run instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder holds the run-level collectors on a private registry.
type Recorder struct {
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Gauge
	reportBytes     prometheus.Gauge
	downloadRetries prometheus.Counter

	pusher *push.Pusher
}

// New builds a Recorder. When gatewayURL is empty the collectors still
// record but Push is a no-op.
func New(gatewayURL, jobName string) *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rentafic_runs_total",
			Help: "Completed runs, labeled by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rentafic_run_duration_seconds",
			Help: "Wall-clock duration of the last run.",
		}),
		reportBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rentafic_report_bytes",
			Help: "Size of the last downloaded report in bytes.",
		}),
		downloadRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rentafic_download_retries_total",
			Help: "Download attempts beyond the first.",
		}),
	}
	registry.MustRegister(r.runsTotal, r.runDuration, r.reportBytes, r.downloadRetries)

	if gatewayURL != "" {
		r.pusher = push.New(gatewayURL, jobName).Gatherer(registry)
	}
	return r
}

// ObserveRun records the outcome and duration of a run.
func (r *Recorder) ObserveRun(outcome string, duration time.Duration) {
	r.runsTotal.WithLabelValues(outcome).Inc()
	r.runDuration.Set(duration.Seconds())
}

// ObserveDownload counts the download attempts beyond the first.
func (r *Recorder) ObserveDownload(attempts int) {
	if attempts > 1 {
		r.downloadRetries.Add(float64(attempts - 1))
	}
}

// ObserveReport records the size of the downloaded report.
func (r *Recorder) ObserveReport(sizeBytes int) {
	r.reportBytes.Set(float64(sizeBytes))
}

// Push sends the collectors to the Pushgateway, if one is configured.
func (r *Recorder) Push() error {
	if r.pusher == nil {
		return nil
	}
	return r.pusher.Push()
}
