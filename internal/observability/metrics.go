package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	adminRequestsTotal       *prometheus.CounterVec
	adminLatencySeconds      *prometheus.HistogramVec
	adminErrorsTotal         *prometheus.CounterVec
	complaintsSubmittedTotal *prometheus.CounterVec
	attachmentsRejectedTotal *prometheus.CounterVec
	attachmentUploadSeconds  prometheus.Histogram
	statusUpdatesTotal       *prometheus.CounterVec
	exportsTotal             prometheus.Counter
	notifierFailuresTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the complaint desk.
func RegisterMetrics() {
	registerOnce.Do(func() {
		adminRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Total number of admin API requests served.",
		}, []string{"method", "route", "status"})

		adminLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admin_latency_seconds",
			Help:    "Latency distribution for admin API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		adminErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_errors_total",
			Help: "Total number of error responses returned by admin endpoints.",
		}, []string{"method", "route", "status"})

		complaintsSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaints_submitted_total",
			Help: "Complaints filed by students, by category.",
		}, []string{"category"})

		attachmentsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_attachments_rejected_total",
			Help: "Attachments refused before upload, by reason.",
		}, []string{"reason"})

		attachmentUploadSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "complaint_attachment_upload_seconds",
			Help:    "Time spent uploading one attachment to the object store.",
			Buckets: prometheus.DefBuckets,
		})

		statusUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_status_updates_total",
			Help: "Administrator status updates, by resulting status.",
		}, []string{"status"})

		exportsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "complaint_exports_total",
			Help: "CSV exports generated.",
		})

		notifierFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_notifier_failures_total",
			Help: "Status change notifications that failed to deliver, by notifier.",
		}, []string{"notifier"})

		prometheus.MustRegister(
			adminRequestsTotal,
			adminLatencySeconds,
			adminErrorsTotal,
			complaintsSubmittedTotal,
			attachmentsRejectedTotal,
			attachmentUploadSeconds,
			statusUpdatesTotal,
			exportsTotal,
			notifierFailuresTotal,
		)
	})
}

// AdminRequests exposes the counter for admin requests.
func AdminRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return adminRequestsTotal
}

// AdminLatency exposes the latency histogram for admin requests.
func AdminLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return adminLatencySeconds
}

// AdminErrors exposes the counter for admin error responses.
func AdminErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return adminErrorsTotal
}

// ComplaintsSubmitted exposes the submission counter.
func ComplaintsSubmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return complaintsSubmittedTotal
}

// AttachmentsRejected exposes the attachment rejection counter.
func AttachmentsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return attachmentsRejectedTotal
}

// AttachmentUploadLatency exposes the upload latency histogram.
func AttachmentUploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return attachmentUploadSeconds
}

// StatusUpdates exposes the status update counter.
func StatusUpdates() *prometheus.CounterVec {
	RegisterMetrics()
	return statusUpdatesTotal
}

// Exports exposes the CSV export counter.
func Exports() prometheus.Counter {
	RegisterMetrics()
	return exportsTotal
}

// NotifierFailures exposes the notifier failure counter.
func NotifierFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return notifierFailuresTotal
}
