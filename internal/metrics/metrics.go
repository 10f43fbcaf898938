package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsRecorded counts persisted engagement events by type.
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_events_recorded_total",
			Help: "Engagement events persisted, by event type",
		},
		[]string{"event_type"},
	)

	// EventsDeduplicated counts page views dropped by the server-side idempotency token.
	EventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_events_deduplicated_total",
			Help: "Page view events skipped as duplicates",
		},
	)

	// WebhookMessages counts gateway messages by processing outcome.
	WebhookMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_webhook_messages_total",
			Help: "Inbound gateway messages by outcome",
		},
		[]string{"outcome"},
	)

	// ContactsImported counts import rows by outcome.
	ContactsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadflow_contacts_imported_total",
			Help: "Imported contact rows by outcome",
		},
		[]string{"outcome"},
	)

	// AudienceAssigned counts contacts attached to campaigns.
	AudienceAssigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadflow_audience_assigned_total",
			Help: "Contacts assigned to campaign audiences",
		},
	)

	// RequestDuration tracks HTTP handler latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadflow_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Webhook message outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeFromMe    = "from_me"
	OutcomeEmpty     = "empty"
	OutcomeNoSender  = "no_sender"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// Import row outcomes.
const (
	OutcomeInserted = "inserted"
	OutcomeUpdated  = "updated"
	OutcomeError    = "error"
)
