package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "idmsync"

var (
	SyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Duration of one organization sync run against a target.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	GroupsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "groups_created_total",
		Help:      "Organization groups created in a target directory.",
	})

	GroupsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "groups_deleted_total",
		Help:      "Obsolete organization groups deleted from a target directory.",
	})

	MembersAdded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "members_added_total",
		Help:      "Members added to organization groups.",
	})

	MembersRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "members_removed_total",
		Help:      "Members removed from organization groups.",
	})

	SyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "failures_total",
		Help:      "Individual directory mutations that failed during a sync run.",
	})

	LeaksFetched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "threat",
		Name:      "leaks_fetched_total",
		Help:      "Leak records fetched from threat sources.",
	})

	IncidentsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "threat",
		Name:      "incidents_confirmed_total",
		Help:      "Leaked credentials confirmed by a successful directory bind.",
	})

	DispatchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "responder",
		Name:      "dispatch_errors_total",
		Help:      "Responder notifications that failed to deliver.",
	})
)
