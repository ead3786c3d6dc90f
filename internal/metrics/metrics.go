// Package metrics exposes Prometheus counters for the report workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "incident_reports_created_total",
		Help: "Reports successfully created.",
	})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "incident_report_transitions_total",
		Help: "Successful report status transitions.",
	}, []string{"from", "to"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "incident_notifications_sent_total",
		Help: "Notifications handed to the sink, by channel.",
	}, []string{"channel"})

	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "incident_notifications_failed_total",
		Help: "Notifications that failed at the sink, by channel.",
	}, []string{"channel"})
)
