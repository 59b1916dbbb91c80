package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	runResultOK      = "ok"
	runResultFailed  = "failed"
	runResultSkipped = "skipped"

	skipNoRecipient = "no_recipient"
	skipNoPhone     = "no_phone"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reminder_bot",
		Name:      "runs_total",
		Help:      "Reminder pipeline runs by result.",
	}, []string{"result"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "reminder_bot",
		Name:      "run_duration_seconds",
		Help:      "Wall time of one reminder pipeline run.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	})

	remindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "reminder_bot",
		Name:      "reminders_sent_total",
		Help:      "Reminder messages accepted by the SMS gateway.",
	})

	remindersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "reminder_bot",
		Name:      "reminders_failed_total",
		Help:      "Reminder messages the SMS gateway rejected.",
	})

	remindersSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reminder_bot",
		Name:      "reminders_skipped_total",
		Help:      "Eligible events left unsent, by reason.",
	}, []string{"reason"})
)
