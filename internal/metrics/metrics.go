package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ListingsSwept считает объявления, переведённые на склад.
	ListingsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lostfound_listings_swept_total",
		Help: "Total listings moved to the warehouse by the deadline sweeper",
	})

	// MatchNotifications считает уведомления о возможных совпадениях.
	MatchNotifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_match_notifications_total",
		Help: "Match notifications sent by the status of the new listing",
	}, []string{"status"})

	// ReportsFiled считает принятые жалобы по типу.
	ReportsFiled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_reports_filed_total",
		Help: "Reports filed by report type",
	}, []string{"report_type"})

	// SuspensionsIssued считает выданные ограничения по виду и источнику.
	SuspensionsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_suspensions_issued_total",
		Help: "Suspensions issued by type and source (escalation or admin)",
	}, []string{"suspension_type", "source"})

	// BadgesAwarded считает выданные значки.
	BadgesAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_badges_awarded_total",
		Help: "Badges awarded by badge type",
	}, []string{"badge_type"})

	// SideEffectFailures считает проглоченные ошибки уведомлений и писем.
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_side_effect_failures_total",
		Help: "Best-effort side effects that failed (notification, email, activity)",
	}, []string{"kind"})

	// HTTPRequestDuration - латентность HTTP запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lostfound_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~2s
	}, []string{"method", "route", "status"})
)
