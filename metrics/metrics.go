package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatshorts_generations_created_total",
			Help: "Total number of generation requests accepted",
		},
	)

	CuesEnriched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshorts_cues_enriched_total",
			Help: "Total number of cues produced, by audio outcome",
		},
		[]string{"audio"},
	)

	Renders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshorts_renders_total",
			Help: "Total number of render attempts, by result",
		},
		[]string{"result"},
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatshorts_render_duration_seconds",
			Help:    "Render duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatshorts_tasks_processed_total",
			Help: "Total number of queue tasks handled, by queue and result",
		},
		[]string{"queue", "result"},
	)

	StaleGenerations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatshorts_stale_generations_total",
			Help: "Total number of generations marked stale by the scheduler",
		},
	)
)
