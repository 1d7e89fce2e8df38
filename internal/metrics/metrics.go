// Package metrics exposes Prometheus counters for the citation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Citation metrics
	CitationsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citation_intel_citations_processed_total",
			Help: "Citations processed by the pipeline, by category and outcome",
		},
		[]string{"category", "status"},
	)

	CitationsHallucinated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citation_intel_hallucinations_total",
			Help: "Citations flagged as likely fabricated, by hallucination type",
		},
		[]string{"type"},
	)

	VerifyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "citation_intel_verify_duration_seconds",
			Help:    "Reachability check duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
	)

	// Analyzer metrics
	AnalyzerCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citation_intel_analyzer_calls_total",
			Help: "Deep-content analyzer calls by outcome (ok, unavailable, skipped)",
		},
		[]string{"outcome"},
	)

	// Recommendation metrics
	RecommendationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citation_intel_recommendations_total",
			Help: "Recommendations synthesized, by type and source (judgment or fallback)",
		},
		[]string{"type", "source"},
	)

	// Persistence metrics
	PersistenceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citation_intel_persistence_failures_total",
			Help: "Failed store writes by operation",
		},
		[]string{"operation"},
	)

	// Signal metrics
	SignalsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citation_intel_signals_ingested_total",
			Help: "Signals ingested, by result (inserted, duplicate, invalid, error)",
		},
		[]string{"result"},
	)

	// Audit metrics
	AuditAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citation_intel_audit_answers_total",
			Help: "Audit answers collected by model and success",
		},
		[]string{"model", "success"},
	)

	AuditCostUSD = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citation_intel_audit_cost_usd_total",
			Help: "Cumulative estimated audit cost in USD",
		},
	)
)

// Analyzer outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeSkipped     = "skipped"
)

// Recommendation sources.
const (
	SourceJudgment = "judgment"
	SourceFallback = "fallback"
)
