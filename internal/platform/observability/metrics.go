package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasift_analysis_runs_total",
		Help: "The total number of analysis runs by terminal status",
	}, []string{"status"})

	DegradedRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediasift_degraded_runs_total",
		Help: "Runs where at least one media kind failed while others succeeded",
	})

	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mediasift_dispatch_duration_seconds",
		Help:    "Duration of per-media-kind LLM dispatches",
		Buckets: prometheus.DefBuckets,
	}, []string{"media_kind"})

	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasift_llm_tokens_prompt_total",
		Help: "Total prompt tokens consumed",
	}, []string{"vendor", "model"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasift_llm_tokens_completion_total",
		Help: "Total completion tokens consumed",
	}, []string{"vendor", "model"})

	SourcesDue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mediasift_sources_due",
		Help: "Number of sources due for collection at the last scheduler tick",
	})

	CheckpointAdvances = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mediasift_checkpoint_advances_total",
		Help: "Total number of checkpoint advancements",
	})

	CollectionCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mediasift_collection_cycles_total",
		Help: "Collection and analysis cycles by outcome",
	}, []string{"status"})
)
