package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	draftforge = "draftforge"

	// Job metrics
	jobsProcessedTotal = "jobs_processed_total"

	// Section metrics
	sectionsGeneratedTotal    = "sections_generated_total"
	sectionGenerationDuration = "section_generation_duration_seconds"

	// Labels
	jobTypeLabel       = "job_type"
	jobStatusLabel     = "status"
	sectionStatusLabel = "status"
	sectionTypeLabel   = "section_type"
)

/**
* Metrics definition
**/
var jobsProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: draftforge,
		Name:      jobsProcessedTotal,
		Help:      "number of compose jobs processed to a terminal status",
	},
	[]string{jobTypeLabel, jobStatusLabel},
)

var sectionsGeneratedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: draftforge,
		Name:      sectionsGeneratedTotal,
		Help:      "number of section generation attempts by outcome",
	},
	[]string{sectionStatusLabel},
)

var sectionGenerationDurationMetric = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Subsystem: draftforge,
		Name:      sectionGenerationDuration,
		Help:      "time spent producing one section's content",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
	},
	[]string{sectionTypeLabel},
)

func IncJobsProcessed(jobType, status string) {
	jobsProcessedTotalMetric.With(prometheus.Labels{
		jobTypeLabel:   jobType,
		jobStatusLabel: status,
	}).Inc()
}

func IncSectionsGenerated(status string) {
	sectionsGeneratedTotalMetric.With(prometheus.Labels{
		sectionStatusLabel: status,
	}).Inc()
}

func ObserveSectionGenerationDuration(sectionType string, d time.Duration) {
	sectionGenerationDurationMetric.With(prometheus.Labels{
		sectionTypeLabel: sectionType,
	}).Observe(d.Seconds())
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobsProcessedTotalMetric)
	prometheus.MustRegister(sectionsGeneratedTotalMetric)
	prometheus.MustRegister(sectionGenerationDurationMetric)
}
