package indexpipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	filesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperlake",
			Subsystem: "indexpipeline",
			Name:      "files_scanned_total",
			Help:      "Total number of bulk archives the indexing pipeline has scanned, by corpus and outcome.",
		},
		[]string{"corpus", "outcome"},
	)
	entriesAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "paperlake",
			Subsystem: "indexpipeline",
			Name:      "entries_added_total",
			Help:      "Total number of document entries committed to the manifest.",
		},
		[]string{"corpus"},
	)
	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "paperlake",
			Subsystem: "indexpipeline",
			Name:      "scan_duration_seconds",
			Help:      "Duration of a single bulk archive scan, by corpus.",
		},
		[]string{"corpus"},
	)
)
