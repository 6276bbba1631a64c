package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// detection pipeline.
type Metrics struct {
	RastersProcessed prometheus.Counter
	RastersFailed    *prometheus.CounterVec // label: reason={geometry,georeferencing,detector,io}
	PipelineRunning  prometheus.Gauge

	TilesWritten prometheus.Counter
	TilesSkipped prometheus.Counter

	DetectionsParsed        prometheus.Counter
	DetectionsLowConfidence prometheus.Counter
	MalformedLabelLines     prometheus.Counter
	VesselsExported         *prometheus.CounterVec // label: class={static,moving}

	DetectorDuration prometheus.Histogram
	RasterDuration   prometheus.Histogram
	AOICoverage      prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RastersProcessed,
		m.RastersFailed,
		m.PipelineRunning,
		m.TilesWritten,
		m.TilesSkipped,
		m.DetectionsParsed,
		m.DetectionsLowConfidence,
		m.MalformedLabelLines,
		m.VesselsExported,
		m.DetectorDuration,
		m.RasterDuration,
		m.AOICoverage,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RastersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vessel_etl",
			Name:      "rasters_processed_total",
			Help:      "Rasters fully processed through condensation.",
		}),
		RastersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vessel_etl",
			Name:      "rasters_failed_total",
			Help:      "Rasters excluded from their day batch, by failure reason.",
		}, []string{"reason"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vessel_etl",
			Name:      "pipeline_running",
			Help:      "1 while a batch run is active, 0 otherwise.",
		}),
		TilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vessel_etl",
			Name:      "tiles_written_total",
			Help:      "Tile images written for the detector.",
		}),
		TilesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vessel_etl",
			Name:      "tiles_skipped_total",
			Help:      "Tiles dropped by the border-emptiness heuristic.",
		}),
		DetectionsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vessel_etl",
			Name:      "detections_parsed_total",
			Help:      "Detections parsed from label files above the confidence threshold.",
		}),
		DetectionsLowConfidence: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vessel_etl",
			Name:      "detections_low_confidence_total",
			Help:      "Detections filtered into the low-confidence audit set.",
		}),
		MalformedLabelLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vessel_etl",
			Name:      "malformed_label_lines_total",
			Help:      "Label file lines skipped as unparseable.",
		}),
		VesselsExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vessel_etl",
			Name:      "vessels_exported_total",
			Help:      "Condensed detections written to the export, by class.",
		}, []string{"class"}),
		DetectorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vessel_etl",
			Name:      "detector_duration_seconds",
			Help:      "Wall time of external detector invocations.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		RasterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vessel_etl",
			Name:      "raster_duration_seconds",
			Help:      "Wall time to process one raster end to end.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		AOICoverage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vessel_etl",
			Name:      "aoi_coverage_fraction",
			Help:      "Fraction of the configured AOI covered by each raster.",
			Buckets:   []float64{0.1, 0.25, 0.5, 0.75, 0.9, 0.95, 1},
		}),
	}
}
