// Package pipeline orchestrates the raster intake: tiling, the external
// detector, clustering, coordinate mapping, and the day-batched CSV export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"

	"github.com/couchcryptid/vessel-detect-etl/internal/cluster"
	"github.com/couchcryptid/vessel-detect-etl/internal/config"
	"github.com/couchcryptid/vessel-detect-etl/internal/detector"
	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
	"github.com/couchcryptid/vessel-detect-etl/internal/geo"
	"github.com/couchcryptid/vessel-detect-etl/internal/labels"
	"github.com/couchcryptid/vessel-detect-etl/internal/observability"
	"github.com/couchcryptid/vessel-detect-etl/internal/tile"
)

// Publisher delivers the condensed detections of one acquisition day to an
// external sink.
type Publisher interface {
	Publish(ctx context.Context, day string, dets []domain.Detection) error
}

// Pipeline processes every raster in the intake directory, batched by
// acquisition day. Each raster is tiled, run through the detector, and its
// detections are deduplicated in pixel space; the surviving detections of a
// day are then deduplicated again in lat/long space before export.
type Pipeline struct {
	cfg     *config.Config
	meta    geo.MetadataReader
	det     detector.Detector
	pub     Publisher
	aoi     *geo.AOI
	geom    tile.Geometry
	skip    tile.SkipPolicy
	out     *CSV
	low     *CSV
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline from validated configuration. pub and aoi may be
// nil, disabling the sink and the coverage report respectively.
func New(cfg *config.Config, meta geo.MetadataReader, det detector.Detector, pub Publisher, aoi *geo.AOI, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	p := &Pipeline{
		cfg:  cfg,
		meta: meta,
		det:  det,
		pub:  pub,
		aoi:  aoi,
		geom: tile.Geometry{TileSize: cfg.TileSize, Stride: cfg.Stride},
		skip: tile.SkipPolicy{
			Enabled:    cfg.SkipEmptyTiles,
			Threshold:  cfg.SkipThreshold,
			SampleStep: cfg.SkipSampleStep,
		},
		out:     &CSV{Path: cfg.OutputCSV, TileSize: cfg.TileSize},
		logger:  logger,
		metrics: metrics,
	}
	if cfg.LowConfidenceCSV != "" {
		p.low = &CSV{Path: cfg.LowConfidenceCSV, TileSize: cfg.TileSize}
	}
	return p
}

// CheckReadiness returns nil once the pipeline has completed at least one
// pass over the intake directory.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a pass yet")
	}
	return nil
}

// Run executes one pass: scan the intake directory, process each acquisition
// day in chronological order, and move finished rasters to the processed
// directory. A failing raster is skipped and left in place; it does not stop
// the rest of its day.
func (p *Pipeline) Run(ctx context.Context) error {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	days, err := p.scanIntake()
	if err != nil {
		return err
	}
	if len(days) == 0 {
		p.logger.Info("no rasters to process", "dir", p.cfg.RasterDir)
		p.ready.Store(true)
		return nil
	}

	keys := make([]time.Time, 0, len(days))
	for day := range days {
		keys = append(keys, day)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	for _, day := range keys {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := p.processDay(ctx, day, days[day]); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("day batch failed", "day", domain.DayKey(day), "error", err)
		}
	}

	p.ready.Store(true)
	return nil
}

type rasterFile struct {
	path string
	stem string
}

// scanIntake groups the rasters in the intake directory by acquisition day.
// Files whose name carries no yyyymmdd_ prefix are skipped with a warning.
func (p *Pipeline) scanIntake() (map[time.Time][]rasterFile, error) {
	entries, err := os.ReadDir(p.cfg.RasterDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", p.cfg.RasterDir, err)
	}

	out := make(map[time.Time][]rasterFile)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".tif" && ext != ".tiff" {
			continue
		}
		day, ok := domain.AcquisitionDate(name)
		if !ok {
			p.logger.Warn("raster has no acquisition date prefix, skipping", "file", name)
			continue
		}
		out[day] = append(out[day], rasterFile{
			path: filepath.Join(p.cfg.RasterDir, name),
			stem: strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}
	return out, nil
}

func (p *Pipeline) processDay(ctx context.Context, day time.Time, files []rasterFile) error {
	dayKey := domain.DayKey(day)
	p.logger.Info("processing day", "day", dayKey, "rasters", len(files))

	var kept, low []domain.Detection
	for _, rf := range files {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		start := domain.Clock().Now()
		k, l, err := p.processRaster(ctx, rf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("raster failed", "raster", rf.stem, "error", err)
			continue
		}
		p.metrics.RastersProcessed.Inc()
		p.metrics.RasterDuration.Observe(domain.Clock().Since(start).Seconds())
		kept = append(kept, k...)
		low = append(low, l...)

		if err := p.archive(rf); err != nil {
			p.metrics.RastersFailed.WithLabelValues("io").Inc()
			p.logger.Error("archive failed, raster will be reprocessed next pass",
				"raster", rf.stem, "error", err)
		}
	}

	final := reduceByClass(kept, p.degreeCutoffs())
	return p.export(ctx, dayKey, final, low)
}

// processRaster runs one raster through tiling, detection, parsing, and
// pixel-space deduplication, and maps the survivors to lat/long. It returns
// the deduplicated detections and the raw low-confidence ones.
func (p *Pipeline) processRaster(ctx context.Context, rf rasterFile) ([]domain.Detection, []domain.Detection, error) {
	meta, err := p.meta.Read(ctx, rf.path)
	if err != nil {
		return nil, nil, p.fail(fmt.Errorf("reading metadata: %w", err), "io")
	}
	if err := meta.Validate(); err != nil {
		return nil, nil, p.fail(err, "georeferencing")
	}

	img, err := imaging.Open(rf.path)
	if err != nil {
		return nil, nil, p.fail(fmt.Errorf("decoding %s: %w", rf.path, err), "io")
	}
	width, height := img.Bounds().Dx(), img.Bounds().Dy()

	padding, err := tile.ComputePadding(width, height, p.geom)
	if err != nil {
		return nil, nil, p.fail(err, "geometry")
	}
	grid, err := tile.NewGrid(padding.PaddedWidth(width), padding.PaddedHeight(height), p.geom)
	if err != nil {
		return nil, nil, p.fail(err, "geometry")
	}

	wd, err := NewWorkdir(p.cfg.WorkDir, rf.stem)
	if err != nil {
		return nil, nil, p.fail(err, "io")
	}
	defer func() {
		if err := wd.Remove(); err != nil {
			p.logger.Warn("workdir cleanup failed", "dir", wd.Root, "error", err)
		}
	}()

	writer := &tile.Writer{Skip: p.skip, Logger: p.logger}
	written, skipped, err := writer.WriteTiles(tile.Pad(img, padding), grid, rf.stem, wd.Tiles)
	if err != nil {
		return nil, nil, p.fail(fmt.Errorf("writing tiles: %w", err), "io")
	}
	p.metrics.TilesWritten.Add(float64(written))
	p.metrics.TilesSkipped.Add(float64(skipped))
	if written == 0 {
		p.logger.Info("every tile skipped as empty", "raster", rf.stem)
		return nil, nil, nil
	}

	start := domain.Clock().Now()
	if err := p.det.Detect(ctx, wd.Tiles, wd.Labels); err != nil {
		return nil, nil, p.fail(fmt.Errorf("detector: %w", err), "detector")
	}
	p.metrics.DetectorDuration.Observe(domain.Clock().Since(start).Seconds())

	parser := &labels.Parser{
		Geom:                p.geom,
		ConfidenceThreshold: p.cfg.ConfidenceThreshold,
		Logger:              p.logger,
	}
	res, err := parser.ParseDir(wd.Labels, rf.stem)
	if err != nil {
		return nil, nil, p.fail(fmt.Errorf("parsing labels: %w", err), "io")
	}
	p.metrics.DetectionsParsed.Add(float64(len(res.Kept) + len(res.LowConfidence)))
	p.metrics.DetectionsLowConfidence.Add(float64(len(res.LowConfidence)))
	p.metrics.MalformedLabelLines.Add(float64(res.Malformed))

	kept := reduceByClass(res.Kept, p.pixelCutoffs())

	mapper, err := geo.NewMapper(meta, padding.Left, padding.Top)
	if err != nil {
		return nil, nil, p.fail(err, "georeferencing")
	}
	if err := mapper.MapDetections(kept); err != nil {
		return nil, nil, p.fail(err, "georeferencing")
	}
	if err := mapper.MapDetections(res.LowConfidence); err != nil {
		return nil, nil, p.fail(err, "georeferencing")
	}

	p.observeCoverage(meta, rf.stem)

	p.logger.Info("raster processed",
		"raster", rf.stem,
		"tiles_written", written,
		"tiles_skipped", skipped,
		"detections", len(kept),
		"low_confidence", len(res.LowConfidence),
	)
	return kept, res.LowConfidence, nil
}

// fail classifies the error for the raster-failure metric, preferring the
// sentinel over the caller's fallback reason.
func (p *Pipeline) fail(err error, fallback string) error {
	reason := fallback
	switch {
	case errors.Is(err, domain.ErrMissingGeoreferencing):
		reason = "georeferencing"
	case errors.Is(err, domain.ErrIncompatibleGeometry):
		reason = "geometry"
	}
	p.metrics.RastersFailed.WithLabelValues(reason).Inc()
	return err
}

func (p *Pipeline) archive(rf rasterFile) error {
	if err := os.MkdirAll(p.cfg.ProcessedDir, 0o755); err != nil {
		return err
	}
	return os.Rename(rf.path, filepath.Join(p.cfg.ProcessedDir, filepath.Base(rf.path)))
}

func (p *Pipeline) export(ctx context.Context, dayKey string, final, low []domain.Detection) error {
	if err := p.out.Append(dayKey, final); err != nil {
		return fmt.Errorf("exporting day %s: %w", dayKey, err)
	}
	for class, dets := range domain.ByClass(final) {
		p.metrics.VesselsExported.WithLabelValues(class.String()).Add(float64(len(dets)))
	}

	if p.low != nil && len(low) > 0 {
		if err := p.low.Append(dayKey, low); err != nil {
			p.logger.Warn("low-confidence export failed", "day", dayKey, "error", err)
		}
	}

	if p.pub != nil && len(final) > 0 {
		if err := p.pub.Publish(ctx, dayKey, final); err != nil {
			p.logger.Error("publish failed", "day", dayKey, "error", err)
		}
	}

	p.logger.Info("day exported", "day", dayKey, "vessels", len(final), "low_confidence", len(low))
	return nil
}

func (p *Pipeline) pixelCutoffs() map[domain.Class]float64 {
	return map[domain.Class]float64{
		domain.ClassStatic: p.cfg.StaticCutoffPixels,
		domain.ClassMoving: p.cfg.MovingCutoffPixels,
	}
}

func (p *Pipeline) degreeCutoffs() map[domain.Class]float64 {
	return map[domain.Class]float64{
		domain.ClassStatic: p.cfg.StaticCutoffDegrees,
		domain.ClassMoving: p.cfg.MovingCutoffDegrees,
	}
}

// reduceByClass clusters and condenses each class independently. A class
// without a configured cutoff falls back to the static one.
func reduceByClass(dets []domain.Detection, cutoffs map[domain.Class]float64) []domain.Detection {
	byClass := domain.ByClass(dets)
	classes := make([]domain.Class, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })

	var out []domain.Detection
	for _, c := range classes {
		cutoff, ok := cutoffs[c]
		if !ok {
			cutoff = cutoffs[domain.ClassStatic]
		}
		out = append(out, cluster.Reduce(byClass[c], cutoff)...)
	}
	return out
}

func (p *Pipeline) observeCoverage(meta geo.RasterMetadata, stem string) {
	if p.aoi == nil {
		return
	}
	r, err := geo.NewReprojector(meta.EPSG)
	if err != nil {
		p.logger.Warn("coverage report skipped", "raster", stem, "error", err)
		return
	}
	frac := geo.CoverageFraction(meta, r, p.aoi)
	p.metrics.AOICoverage.Observe(frac)
	p.logger.Info("aoi coverage", "raster", stem, "aoi", p.aoi.Name, "fraction", frac)
}
