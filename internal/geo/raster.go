package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// RasterMetadata is the per-file georeferencing record: pixel dimensions,
// affine geotransform, and the EPSG code of the raster's CRS. Loaded once
// per raster and never mutated.
type RasterMetadata struct {
	Width        int
	Height       int
	GeoTransform Affine
	EPSG         int
}

// Validate reports ErrMissingGeoreferencing when the raster cannot place
// its pixels on the globe: no geotransform, a degenerate one, or no CRS.
func (m RasterMetadata) Validate() error {
	if m.GeoTransform.IsZero() {
		return fmt.Errorf("no geotransform: %w", domain.ErrMissingGeoreferencing)
	}
	if m.GeoTransform.Determinant() == 0 {
		return fmt.Errorf("degenerate geotransform: %w", domain.ErrMissingGeoreferencing)
	}
	if m.EPSG == 0 {
		return fmt.Errorf("no CRS: %w", domain.ErrMissingGeoreferencing)
	}
	return nil
}

// MetadataReader loads georeferencing for a raster file.
type MetadataReader interface {
	Read(ctx context.Context, path string) (RasterMetadata, error)
}

// GDALReader reads raster metadata by shelling out to gdalinfo, the same
// GDAL install the imagery workflow already depends on for format
// conversion.
type GDALReader struct {
	// Binary overrides the gdalinfo executable name. Empty means "gdalinfo"
	// resolved from PATH.
	Binary string
	// DefaultEPSG, when non-zero, substitutes for rasters whose metadata
	// carries no CRS. Known limitation: products from the usual provider
	// always carry one, so this stays unset outside of legacy archives.
	DefaultEPSG int
	Logger      *slog.Logger
}

// gdalinfoOutput is the subset of `gdalinfo -json` we consume.
type gdalinfoOutput struct {
	Size         []int      `json:"size"`
	GeoTransform []float64  `json:"geoTransform"`
	Stac         *stacBlock `json:"stac"`
}

type stacBlock struct {
	ProjEPSG     int `json:"proj:epsg"`
	ProjProjjson *struct {
		ID struct {
			Code int `json:"code"`
		} `json:"id"`
	} `json:"proj:projjson"`
}

// Read runs gdalinfo -json and extracts dimensions, geotransform, and EPSG
// code. Absent georeferencing surfaces as ErrMissingGeoreferencing via
// Validate at the call site; Read itself only fails on tool or parse
// errors.
func (r *GDALReader) Read(ctx context.Context, path string) (RasterMetadata, error) {
	bin := r.Binary
	if bin == "" {
		bin = "gdalinfo"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-json", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return RasterMetadata{}, fmt.Errorf("gdalinfo %s: %w (%s)", path, err, bytes.TrimSpace(stderr.Bytes()))
	}

	var out gdalinfoOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return RasterMetadata{}, fmt.Errorf("parse gdalinfo output for %s: %w", path, err)
	}
	return r.toMetadata(path, out), nil
}

func (r *GDALReader) toMetadata(path string, out gdalinfoOutput) RasterMetadata {
	meta := RasterMetadata{}
	if len(out.Size) == 2 {
		meta.Width, meta.Height = out.Size[0], out.Size[1]
	}
	if len(out.GeoTransform) == 6 {
		var gt [6]float64
		copy(gt[:], out.GeoTransform)
		meta.GeoTransform = AffineFromGDAL(gt)
	}
	meta.EPSG = epsgFromStac(out.Stac)
	if meta.EPSG == 0 && r.DefaultEPSG != 0 {
		if r.Logger != nil {
			r.Logger.Warn("raster metadata has no CRS, using configured default",
				"path", path, "epsg", r.DefaultEPSG)
		}
		meta.EPSG = r.DefaultEPSG
	}
	return meta
}

// epsgFromStac prefers the flat proj:epsg field and falls back to the
// projjson id that older provider products embed instead.
func epsgFromStac(s *stacBlock) int {
	if s == nil {
		return 0
	}
	if s.ProjEPSG != 0 {
		return s.ProjEPSG
	}
	if s.ProjProjjson != nil {
		return s.ProjProjjson.ID.Code
	}
	return 0
}
