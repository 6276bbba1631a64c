package geo

import (
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// AOI is an area-of-interest reference polygon, loaded from the GeoJSON
// file the imagery orders are placed against. Coordinates are WGS84
// lon/lat as GeoJSON defines them.
type AOI struct {
	Name     string
	Polygons []orb.Polygon
}

// LoadAOI reads a GeoJSON feature collection and collects every Polygon
// and MultiPolygon geometry in it.
func LoadAOI(name, path string) (*AOI, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read AOI file: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse AOI geojson: %w", err)
	}

	aoi := &AOI{Name: name}
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			aoi.Polygons = append(aoi.Polygons, g)
		case orb.MultiPolygon:
			aoi.Polygons = append(aoi.Polygons, g...)
		}
	}
	if len(aoi.Polygons) == 0 {
		return nil, fmt.Errorf("AOI %s contains no polygon geometry", name)
	}
	return aoi, nil
}

// ProjectedArea returns the total polygon area in the square units of the
// reprojector's CRS (square meters for UTM codes).
func (a *AOI) ProjectedArea(r *Reprojector) float64 {
	var total float64
	for _, poly := range a.Polygons {
		total += math.Abs(planar.Area(projectPolygon(poly, r)))
	}
	return total
}

// PixelRings converts the AOI outer rings into padded-image pixel space
// via the mapper's reverse direction.
func (a *AOI) PixelRings(m *Mapper) ([]orb.Ring, error) {
	rings := make([]orb.Ring, 0, len(a.Polygons))
	for _, poly := range a.Polygons {
		if len(poly) == 0 {
			continue
		}
		ring := make(orb.Ring, len(poly[0]))
		for i, pt := range poly[0] {
			x, y, err := m.LatLongToPixel(pt.Lat(), pt.Lon())
			if err != nil {
				return nil, err
			}
			ring[i] = orb.Point{x, y}
		}
		rings = append(rings, ring)
	}
	return rings, nil
}

// CoverageFraction estimates how much of the AOI a raster covers: the
// raster's projected footprint area over the AOI area, capped at 1.
// The footprint is taken from pixel extents and scale, assuming the
// product was clipped to the AOI when ordered.
func CoverageFraction(meta RasterMetadata, r *Reprojector, a *AOI) float64 {
	polyArea := a.ProjectedArea(r)
	if polyArea == 0 {
		return 0
	}
	// Pixel grid spans the parallelogram of the column and row vectors, so
	// the footprint area is w·h·|det|.
	footprint := float64(meta.Width) * float64(meta.Height) * math.Abs(meta.GeoTransform.Determinant())
	frac := footprint / polyArea
	if frac > 1 {
		return 1
	}
	return frac
}

func projectPolygon(poly orb.Polygon, r *Reprojector) orb.Polygon {
	out := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		pr := make(orb.Ring, len(ring))
		for j, pt := range ring {
			x, y := r.ToProjected(pt.Lat(), pt.Lon())
			pr[j] = orb.Point{x, y}
		}
		out[i] = pr
	}
	return out
}
