package geo

import (
	"fmt"

	"github.com/wroge/wgs84"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// Reprojector converts between a raster's projected CRS and WGS84
// geographic coordinates. Build one per raster with NewReprojector.
type Reprojector struct {
	epsg    int
	forward wgs84.Func // projected -> lon/lat
	inverse wgs84.Func // lon/lat -> projected
}

// NewReprojector resolves the EPSG code against the built-in registry.
// Unknown codes are a georeferencing failure: the raster's coordinates
// cannot be placed on the globe.
func NewReprojector(epsg int) (*Reprojector, error) {
	crs := wgs84.EPSG().Code(epsg)
	if crs == nil {
		return nil, fmt.Errorf("unknown EPSG code %d: %w", epsg, domain.ErrMissingGeoreferencing)
	}
	return &Reprojector{
		epsg:    epsg,
		forward: wgs84.Transform(crs, wgs84.LonLat()),
		inverse: wgs84.Transform(wgs84.LonLat(), crs),
	}, nil
}

// EPSG returns the projected CRS code this reprojector was built for.
func (r *Reprojector) EPSG() int { return r.epsg }

// ToLatLong converts projected coordinates to WGS84 latitude/longitude.
func (r *Reprojector) ToLatLong(x, y float64) (lat, long float64) {
	long, lat, _ = r.forward(x, y, 0)
	return lat, long
}

// ToProjected converts WGS84 latitude/longitude to projected coordinates.
// Used in the reverse direction when reference polygons are brought into
// raster space.
func (r *Reprojector) ToProjected(lat, long float64) (x, y float64) {
	x, y, _ = r.inverse(long, lat, 0)
	return x, y
}
