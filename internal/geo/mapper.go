package geo

import (
	"fmt"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// Mapper advances detections from full-image pixel space to WGS84
// latitude/longitude for one raster. The pixel positions produced by the
// label parser are relative to the padded image the detector saw, so the
// mapper first subtracts the padding applied during tiling.
type Mapper struct {
	meta    RasterMetadata
	reproj  *Reprojector
	leftPad int
	topPad  int
}

// NewMapper validates the raster's georeferencing and prepares the CRS
// transform. leftPad and topPad are the exact padding amounts computed
// during tiling.
func NewMapper(meta RasterMetadata, leftPad, topPad int) (*Mapper, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	reproj, err := NewReprojector(meta.EPSG)
	if err != nil {
		return nil, err
	}
	return &Mapper{meta: meta, reproj: reproj, leftPad: leftPad, topPad: topPad}, nil
}

// PixelToLatLong maps one padded-image pixel position to latitude and
// longitude.
func (m *Mapper) PixelToLatLong(x, y float64) (lat, long float64) {
	ux := x - float64(m.leftPad)
	uy := y - float64(m.topPad)
	xp, yp := m.meta.GeoTransform.Forward(ux, uy)
	return m.reproj.ToLatLong(xp, yp)
}

// LatLongToPixel is the reverse direction, used to bring reference
// polygons into padded-image pixel space.
func (m *Mapper) LatLongToPixel(lat, long float64) (x, y float64, err error) {
	xp, yp := m.reproj.ToProjected(lat, long)
	ux, uy, err := m.meta.GeoTransform.Backward(xp, yp)
	if err != nil {
		return 0, 0, err
	}
	return ux + float64(m.leftPad), uy + float64(m.topPad), nil
}

// MapDetections rewrites each detection's position from full-image pixel
// space to latitude/longitude in place. X carries longitude and Y latitude
// afterwards, matching the export convention. Detections must be in
// full-pixel space; anything else is a pipeline sequencing bug.
func (m *Mapper) MapDetections(dets []domain.Detection) error {
	for i := range dets {
		if dets[i].Space != domain.SpaceFullPixel {
			return fmt.Errorf("detection %d is in %s space, want %s", i, dets[i].Space, domain.SpaceFullPixel)
		}
		lat, long := m.PixelToLatLong(dets[i].X, dets[i].Y)
		dets[i].X = long
		dets[i].Y = lat
		dets[i].Space = domain.SpaceLatLong
	}
	return nil
}
