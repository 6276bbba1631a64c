package geo

import (
	"fmt"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// Affine is a six-coefficient geotransform mapping pixel indices to
// projected coordinates. Field names follow the GDAL ordering
// (c, a, b, f, d, e); see the package documentation.
type Affine struct {
	C, A, B float64
	F, D, E float64
}

// AffineFromGDAL builds an Affine from the array form returned by
// gdalinfo/GetGeoTransform: [c, a, b, f, d, e].
func AffineFromGDAL(gt [6]float64) Affine {
	return Affine{C: gt[0], A: gt[1], B: gt[2], F: gt[3], D: gt[4], E: gt[5]}
}

// Determinant of the linear part. Zero means the transform is degenerate
// and cannot be inverted.
func (t Affine) Determinant() float64 {
	return t.A*t.E - t.B*t.D
}

// IsZero reports whether the transform is entirely unset, the shape GDAL
// reports for rasters with no georeferencing at all.
func (t Affine) IsZero() bool {
	return t == Affine{}
}

// Forward maps a base-0 pixel index to projected coordinates at the pixel
// center.
func (t Affine) Forward(x, y float64) (xp, yp float64) {
	xp = t.A*x + t.B*y + t.A*0.5 + t.B*0.5 + t.C
	yp = t.D*x + t.E*y + t.D*0.5 + t.E*0.5 + t.F
	return xp, yp
}

// Backward maps projected coordinates to the base-0 pixel index whose
// center they fall on. It is the exact algebraic inverse of Forward and
// fails on a degenerate transform.
func (t Affine) Backward(xp, yp float64) (x, y float64, err error) {
	det := t.Determinant()
	if det == 0 {
		return 0, 0, fmt.Errorf("invert geotransform: %w", domain.ErrMissingGeoreferencing)
	}
	u := xp - t.C - t.A*0.5 - t.B*0.5
	v := yp - t.F - t.D*0.5 - t.E*0.5
	x = (t.E*u - t.B*v) / det
	y = (t.A*v - t.D*u) / det
	return x, y, nil
}
