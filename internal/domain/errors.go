package domain

import "errors"

var (
	// ErrIncompatibleGeometry reports a raster whose dimensions cannot be
	// tiled with the configured tile size and stride. Fatal for that raster.
	ErrIncompatibleGeometry = errors.New("raster dimensions incompatible with tile geometry")

	// ErrMissingGeoreferencing reports a raster with no affine geotransform
	// or no discoverable CRS. Fatal for that raster, never retried.
	ErrMissingGeoreferencing = errors.New("raster has no usable georeferencing")
)
