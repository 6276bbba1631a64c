// Package geo reads raster georeferencing and maps detection coordinates
// between pixel space, the raster's projected CRS, and WGS84.
//
// The affine geotransform follows the GDAL convention: six coefficients
// (c, a, b, f, d, e) where
//
//	x_proj = a*x + b*y + c
//	y_proj = d*x + e*y + f
//
// with (x, y) a base-0 pixel index addressing the pixel's top-left corner.
// Detections sit at pixel centers, so the forward mapping adds half a pixel
// ((a+b)/2, (d+e)/2) before translating. The backward mapping is the exact
// algebraic inverse and requires a non-zero determinant a*e − b*d.
//
// Reading raster metadata is delegated to GDAL's gdalinfo utility, the same
// tool the rest of the imagery workflow uses, rather than linking a TIFF
// reader: the rasters carry provider-specific STAC metadata blocks that
// gdalinfo already knows how to surface.
package geo
