// Package tile partitions a padded raster into the dense overlapping grid
// of fixed-size crops the sliding-window detector consumes.
//
// # Geometry
//
// Tiles are size×size squares placed every stride pixels, row-major. The
// raster is first padded so its dimensions are exact multiples of the
// stride (remainder split floor/ceil across opposing edges) and then given
// an extra size−stride margin on all four sides, so every pixel of the
// original image is seen with full surrounding context. With the default
// 416/104 geometry each pixel appears in 16 tiles.
//
// The grid is pure geometry: it computes padding and tile offsets but never
// touches pixels. Writing the actual crops is the Writer's job, which also
// applies the border-emptiness skip heuristic to avoid paying detector time
// for tiles that lie entirely outside the original footprint.
package tile
