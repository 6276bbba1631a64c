package tile

import (
	"fmt"
	"iter"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// Geometry is the (tile size, stride) pair shared by the tiler and the
// label parser. Both must be built from the same values or tile offsets
// will not reconstruct.
type Geometry struct {
	TileSize int
	Stride   int
}

// Validate checks the divisibility preconditions. Violations are
// configuration errors, fatal for any raster processed with this geometry.
func (g Geometry) Validate() error {
	if g.TileSize <= 0 || g.Stride <= 0 {
		return fmt.Errorf("tile size %d and stride %d must be positive: %w",
			g.TileSize, g.Stride, domain.ErrIncompatibleGeometry)
	}
	if g.TileSize%g.Stride != 0 {
		return fmt.Errorf("tile size %d not divisible by stride %d: %w",
			g.TileSize, g.Stride, domain.ErrIncompatibleGeometry)
	}
	return nil
}

// Overlap is the pixel overlap between adjacent tiles, tile size − stride.
func (g Geometry) Overlap() int { return g.TileSize - g.Stride }

// Padding holds the per-edge pixel padding applied to a raster before
// tiling. Values include both the divisibility remainder and the
// surrounding-context margin.
type Padding struct {
	Left, Right, Top, Bottom int
}

// ComputePadding determines the padding for a raster of the given
// dimensions: the remainder to the next stride multiple, split floor/ceil
// across opposing edges, plus an overlap-sized margin on every side.
// Deterministic, so the coordinate mapper can recompute the same values.
func ComputePadding(width, height int, g Geometry) (Padding, error) {
	if err := g.Validate(); err != nil {
		return Padding{}, err
	}
	if width <= 0 || height <= 0 {
		return Padding{}, fmt.Errorf("raster %dx%d is empty: %w", width, height, domain.ErrIncompatibleGeometry)
	}

	margin := g.Overlap()
	wRem := (ceilDiv(width, g.Stride) * g.Stride) - width
	hRem := (ceilDiv(height, g.Stride) * g.Stride) - height

	return Padding{
		Left:   margin + wRem/2,
		Right:  margin + wRem - wRem/2,
		Top:    margin + hRem/2,
		Bottom: margin + hRem - hRem/2,
	}, nil
}

// PaddedWidth returns the raster width after padding.
func (p Padding) PaddedWidth(width int) int { return width + p.Left + p.Right }

// PaddedHeight returns the raster height after padding.
func (p Padding) PaddedHeight(height int) int { return height + p.Top + p.Bottom }

// Tile is one fixed-size crop of the padded raster, identified by its grid
// position. Offset is always index·stride.
type Tile struct {
	Row, Col  int
	Left, Top int
	Size      int
}

// Grid enumerates the tiles covering a padded raster.
type Grid struct {
	geom          Geometry
	width, height int
	rows, cols    int
}

// NewGrid builds the tile grid for a padded raster. The padded dimensions
// must be exact multiples of the stride; ComputePadding guarantees that
// for any input raster, so a violation here means mismatched constants.
func NewGrid(paddedWidth, paddedHeight int, g Geometry) (*Grid, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if paddedWidth%g.Stride != 0 || paddedHeight%g.Stride != 0 {
		return nil, fmt.Errorf("padded raster %dx%d not divisible by stride %d: %w",
			paddedWidth, paddedHeight, g.Stride, domain.ErrIncompatibleGeometry)
	}

	rows := paddedHeight/g.Stride - g.TileSize/g.Stride + 1
	cols := paddedWidth/g.Stride - g.TileSize/g.Stride + 1
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("padded raster %dx%d smaller than one %dpx tile: %w",
			paddedWidth, paddedHeight, g.TileSize, domain.ErrIncompatibleGeometry)
	}

	return &Grid{geom: g, width: paddedWidth, height: paddedHeight, rows: rows, cols: cols}, nil
}

// Rows is the number of tile rows.
func (g *Grid) Rows() int { return g.rows }

// Cols is the number of tile columns.
func (g *Grid) Cols() int { return g.cols }

// Count is the total number of tiles in the grid.
func (g *Grid) Count() int { return g.rows * g.cols }

// All yields every tile row-major, top-to-bottom then left-to-right. The
// sequence is lazy and restartable; tiles are computed, never stored.
func (g *Grid) All() iter.Seq[Tile] {
	return func(yield func(Tile) bool) {
		for row := 0; row < g.rows; row++ {
			for col := 0; col < g.cols; col++ {
				t := Tile{
					Row:  row,
					Col:  col,
					Left: col * g.geom.Stride,
					Top:  row * g.geom.Stride,
					Size: g.geom.TileSize,
				}
				if !yield(t) {
					return
				}
			}
		}
	}
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
