package tile

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// Pad renders the raster image onto a black canvas enlarged by the given
// padding, the form the detector tiles are cropped from.
func Pad(img image.Image, p Padding) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(p.PaddedWidth(b.Dx()), p.PaddedHeight(b.Dy()), color.NRGBA{0, 0, 0, 255})
	return imaging.Paste(canvas, img, image.Pt(p.Left, p.Top))
}

// Writer crops tile images out of a padded raster and writes them to the
// detector's input directory. It owns no geometry decisions beyond the
// skip heuristic; the Grid decides where tiles go.
type Writer struct {
	Skip   SkipPolicy
	Logger *slog.Logger
}

// WriteTiles writes one PNG per non-skipped tile into dir, named
// <base>_<row>_<col>.png. Returns how many tiles were written and how many
// the emptiness heuristic dropped.
func (w *Writer) WriteTiles(padded image.Image, grid *Grid, base, dir string) (written, skipped int, err error) {
	for t := range grid.All() {
		if w.Skip.ShouldSkip(padded, t) {
			skipped++
			continue
		}
		crop := imaging.Crop(padded, image.Rect(t.Left, t.Top, t.Left+t.Size, t.Top+t.Size))
		name := fmt.Sprintf("%s_%d_%d.png", base, t.Row, t.Col)
		if err := imaging.Save(crop, filepath.Join(dir, name)); err != nil {
			return written, skipped, fmt.Errorf("write tile %s: %w", name, err)
		}
		written++
	}
	if w.Logger != nil {
		w.Logger.Debug("tiles written", "base", base, "written", written, "skipped", skipped)
	}
	return written, skipped, nil
}
