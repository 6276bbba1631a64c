package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

var csvHeader = []string{"date", "class", "images", "latitude", "longitude", "confidence", "w", "h"}

// CSV appends detection rows to one cumulative file, writing the header only
// when the file is empty. Width and height are scaled from their normalized
// form to pixels at write time.
type CSV struct {
	Path     string
	TileSize int
}

// Append writes one row per detection under the given day key.
func (c *CSV) Append(day string, dets []domain.Detection) error {
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	f, err := os.OpenFile(c.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", c.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	for _, d := range dets {
		if err := w.Write(c.row(day, d)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (c *CSV) row(day string, d domain.Detection) []string {
	return []string{
		day,
		strconv.Itoa(int(d.Class)),
		d.Sources.String(),
		formatFloat(d.Y),
		formatFloat(d.X),
		formatFloat(d.Confidence),
		formatFloat(d.Width * float64(c.TileSize)),
		formatFloat(d.Height * float64(c.TileSize)),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
