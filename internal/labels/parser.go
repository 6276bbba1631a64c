// Package labels reads the label files the external detector writes, one
// per tile, and reconstructs detections in full-image pixel space.
package labels

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
	"github.com/couchcryptid/vessel-detect-etl/internal/tile"
)

// Parser converts label files into detections. It must share its Geometry
// with the tiler that produced the tile images, because the tile's pixel
// offset is reconstructed from the row/column encoded in the file name.
type Parser struct {
	Geom tile.Geometry
	// ConfidenceThreshold splits parsed detections: at or above goes to
	// Kept, below goes to LowConfidence. Applied before clustering so weak
	// detections never influence cluster shape.
	ConfidenceThreshold float64
	Logger              *slog.Logger
}

// Result partitions the detections of one parse call.
type Result struct {
	Kept          []domain.Detection
	LowConfidence []domain.Detection
	Malformed     int
}

func (r *Result) merge(other Result) {
	r.Kept = append(r.Kept, other.Kept...)
	r.LowConfidence = append(r.LowConfidence, other.LowConfidence...)
	r.Malformed += other.Malformed
}

// ParseDir parses every .txt file in dir, attributing all detections to
// the given source raster identifier. A directory with no label files
// yields an empty result: tiles with no detections produce no file.
func (p *Parser) ParseDir(dir, source string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("read label dir: %w", err)
	}

	var out Result
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		res, err := p.ParseFile(filepath.Join(dir, e.Name()), source)
		if err != nil {
			return Result{}, err
		}
		out.merge(res)
	}
	return out, nil
}

// ParseFile parses one label file. The file name must carry the tile
// position as the last two underscore-separated fields
// (<base>_<row>_<col>.txt). A missing or empty file yields an empty
// result; a malformed line is skipped and counted, never fatal.
func (p *Parser) ParseFile(path, source string) (Result, error) {
	row, col, err := tileIndex(filepath.Base(path))
	if err != nil {
		return Result{}, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("open label file: %w", err)
	}
	defer f.Close()

	across := float64(col * p.Geom.Stride)
	down := float64(row * p.Geom.Stride)
	size := float64(p.Geom.TileSize)

	var out Result
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		d, err := parseLine(line)
		if err != nil {
			out.Malformed++
			if p.Logger != nil {
				p.Logger.Warn("skipping malformed label line",
					"file", filepath.Base(path), "line", lineNo, "error", err)
			}
			continue
		}

		// Normalized tile-local center to full padded-image pixel.
		d.X = d.X*size + across
		d.Y = d.Y*size + down
		d.Space = domain.SpaceFullPixel
		d.Sources = domain.NewSourceSet(source)

		if d.Confidence < p.ConfidenceThreshold {
			out.LowConfidence = append(out.LowConfidence, d)
		} else {
			out.Kept = append(out.Kept, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("read label file %s: %w", path, err)
	}
	return out, nil
}

// parseLine parses "class cx cy w h [conf]". Confidence defaults to 1.0
// because manually annotated files have no confidence column.
func parseLine(line string) (domain.Detection, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 && len(fields) != 6 {
		return domain.Detection{}, fmt.Errorf("want 5 or 6 fields, got %d", len(fields))
	}

	class, err := strconv.Atoi(fields[0])
	if err != nil {
		return domain.Detection{}, fmt.Errorf("class: %w", err)
	}
	vals := make([]float64, 4)
	for i, f := range fields[1:5] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return domain.Detection{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	conf := 1.0
	if len(fields) == 6 {
		conf, err = strconv.ParseFloat(fields[5], 64)
		if err != nil {
			return domain.Detection{}, fmt.Errorf("confidence: %w", err)
		}
	}

	return domain.Detection{
		X:          vals[0],
		Y:          vals[1],
		Width:      vals[2],
		Height:     vals[3],
		Confidence: conf,
		Class:      domain.Class(class),
		Space:      domain.SpaceTileLocal,
	}, nil
}

// tileIndex recovers the tile row and column from a label file name of the
// form <base>_<row>_<col>.<ext>.
func tileIndex(name string) (row, col int, err error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return 0, 0, fmt.Errorf("label file %q does not encode a tile position", name)
	}
	row, errR := strconv.Atoi(parts[len(parts)-2])
	col, errC := strconv.Atoi(parts[len(parts)-1])
	if errR != nil || errC != nil {
		return 0, 0, fmt.Errorf("label file %q does not encode a tile position", name)
	}
	return row, col, nil
}
