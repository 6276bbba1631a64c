package tile

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
)

func TestPad(t *testing.T) {
	img := solidImage(8, 8, white)
	padded := Pad(img, Padding{Left: 1, Right: 2, Top: 3, Bottom: 4})

	assert.Equal(t, 11, padded.Bounds().Dx())
	assert.Equal(t, 15, padded.Bounds().Dy())

	// Margin is black, interior keeps the source pixels.
	assert.True(t, isPadColor(padded, 0, 0))
	assert.True(t, isPadColor(padded, 10, 14))
	assert.False(t, isPadColor(padded, 1, 3))
	assert.False(t, isPadColor(padded, 8, 10))
}

func TestShouldSkip(t *testing.T) {
	policy := SkipPolicy{Enabled: true, Threshold: 0.93, SampleStep: 1}

	t.Run("fully black tile is skipped", func(t *testing.T) {
		img := solidImage(16, 16, black)
		assert.True(t, policy.ShouldSkip(img, Tile{Left: 0, Top: 0, Size: 8}))
	})

	t.Run("fully lit tile is kept", func(t *testing.T) {
		img := solidImage(16, 16, white)
		assert.False(t, policy.ShouldSkip(img, Tile{Left: 0, Top: 0, Size: 8}))
	})

	t.Run("borderline content below threshold is kept", func(t *testing.T) {
		// Black canvas with a lit band across the right half: two of the
		// four sampled edges pick up content, well under 93% empty... but
		// over half. Fraction empty ~0.79.
		img := solidImage(16, 16, black)
		for y := 4; y < 8; y++ {
			for x := 4; x < 8; x++ {
				img.SetNRGBA(x, y, white)
			}
		}
		assert.False(t, policy.ShouldSkip(img, Tile{Left: 0, Top: 0, Size: 8}))
	})

	t.Run("disabled policy never skips", func(t *testing.T) {
		img := solidImage(16, 16, black)
		off := SkipPolicy{Enabled: false, Threshold: 0.93, SampleStep: 1}
		assert.False(t, off.ShouldSkip(img, Tile{Left: 0, Top: 0, Size: 8}))
	})
}

func TestWriteTiles(t *testing.T) {
	geom := Geometry{TileSize: 8, Stride: 4}

	t.Run("writes every tile when skip is off", func(t *testing.T) {
		dir := t.TempDir()
		padded := Pad(solidImage(8, 8, white), Padding{Left: 4, Right: 4, Top: 4, Bottom: 4})
		grid, err := NewGrid(16, 16, geom)
		require.NoError(t, err)

		w := &Writer{Skip: SkipPolicy{Enabled: false}}
		written, skipped, err := w.WriteTiles(padded, grid, "20240426_img", dir)
		require.NoError(t, err)
		assert.Equal(t, 9, written)
		assert.Equal(t, 0, skipped)

		// Names encode row and column.
		_, err = os.Stat(filepath.Join(dir, "20240426_img_0_0.png"))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, "20240426_img_2_2.png"))
		assert.NoError(t, err)

		tileImg, err := imaging.Open(filepath.Join(dir, "20240426_img_1_1.png"))
		require.NoError(t, err)
		assert.Equal(t, 8, tileImg.Bounds().Dx())
		assert.Equal(t, 8, tileImg.Bounds().Dy())
	})

	t.Run("all-padding raster is skipped entirely", func(t *testing.T) {
		dir := t.TempDir()
		padded := solidImage(16, 16, black)
		grid, err := NewGrid(16, 16, geom)
		require.NoError(t, err)

		w := &Writer{Skip: SkipPolicy{Enabled: true, Threshold: 0.93, SampleStep: 1}}
		written, skipped, err := w.WriteTiles(padded, grid, "20240426_img", dir)
		require.NoError(t, err)
		assert.Equal(t, 0, written)
		assert.Equal(t, 9, skipped)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
