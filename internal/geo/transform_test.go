package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// utm56S is a typical geotransform for a 3m-resolution product in
// EPSG:32756: north-up, no rotation.
var utm56S = Affine{C: 523650.0, A: 3.0, B: 0, F: 6961995.0, D: 0, E: -3.0}

func TestAffineForward(t *testing.T) {
	t.Run("origin pixel maps to half-pixel offset", func(t *testing.T) {
		xp, yp := utm56S.Forward(0, 0)
		assert.InDelta(t, 523651.5, xp, 1e-9)
		assert.InDelta(t, 6961993.5, yp, 1e-9)
	})

	t.Run("one pixel east moves one resolution step", func(t *testing.T) {
		x0, _ := utm56S.Forward(0, 0)
		x1, _ := utm56S.Forward(1, 0)
		assert.InDelta(t, 3.0, x1-x0, 1e-9)
	})
}

func TestAffineRoundTrip(t *testing.T) {
	transforms := map[string]Affine{
		"north-up": utm56S,
		"rotated":  {C: 100, A: 2.5, B: 0.3, F: 5000, D: -0.2, E: -2.5},
		"sheared":  {C: -40, A: 1, B: 0.5, F: 80, D: 0.25, E: -1},
	}
	points := [][2]float64{{0, 0}, {1, 1}, {415.5, 103.25}, {8000, 4000}, {0.5, 9999.5}}

	for name, tr := range transforms {
		t.Run(name, func(t *testing.T) {
			for _, p := range points {
				xp, yp := tr.Forward(p[0], p[1])
				x, y, err := tr.Backward(xp, yp)
				require.NoError(t, err)
				assert.InDelta(t, p[0], x, 1e-6)
				assert.InDelta(t, p[1], y, 1e-6)
			}
		})
	}
}

func TestAffineBackwardDegenerate(t *testing.T) {
	degenerate := Affine{C: 1, A: 2, B: 4, F: 1, D: 1, E: 2} // det = 0
	_, _, err := degenerate.Backward(10, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingGeoreferencing)
}

func TestRasterMetadataValidate(t *testing.T) {
	valid := RasterMetadata{Width: 100, Height: 100, GeoTransform: utm56S, EPSG: 32756}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("zero geotransform", func(t *testing.T) {
		m := valid
		m.GeoTransform = Affine{}
		assert.ErrorIs(t, m.Validate(), domain.ErrMissingGeoreferencing)
	})

	t.Run("degenerate geotransform", func(t *testing.T) {
		m := valid
		m.GeoTransform = Affine{C: 1, A: 1, B: 1, F: 1, D: 1, E: 1}
		assert.ErrorIs(t, m.Validate(), domain.ErrMissingGeoreferencing)
	})

	t.Run("missing CRS", func(t *testing.T) {
		m := valid
		m.EPSG = 0
		assert.ErrorIs(t, m.Validate(), domain.ErrMissingGeoreferencing)
	})
}
