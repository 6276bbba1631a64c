package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGDALReaderParsing(t *testing.T) {
	r := &GDALReader{}

	t.Run("flat proj:epsg", func(t *testing.T) {
		out := gdalinfoOutput{
			Size:         []int{8308, 4953},
			GeoTransform: []float64{523650, 3, 0, 6961995, 0, -3},
			Stac:         &stacBlock{ProjEPSG: 32756},
		}
		meta := r.toMetadata("a.tif", out)
		assert.Equal(t, 8308, meta.Width)
		assert.Equal(t, 4953, meta.Height)
		assert.Equal(t, 32756, meta.EPSG)
		assert.Equal(t, 3.0, meta.GeoTransform.A)
		assert.Equal(t, -3.0, meta.GeoTransform.E)
		require.NoError(t, meta.Validate())
	})

	t.Run("projjson fallback", func(t *testing.T) {
		s := &stacBlock{}
		s.ProjProjjson = &struct {
			ID struct {
				Code int `json:"code"`
			} `json:"id"`
		}{}
		s.ProjProjjson.ID.Code = 32756
		out := gdalinfoOutput{
			Size:         []int{100, 100},
			GeoTransform: []float64{0, 1, 0, 0, 0, -1},
			Stac:         s,
		}
		meta := r.toMetadata("b.tif", out)
		assert.Equal(t, 32756, meta.EPSG)
	})

	t.Run("no stac block means no CRS", func(t *testing.T) {
		out := gdalinfoOutput{Size: []int{10, 10}, GeoTransform: []float64{0, 1, 0, 0, 0, -1}}
		meta := r.toMetadata("c.tif", out)
		assert.Equal(t, 0, meta.EPSG)
		assert.Error(t, meta.Validate())
	})

	t.Run("default EPSG fallback", func(t *testing.T) {
		withDefault := &GDALReader{DefaultEPSG: 32756}
		out := gdalinfoOutput{Size: []int{10, 10}, GeoTransform: []float64{0, 1, 0, 0, 0, -1}}
		meta := withDefault.toMetadata("d.tif", out)
		assert.Equal(t, 32756, meta.EPSG)
	})
}
