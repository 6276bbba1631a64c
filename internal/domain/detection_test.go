package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSourceSet(t *testing.T) {
	t.Run("string is sorted and space joined", func(t *testing.T) {
		s := NewSourceSet("b.tif", "a.tif", "c.tif")
		assert.Equal(t, "a.tif b.tif c.tif", s.String())
	})

	t.Run("union deduplicates", func(t *testing.T) {
		a := NewSourceSet("x.tif", "y.tif")
		b := NewSourceSet("y.tif", "z.tif")
		assert.Equal(t, "x.tif y.tif z.tif", a.Union(b).String())
		// inputs untouched
		assert.Len(t, a, 2)
		assert.Len(t, b, 2)
	})

	t.Run("empty set renders empty", func(t *testing.T) {
		assert.Equal(t, "", NewSourceSet().String())
	})
}

func TestAcquisitionDate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     time.Time
		ok       bool
	}{
		{"valid prefix", "20240426_123456_composite.tif", time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC), true},
		{"no underscore", "20240426T123456.tif", time.Time{}, false},
		{"too short", "2024.tif", time.Time{}, false},
		{"non numeric", "notadate_file.tif", time.Time{}, false},
		{"invalid month", "20241326_x.tif", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AcquisitionDate(tt.filename)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "26/04/2024", DayKey(time.Date(2024, 4, 26, 0, 0, 0, 0, time.UTC)))
}

func TestByClass(t *testing.T) {
	dets := []Detection{
		{X: 1, Class: ClassStatic},
		{X: 2, Class: ClassMoving},
		{X: 3, Class: ClassStatic},
	}
	byClass := ByClass(dets)
	assert.Len(t, byClass[ClassStatic], 2)
	assert.Len(t, byClass[ClassMoving], 1)
	assert.Equal(t, 1.0, byClass[ClassStatic][0].X)
	assert.Equal(t, 3.0, byClass[ClassStatic][1].X)
}
