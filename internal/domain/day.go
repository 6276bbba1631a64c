package domain

import "time"

// AcquisitionDate extracts the capture date from a raster file name. The
// imagery provider prefixes every product with "yyyymmdd_"; anything else
// yields ok=false and the raster cannot participate in day batching.
func AcquisitionDate(filename string) (time.Time, bool) {
	if len(filename) < 9 || filename[8] != '_' {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", filename[:8])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayKey formats a date the way the export file records it, dd/mm/yyyy.
func DayKey(t time.Time) string {
	return t.Format("02/01/2006")
}
