package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Class enumerates detector object classes. The numeric values match the
// class ids written by the detector's label files.
type Class int

const (
	// ClassStatic is a stationary vessel.
	ClassStatic Class = 0
	// ClassMoving is a vessel under way.
	ClassMoving Class = 1
)

// Classes lists all known classes in ascending id order.
func Classes() []Class { return []Class{ClassStatic, ClassMoving} }

func (c Class) String() string {
	switch c {
	case ClassStatic:
		return "static"
	case ClassMoving:
		return "moving"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// CoordSpace identifies which coordinate system a detection's X/Y currently
// live in. Transitions are one-directional; see the package documentation.
type CoordSpace int

const (
	SpaceTileLocal CoordSpace = iota
	SpaceFullPixel
	SpaceProjected
	SpaceLatLong
)

func (s CoordSpace) String() string {
	switch s {
	case SpaceTileLocal:
		return "tile-local"
	case SpaceFullPixel:
		return "full-pixel"
	case SpaceProjected:
		return "projected"
	case SpaceLatLong:
		return "lat/long"
	default:
		return "unknown"
	}
}

// Detection is a single detected object. Position and size are interpreted
// according to Space; Width and Height stay normalized to tile size until
// export. Cluster is 0 until a clustering pass assigns an id.
type Detection struct {
	X, Y       float64
	Confidence float64
	Class      Class
	Width      float64
	Height     float64
	Space      CoordSpace
	Cluster    int
	Sources    SourceSet
}

// SourceSet is the deduplicated set of file identifiers a detection was
// observed in.
type SourceSet map[string]struct{}

// NewSourceSet builds a set from the given identifiers.
func NewSourceSet(ids ...string) SourceSet {
	s := make(SourceSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Union returns a new set containing the members of both sets.
func (s SourceSet) Union(other SourceSet) SourceSet {
	out := make(SourceSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// String renders the set space-joined in sorted order, the form used in the
// CSV "images" column.
func (s SourceSet) String() string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, " ")
}

// ByClass partitions detections into per-class slices, preserving input
// order within each class. Clustering always runs on one class at a time.
func ByClass(dets []Detection) map[Class][]Detection {
	out := make(map[Class][]Detection)
	for _, d := range dets {
		out[d.Class] = append(out[d.Class], d)
	}
	return out
}
