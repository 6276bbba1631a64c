// Package domain models vessel detections produced by a sliding-window
// detector over tiled satellite rasters.
//
// # Detection Lifecycle
//
// A Detection is born from one line of a YOLO-style label file, positioned
// in tile-local normalized coordinates. It moves through exactly one
// coordinate space at a time, in one direction only:
//
//	tile-local → full-image pixel → projected (raster CRS) → WGS84 lat/long
//
// The labels package produces full-image pixel detections, the geo package
// advances them to projected and lat/long, and the cluster package replaces
// groups of them with single condensed detections. No stage ever moves a
// detection backwards through the chain.
//
// # Classes
//
// The detector distinguishes stationary vessels (class 0) from moving
// vessels (class 1). The two classes are clustered independently with
// different distance cutoffs: a stationary vessel seen by many overlapping
// tiles produces a tight knot of duplicates, while a moving vessel's
// duplicates spread along its track, so it needs a wider merge radius.
//
// # Source Identity
//
// Every detection carries the set of file identifiers that contributed to
// it. Parsing seeds the set with the source raster or tile name; condensing
// a cluster unions the sets of all members. The set renders space-joined in
// sorted order for CSV export.
package domain
