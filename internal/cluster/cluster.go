// Package cluster merges duplicate detections. Overlapping tiles see the
// same vessel many times; hierarchical agglomerative clustering with
// average linkage groups those sightings, and condensation reduces each
// group to one representative detection.
package cluster

import (
	"math"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// Assign tags each detection with a cluster id in [1, k], partitioning the
// set so that no two detections in different clusters were joined below
// the distance cutoff. Distance is Euclidean over (X, Y) only, in whatever
// units the detections' coordinate space uses; callers run one pass with
// a pixel cutoff and a later pass with a geographic cutoff.
//
// The partition is a pure function of the input set and cutoff: permuting
// the input changes cluster ids at most, never membership. Zero detections
// is a no-op; a single detection gets cluster 1.
//
// All detections must belong to one class; mixing classes under a single
// cutoff is a caller bug the function cannot detect.
func Assign(dets []domain.Detection, cutoff float64) {
	n := len(dets)
	switch n {
	case 0:
		return
	case 1:
		dets[0].Cluster = 1
		return
	}

	labels := averageLinkage(dets, cutoff)
	for i := range dets {
		dets[i].Cluster = labels[i] + 1
	}
}

// averageLinkage builds the agglomerative hierarchy bottom-up: repeatedly
// merge the two clusters with the smallest mean pairwise distance until
// that minimum exceeds the cutoff. Average linkage is monotonic, so
// stopping at the cutoff yields the same flat partition as cutting the
// full dendrogram at that height.
func averageLinkage(dets []domain.Detection, cutoff float64) []int {
	n := len(dets)

	// Condensed mean-distance matrix between active clusters, updated with
	// the Lance-Williams formula on each merge.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Hypot(dets[i].X-dets[j].X, dets[i].Y-dets[j].Y)
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	active := make([]bool, n)
	size := make([]int, n)
	labels := make([]int, n)
	for i := range active {
		active[i] = true
		size[i] = 1
		labels[i] = i
	}

	for {
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if dist[i][j] < best {
					bi, bj, best = i, j, dist[i][j]
				}
			}
		}
		if bi < 0 || best > cutoff {
			break
		}

		// Merge bj into bi: new mean distance to every other cluster is the
		// size-weighted mean of the two old distances.
		ni, nj := float64(size[bi]), float64(size[bj])
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			d := (ni*dist[bi][k] + nj*dist[bj][k]) / (ni + nj)
			dist[bi][k] = d
			dist[k][bi] = d
		}
		size[bi] += size[bj]
		active[bj] = false
		for i := range labels {
			if labels[i] == bj {
				labels[i] = bi
			}
		}
	}

	return compactLabels(labels)
}

// compactLabels renumbers arbitrary representative indices into dense ids
// starting at 0, in order of first appearance.
func compactLabels(labels []int) []int {
	next := 0
	seen := make(map[int]int, len(labels))
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := seen[l]
		if !ok {
			id = next
			seen[l] = id
			next++
		}
		out[i] = id
	}
	return out
}
