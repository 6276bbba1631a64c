package cluster

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/vessel-detect-etl/internal/domain"
)

// Condense reduces each cluster to a single representative detection:
// mean position and size, maximum confidence, majority class (ties broken
// toward the lowest class id), and the union of all contributing source
// identifiers. Input detections must already carry cluster ids from
// Assign. Output is ordered by cluster id; cluster ids are cleared, since
// they are meaningless outside the pass that produced them.
func Condense(dets []domain.Detection) []domain.Detection {
	if len(dets) == 0 {
		return nil
	}

	byCluster := make(map[int][]domain.Detection)
	ids := make([]int, 0)
	for _, d := range dets {
		if _, ok := byCluster[d.Cluster]; !ok {
			ids = append(ids, d.Cluster)
		}
		byCluster[d.Cluster] = append(byCluster[d.Cluster], d)
	}
	sort.Ints(ids)

	out := make([]domain.Detection, 0, len(ids))
	for _, id := range ids {
		out = append(out, condenseOne(byCluster[id]))
	}
	return out
}

// Reduce is Assign followed by Condense, the full dedup pass for one
// class at one cutoff tier.
func Reduce(dets []domain.Detection, cutoff float64) []domain.Detection {
	Assign(dets, cutoff)
	return Condense(dets)
}

func condenseOne(members []domain.Detection) domain.Detection {
	xs := make([]float64, len(members))
	ys := make([]float64, len(members))
	ws := make([]float64, len(members))
	hs := make([]float64, len(members))
	sources := domain.SourceSet{}
	maxConf := members[0].Confidence
	for i, m := range members {
		xs[i], ys[i], ws[i], hs[i] = m.X, m.Y, m.Width, m.Height
		if m.Confidence > maxConf {
			maxConf = m.Confidence
		}
		sources = sources.Union(m.Sources)
	}

	return domain.Detection{
		X:          stat.Mean(xs, nil),
		Y:          stat.Mean(ys, nil),
		Width:      stat.Mean(ws, nil),
		Height:     stat.Mean(hs, nil),
		Confidence: maxConf,
		Class:      majorityClass(members),
		Space:      members[0].Space,
		Sources:    sources,
	}
}

// majorityClass votes across the cluster. Ties go to the lowest-numbered
// class, a deterministic rule rather than an arbitrary one.
func majorityClass(members []domain.Detection) domain.Class {
	counts := make(map[domain.Class]int)
	for _, m := range members {
		counts[m.Class]++
	}
	best := members[0].Class
	bestCount := 0
	for class, count := range counts {
		if count > bestCount || (count == bestCount && class < best) {
			best = class
			bestCount = count
		}
	}
	return best
}
