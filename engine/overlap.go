package engine

import (
	"math"

	"github.com/spektr-org/linkview/schema"
)

// ============================================================================
// OVERLAP RESOLVER — Spread coincident points inside a category band
// ============================================================================
// Applies only when one axis is Discrete and the other Continuous.
// Points sharing an exact (category, value) pair form a cluster; members
// keep record order and are fanned out along the categorical axis:
//
//   odd n:  (i - n/2) * 2r          one member stays at the band center
//   even n: r - r*n + 2*r*i         no member at the center
//
// r = min(baseRadius, bandWidth * 0.8 / largestCluster / 2)
// ============================================================================

type clusterKey struct {
	cat, val uint64
}

// ResolveOverlap sets Offset on every point. It returns the effective mark
// radius and the pixel axis the offsets are added to ("" when the axes
// share a kind and every offset is zero).
func ResolveOverlap(points []PlotPoint, x, y Channel, width, height, baseRadius float64) (float64, Role) {
	for i := range points {
		points[i].Offset = 0
	}

	var (
		axis   Role
		cats   int
		length float64
	)
	switch {
	case x.Kind == schema.Discrete && y.Kind == schema.Continuous:
		axis, cats, length = RoleX, len(x.Categories), width
	case y.Kind == schema.Discrete && x.Kind == schema.Continuous:
		axis, cats, length = RoleY, len(y.Categories), height
	default:
		return baseRadius, ""
	}

	clusters := make(map[clusterKey][]int)
	var order []clusterKey
	largest := 0
	for i, p := range points {
		cat, val := p.XPos, p.YPos
		if axis == RoleY {
			cat, val = p.YPos, p.XPos
		}
		if math.IsNaN(cat) || math.IsNaN(val) {
			continue
		}
		if val == 0 {
			val = 0 // -0 and 0 coincide
		}
		k := clusterKey{math.Float64bits(cat), math.Float64bits(val)}
		if _, ok := clusters[k]; !ok {
			order = append(order, k)
		}
		clusters[k] = append(clusters[k], i)
		if n := len(clusters[k]); n > largest {
			largest = n
		}
	}
	if largest == 0 || cats == 0 {
		return baseRadius, axis
	}

	radius := math.Min(baseRadius, length/float64(cats)*0.8/float64(largest)/2)
	for _, k := range order {
		members := clusters[k]
		for j, off := range ClusterOffsets(len(members), radius) {
			points[members[j]].Offset = off
		}
	}
	return radius, axis
}

// ClusterOffsets returns the offsets for a cluster of n points of radius r.
func ClusterOffsets(n int, r float64) []float64 {
	offsets := make([]float64, n)
	for i := range offsets {
		if n%2 != 0 {
			offsets[i] = float64(i-n/2) * 2 * r
		} else {
			offsets[i] = r - r*float64(n) + 2*r*float64(i)
		}
	}
	return offsets
}
