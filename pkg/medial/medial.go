// Package medial approximates the medial axis of a polygon region by
// the Voronoi diagram of densely sampled boundary points, and turns it
// into V-carve spine geometry: every interior skeleton vertex knows
// its clearance radius, so a V-bit following the spine at the matching
// depth touches both walls at once.
//
// The skeleton keeps its pre-prune edge set around: pruning only
// flags edges, so callers can inspect what a prune angle removed.
package medial

import (
	"context"
	"fmt"
	"math"
	"sort"

	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/geom"
)

// Typed arena indices. Vertices and edges live in flat slices and
// reference each other by index.
type (
	VertexIndex int
	EdgeIndex   int
)

const (
	EmptyVertex VertexIndex = -1
	EmptyEdge   EdgeIndex   = -1
)

// Options tune skeleton extraction.
type Options struct {
	// SampleSpacing is the maximum distance between boundary samples.
	SampleSpacing float64
	// PruneAngle removes spine branches generated by convex corners
	// turning less than this many radians. Near-collinear joints spray
	// comb artifacts into the skeleton; real corners stay.
	PruneAngle float64
}

// DefaultOptions returns the extraction tuning used when the caller
// has no configuration of its own.
func DefaultOptions() Options {
	return Options{SampleSpacing: 0.5, PruneAngle: 0.30}
}

// Vertex is a skeleton vertex: a point equidistant from at least two
// boundary features, R away from the nearest one.
type Vertex struct {
	Pos curve.Point
	R   float64
}

// Edge connects two skeleton vertices. The generating boundary
// segments identify where the edge came from; Pruned marks edges
// removed by the corner-angle rule without deleting them.
type Edge struct {
	A, B   VertexIndex
	LoopA  int
	SegA   int
	LoopB  int
	SegB   int
	Pruned bool
}

// Skeleton is the medial-axis approximation of one region.
type Skeleton struct {
	Vertices []Vertex
	Edges    []Edge

	src geom.Region
	adj [][]EdgeIndex // kept-edge incidence per vertex
}

// Region returns the region the skeleton was computed from.
func (s *Skeleton) Region() geom.Region { return s.src }

// AllEdges returns every interior skeleton edge, pruned or not.
func (s *Skeleton) AllEdges() []EdgeIndex { return s.edgeSet(nil) }

// KeptEdges returns the edges surviving the prune pass.
func (s *Skeleton) KeptEdges() []EdgeIndex {
	f := false
	return s.edgeSet(&f)
}

// PrunedEdges returns the edges the prune pass removed.
func (s *Skeleton) PrunedEdges() []EdgeIndex {
	f := true
	return s.edgeSet(&f)
}

func (s *Skeleton) edgeSet(pruned *bool) []EdgeIndex {
	var out []EdgeIndex
	for i, e := range s.Edges {
		if pruned == nil || e.Pruned == *pruned {
			out = append(out, EdgeIndex(i))
		}
	}
	return out
}

// Degree reports how many kept edges meet at the vertex.
func (s *Skeleton) Degree(v VertexIndex) int { return len(s.adj[v]) }

// MaxR returns the largest clearance radius on the skeleton, zero when
// the skeleton is empty.
func (s *Skeleton) MaxR() float64 {
	max := 0.0
	for _, v := range s.Vertices {
		if v.R > max {
			max = v.R
		}
	}
	return max
}

// Compute extracts the skeleton of a region. The context is honored
// during triangulation, the dominant cost on dense boundaries.
func Compute(ctx context.Context, region geom.Region, opts Options) (*Skeleton, error) {
	if len(region.Outer) < 3 {
		return nil, fmt.Errorf("medial: region outer has %d points", len(region.Outer))
	}
	if opts.SampleSpacing <= 0 {
		return nil, fmt.Errorf("medial: sample spacing %v must be positive", opts.SampleSpacing)
	}

	pts, refs, counts := sampleBoundary(region, opts.SampleSpacing)
	tris, err := triangulate(ctx, pts)
	if err != nil {
		return nil, err
	}

	// Invert: Delaunay edge (sample pair) -> flanking triangles. The
	// Voronoi edge dual to a pair connects the two circumcenters.
	type pair [2]int
	flank := make(map[pair][2]int)
	count := make(map[pair]int)
	for ti, t := range tris {
		for _, e := range [3]pair{{t.a, t.b}, {t.b, t.c}, {t.c, t.a}} {
			if e[0] > e[1] {
				e[0], e[1] = e[1], e[0]
			}
			f := flank[e]
			if count[e] < 2 {
				f[count[e]] = ti
			}
			flank[e] = f
			count[e]++
		}
	}
	keys := make([]pair, 0, len(flank))
	for e := range flank {
		if count[e] == 2 {
			keys = append(keys, e)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	sk := &Skeleton{src: region}
	loops := region.Loops()
	arena := make(map[[2]int64]VertexIndex)
	intern := func(p curve.Point) VertexIndex {
		const snap = 1e-7
		k := [2]int64{int64(math.Round(p.X / snap)), int64(math.Round(p.Y / snap))}
		if vi, ok := arena[k]; ok {
			return vi
		}
		vi := VertexIndex(len(sk.Vertices))
		sk.Vertices = append(sk.Vertices, Vertex{Pos: p, R: region.Distance(p)})
		arena[k] = vi
		return vi
	}

	for _, e := range keys {
		ra, rb := refs[e[0]], refs[e[1]]
		if consecutiveSamples(ra, rb, counts) {
			continue
		}
		f := flank[e]
		c1, c2 := tris[f[0]].cc, tris[f[1]].cc
		// Flank order follows triangulation internals; order the pair
		// so vertex numbering is reproducible across runs.
		if c2.X < c1.X || (c2.X == c1.X && c2.Y < c1.Y) {
			c1, c2 = c2, c1
		}
		if c1.DistanceSquared(c2) < 1e-18 {
			continue
		}
		if !region.Contains(c1) || !region.Contains(c2) {
			continue
		}
		edge := Edge{
			A: intern(c1), B: intern(c2),
			LoopA: ra.loop, SegA: ra.seg,
			LoopB: rb.loop, SegB: rb.seg,
		}
		if edge.A == edge.B {
			continue
		}
		edge.Pruned = pruneEdge(ra, rb, loops, opts.PruneAngle)
		sk.Edges = append(sk.Edges, edge)
	}

	sk.adj = make([][]EdgeIndex, len(sk.Vertices))
	for i, e := range sk.Edges {
		if e.Pruned {
			continue
		}
		sk.adj[e.A] = append(sk.adj[e.A], EdgeIndex(i))
		sk.adj[e.B] = append(sk.adj[e.B], EdgeIndex(i))
	}
	return sk, nil
}

// consecutiveSamples reports whether two samples are neighbors along
// their loop. Their Voronoi edge is a sampling spoke perpendicular to
// the wall, not part of the axis.
func consecutiveSamples(a, b sampleRef, counts []int) bool {
	if a.loop != b.loop {
		return false
	}
	d := a.ord - b.ord
	if d < 0 {
		d = -d
	}
	return d == 1 || d == counts[a.loop]-1
}

// pruneEdge flags edges generated by two segments meeting at a shallow
// convex corner. The spine branch into such a corner is an artifact of
// the near-straight joint. Reflex corners and unrelated segment pairs
// always keep their edges.
func pruneEdge(a, b sampleRef, loops []geom.Polygon, pruneAngle float64) bool {
	if pruneAngle <= 0 || a.loop != b.loop {
		return false
	}
	loop := loops[a.loop]
	n := len(loop)
	var shared int
	switch {
	case (a.seg+1)%n == b.seg:
		shared = b.seg
	case (b.seg+1)%n == a.seg:
		shared = a.seg
	default:
		return false
	}
	u := loop[shared].Sub(loop[(shared-1+n)%n]).Normalize()
	v := loop[(shared+1)%n].Sub(loop[shared]).Normalize()
	turn := math.Atan2(u.Cross(v), u.Dot(v))
	return turn > 0 && turn < pruneAngle
}
