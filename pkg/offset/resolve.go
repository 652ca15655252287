package offset

import (
	"math"
	"sort"

	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/geom"
)

// resolve turns raw offset loops into clean closed loops. Every
// segment is split at every intersection with any other segment, then
// each piece is sampled against the source boundary: pieces closer
// than |d| minus the tolerance epsilon lie on the wrong side of some
// feature and are dropped. The survivors are relinked end to end.
// Returns the loops and the count of sliver loops discarded.
func resolve(raw []geom.Polygon, src geom.Region, d float64, opts Options) ([]geom.Polygon, int) {
	segs := collectSegments(raw)
	splitAll(segs)

	keep := math.Abs(d) - opts.Tolerance - 1e-9
	var pieces []piece
	for _, s := range segs {
		pieces = append(pieces, s.pieces(src, keep)...)
	}

	loops := relink(pieces, d)

	var kept []geom.Polygon
	thin := 0
	for _, l := range loops {
		l = l.SimplifyCollinear(1e-9)
		if len(l) < 3 {
			continue
		}
		if math.Abs(l.SignedArea()) < opts.MinLoopArea {
			thin++
			continue
		}
		kept = append(kept, l)
	}
	return kept, thin
}

// cut marks a crossing on a segment. The point is computed once per
// intersecting pair and shared by both segments, so the pieces on
// either side meet at bit-identical coordinates.
type cut struct {
	t  float64
	pt curve.Point
}

type rawSeg struct {
	a, b       curve.Point
	minX, maxX float64
	minY, maxY float64
	cuts       []cut
}

type piece struct {
	a, b curve.Point
}

func (p piece) dir() curve.Vec2 {
	return p.b.Sub(p.a).Normalize()
}

func collectSegments(raw []geom.Polygon) []*rawSeg {
	var segs []*rawSeg
	for _, loop := range raw {
		for i := range loop {
			a, b := loop[i], loop[(i+1)%len(loop)]
			segs = append(segs, &rawSeg{
				a: a, b: b,
				minX: math.Min(a.X, b.X), maxX: math.Max(a.X, b.X),
				minY: math.Min(a.Y, b.Y), maxY: math.Max(a.Y, b.Y),
			})
		}
	}
	return segs
}

// splitAll records every crossing on both segments of the pair. A
// sweep over segments ordered by min x keeps the pairing close to
// linear for typical loop geometry.
func splitAll(segs []*rawSeg) {
	order := make([]int, len(segs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return segs[order[i]].minX < segs[order[j]].minX
	})
	for oi, i := range order {
		s := segs[i]
		for _, j := range order[oi+1:] {
			o := segs[j]
			if o.minX > s.maxX {
				break
			}
			if o.minY > s.maxY || o.maxY < s.minY {
				continue
			}
			t, u, ok := geom.SegmentIntersection(
				curve.Line{P0: s.a, P1: s.b},
				curve.Line{P0: o.a, P1: o.b},
			)
			if !ok {
				continue
			}
			pt := s.a.Lerp(s.b, t)
			s.cuts = append(s.cuts, cut{t: t, pt: pt})
			o.cuts = append(o.cuts, cut{t: u, pt: pt})
		}
	}
}

// pieces cuts the segment at its recorded crossings and keeps the
// parts whose endpoints and midpoint all sit at least keep away from
// the source boundary.
func (s *rawSeg) pieces(src geom.Region, keep float64) []piece {
	cuts := append([]cut{{t: 0, pt: s.a}}, s.cuts...)
	cuts = append(cuts, cut{t: 1, pt: s.b})
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].t < cuts[j].t })

	var out []piece
	for i := 0; i+1 < len(cuts); i++ {
		c0, c1 := cuts[i], cuts[i+1]
		if c1.t-c0.t < 1e-12 {
			continue
		}
		mid := c0.pt.Midpoint(c1.pt)
		if src.Distance(c0.pt) < keep || src.Distance(c1.pt) < keep || src.Distance(mid) < keep {
			continue
		}
		out = append(out, piece{a: c0.pt, b: c1.pt})
	}
	return out
}

// relink connects pieces into closed loops. Each piece gets exactly
// one successor among the pieces starting where it ends, chosen by
// turn direction: offsetting right (d > 0) hugs the rightmost
// continuation, offsetting left hugs the leftmost. The true boundary
// is then a cycle of the successor map, and tolerance-band debris
// near trim crossings forms tails that lead into a cycle without
// belonging to it.
func relink(pieces []piece, d float64) []geom.Polygon {
	const snap = 1e-7
	key := func(p curve.Point) [2]int64 {
		return [2]int64{int64(math.Round(p.X / snap)), int64(math.Round(p.Y / snap))}
	}
	starts := make(map[[2]int64][]int)
	for i, p := range pieces {
		k := key(p.a)
		starts[k] = append(starts[k], i)
	}

	preferLeft := d < 0
	succ := make([]int, len(pieces))
	for i, p := range pieces {
		succ[i] = -1
		best := math.Inf(-1)
		din := p.dir()
		for _, c := range starts[key(p.b)] {
			if c == i {
				continue
			}
			r := turnRank(din, pieces[c].dir(), preferLeft)
			if r > best {
				best, succ[i] = r, c
			}
		}
	}

	// Walk the successor map and keep only true cycles.
	const (
		unseen = iota
		onPath
		done
	)
	state := make([]int, len(pieces))
	var loops []geom.Polygon
	var path []int
	for i := range pieces {
		if state[i] != unseen {
			continue
		}
		path = path[:0]
		j := i
		for j >= 0 && state[j] == unseen {
			state[j] = onPath
			path = append(path, j)
			j = succ[j]
		}
		if j >= 0 && state[j] == onPath {
			at := 0
			for path[at] != j {
				at++
			}
			loop := make(geom.Polygon, 0, len(path)-at)
			for _, k := range path[at:] {
				loop = append(loop, pieces[k].a)
			}
			loops = append(loops, loop)
		}
		for _, k := range path {
			state[k] = done
		}
	}
	return loops
}

// turnRank orders continuation candidates. An exact reversal is never
// a boundary continuation and ranks below everything.
func turnRank(din, dout curve.Vec2, preferLeft bool) float64 {
	cross := din.Cross(dout)
	dot := din.Dot(dout)
	if dot < 0 && math.Abs(cross) < 1e-9 {
		return math.Inf(-1)
	}
	a := math.Atan2(cross, dot)
	if preferLeft {
		return a
	}
	return -a
}
