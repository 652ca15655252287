package medial

import (
	"context"
	"fmt"
	"math"

	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/geom"
)

// sampleRef ties a boundary sample back to its generating geometry.
type sampleRef struct {
	loop int // index into the region's loop list
	seg  int // segment index within the loop
	ord  int // position along the loop's sample sequence
}

// sampleBoundary walks every loop emitting points no farther apart
// than spacing, each tagged with its source segment. A deterministic
// sub-micron jitter breaks the exact collinearity of samples along
// straight walls, which would otherwise degenerate the triangulation.
func sampleBoundary(region geom.Region, spacing float64) ([]curve.Point, []sampleRef, []int) {
	var pts []curve.Point
	var refs []sampleRef
	var counts []int
	for li, loop := range region.Loops() {
		ord := 0
		for si := range loop {
			seg := loop.Segment(si)
			length := seg.P0.Distance(seg.P1)
			n := int(math.Ceil(length / spacing))
			if n < 1 {
				n = 1
			}
			for k := 0; k < n; k++ {
				p := seg.P0.Lerp(seg.P1, float64(k)/float64(n))
				pts = append(pts, jitter(p, len(pts)))
				refs = append(refs, sampleRef{loop: li, seg: si, ord: ord})
				ord++
			}
		}
		counts = append(counts, ord)
	}
	return pts, refs, counts
}

func jitter(p curve.Point, i int) curve.Point {
	h := uint32(i+1) * 2654435761
	jx := (float64(h&0x3ff)/1024 - 0.5) * 1e-6
	jy := (float64(h>>10&0x3ff)/1024 - 0.5) * 1e-6
	return curve.Pt(p.X+jx, p.Y+jy)
}

// tri is one Delaunay triangle with its cached circumcircle.
type tri struct {
	a, b, c int
	cc      curve.Point
	rr      float64 // circumradius squared
}

func (t tri) inCircum(p curve.Point) bool {
	return p.DistanceSquared(t.cc) <= t.rr*(1+1e-12)
}

func makeTri(a, b, c int, pts []curve.Point) (tri, bool) {
	pa, pb, pc := pts[a], pts[b], pts[c]
	d := 2 * (pa.X*(pb.Y-pc.Y) + pb.X*(pc.Y-pa.Y) + pc.X*(pa.Y-pb.Y))
	if math.Abs(d) < 1e-12 {
		return tri{}, false
	}
	sa := pa.X*pa.X + pa.Y*pa.Y
	sb := pb.X*pb.X + pb.Y*pb.Y
	sc := pc.X*pc.X + pc.Y*pc.Y
	cc := curve.Pt(
		(sa*(pb.Y-pc.Y)+sb*(pc.Y-pa.Y)+sc*(pa.Y-pb.Y))/d,
		(sa*(pc.X-pb.X)+sb*(pa.X-pc.X)+sc*(pb.X-pa.X))/d,
	)
	return tri{a: a, b: b, c: c, cc: cc, rr: cc.DistanceSquared(pa)}, true
}

// triangulate runs incremental Bowyer-Watson over the samples. The
// returned triangles reference sample indices only; triangles touching
// the enclosing super-triangle are already removed.
func triangulate(ctx context.Context, pts []curve.Point) ([]tri, error) {
	n := len(pts)
	if n < 3 {
		return nil, fmt.Errorf("medial: %d samples cannot be triangulated", n)
	}

	bb := geom.Polygon(pts).BoundingBox()
	m := math.Max(bb.MaxX()-bb.MinX(), bb.MaxY()-bb.MinY()) + 1
	cx := (bb.MinX() + bb.MaxX()) / 2
	all := make([]curve.Point, n, n+3)
	copy(all, pts)
	all = append(all,
		curve.Pt(cx-20*m, bb.MinY()-m),
		curve.Pt(cx+20*m, bb.MinY()-m),
		curve.Pt(cx, bb.MaxY()+20*m),
	)

	super, ok := makeTri(n, n+1, n+2, all)
	if !ok {
		return nil, fmt.Errorf("medial: degenerate bounds")
	}
	tris := []tri{super}

	type edge [2]int
	sortEdge := func(a, b int) edge {
		if a > b {
			a, b = b, a
		}
		return edge{a, b}
	}

	for i := 0; i < n; i++ {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p := all[i]

		// Cavity: every triangle whose circumcircle swallows p.
		cavity := make(map[edge]int)
		kept := tris[:0]
		for _, t := range tris {
			if t.inCircum(p) {
				cavity[sortEdge(t.a, t.b)]++
				cavity[sortEdge(t.b, t.c)]++
				cavity[sortEdge(t.c, t.a)]++
			} else {
				kept = append(kept, t)
			}
		}
		tris = kept

		// Retriangulate against the cavity rim: edges seen once.
		for e, cnt := range cavity {
			if cnt != 1 {
				continue
			}
			if t, ok := makeTri(e[0], e[1], i, all); ok {
				tris = append(tris, t)
			}
		}
	}

	out := tris[:0]
	for _, t := range tris {
		if t.a < n && t.b < n && t.c < n {
			out = append(out, t)
		}
	}
	return out, nil
}
