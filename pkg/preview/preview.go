// Package preview builds renderable carve previews: the stock blank
// minus tool-shaped cutters stamped along toolpath passes, modeled as
// signed distance fields and polygonized with marching cubes.
package preview

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/kerfcam/kerf/pkg/cam"
	"github.com/kerfcam/kerf/pkg/toolpath"
)

// cutterLift extends every cutter this far above the stock surface so
// the boolean difference cuts cleanly through the top face.
const cutterLift = 1.0

// Options tunes meshing cost against fidelity.
type Options struct {
	// MeshCells is the marching cubes resolution along the longest
	// model axis.
	MeshCells int
	// MaxPointsPerPass subsamples each pass down to this many cutter
	// stamps. Zero keeps every point.
	MaxPointsPerPass int
}

// DefaultOptions balances detail against meshing time for interactive
// use.
func DefaultOptions() Options {
	return Options{MeshCells: 128, MaxPointsPerPass: 400}
}

// Mesh is a flat triangle mesh for the renderer: three floats per
// vertex position and normal, three indices per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) / 3 }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty reports whether the mesh has no geometry.
func (m *Mesh) IsEmpty() bool { return len(m.Vertices) == 0 }

// CarveMesh builds the carved-stock preview for one toolpath. Tools
// are looked up by the pass tool id. An empty toolpath previews the
// untouched blank.
func CarveMesh(stock cam.Stock, tp toolpath.Toolpath, tools map[string]cam.Tool, opts Options) (*Mesh, error) {
	if stock.Width <= 0 || stock.Height <= 0 || stock.Thickness <= 0 {
		return nil, fmt.Errorf("preview: stock %v x %v x %v not positive", stock.Width, stock.Height, stock.Thickness)
	}
	cells := opts.MeshCells
	if cells <= 0 {
		cells = DefaultOptions().MeshCells
	}

	solid, err := carveSolid(stock, tp, tools, opts.MaxPointsPerPass)
	if err != nil {
		return nil, err
	}
	return polygonize(solid, cells), nil
}

// carveSolid is the blank minus the union of every cutter stamp.
func carveSolid(stock cam.Stock, tp toolpath.Toolpath, tools map[string]cam.Tool, maxPoints int) (sdf.SDF3, error) {
	blank := stockSolid(stock)

	var cutters []sdf.SDF3
	for _, pass := range tp.Passes {
		tool, ok := tools[pass.Tool]
		if !ok {
			return nil, fmt.Errorf("preview: pass references unknown tool %q", pass.Tool)
		}
		for _, p := range subsample(pass.Points, maxPoints) {
			if p.Z >= 0 {
				continue
			}
			cutters = append(cutters, cutter(tool, p))
		}
	}
	if len(cutters) == 0 {
		return blank, nil
	}
	return sdf.Difference3D(blank, sdf.Union3D(cutters...)), nil
}

// stockSolid places the blank with its top face at Z zero, matching
// toolpath coordinates where cuts go negative.
func stockSolid(stock cam.Stock) sdf.SDF3 {
	s, err := sdf.Box3D(v3.Vec{X: stock.Width, Y: stock.Height, Z: stock.Thickness}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdf.Box3D: %v", err))
	}
	m := sdf.Translate3d(v3.Vec{
		X: stock.Origin.X + stock.Width/2,
		Y: stock.Origin.Y + stock.Height/2,
		Z: -stock.Thickness / 2,
	})
	return sdf.Transform3D(s, m)
}

// cutter models the material removed by the tool tip parked at one
// toolpath point, extended above the surface so the difference clips
// cleanly. The cut point is below the surface; callers filter the
// rest.
func cutter(tool cam.Tool, p toolpath.Point3) sdf.SDF3 {
	height := cutterLift - p.Z

	var s sdf.SDF3
	var err error
	switch tool.Kind {
	case cam.VBit:
		// Cone tip at the cut point, flanks at the bit's half angle.
		s, err = sdf.Cone3D(height, 0, height*math.Tan(tool.HalfAngle()), 0)
	case cam.Ballnose:
		s, err = ballnose(tool.Radius(), height)
	default:
		s, err = sdf.Cylinder3D(height, tool.Radius(), 0)
	}
	if err != nil {
		panic(fmt.Sprintf("preview cutter for %q: %v", tool.Name, err))
	}

	// Primitives center on the origin; put the bottom at the cut point.
	m := sdf.Translate3d(v3.Vec{X: p.X, Y: p.Y, Z: p.Z + height/2})
	return sdf.Transform3D(s, m)
}

// ballnose is a cylinder with a hemispherical tip, built bottom at
// -height/2 like the other primitives.
func ballnose(radius, height float64) (sdf.SDF3, error) {
	ball, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, err
	}
	// Ball center sits one radius above the tip.
	ball = sdf.Transform3D(ball, sdf.Translate3d(v3.Vec{Z: -height/2 + radius}))

	shaft := height - radius
	if shaft <= 0 {
		return ball, nil
	}
	cyl, err := sdf.Cylinder3D(shaft, radius, 0)
	if err != nil {
		return nil, err
	}
	cyl = sdf.Transform3D(cyl, sdf.Translate3d(v3.Vec{Z: height/2 - shaft/2}))
	return sdf.Union3D(ball, cyl), nil
}

// subsample keeps at most max points of a pass, endpoints included.
func subsample(pts []toolpath.Point3, max int) []toolpath.Point3 {
	if max <= 0 || len(pts) <= max {
		return pts
	}
	if max == 1 {
		return pts[:1]
	}
	out := make([]toolpath.Point3, 0, max)
	step := float64(len(pts)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		out = append(out, pts[int(math.Round(float64(i)*step))])
	}
	return out
}

// polygonize runs marching cubes and flattens the triangles into
// renderer arrays with per-face normals.
func polygonize(s sdf.SDF3, cells int) *Mesh {
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	mesh := &Mesh{
		Vertices: make([]float32, 0, len(triangles)*9),
		Normals:  make([]float32, 0, len(triangles)*9),
		Indices:  make([]uint32, 0, len(triangles)*3),
	}
	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			mesh.Vertices = append(mesh.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			mesh.Normals = append(mesh.Normals, nx, ny, nz)
			mesh.Indices = append(mesh.Indices, uint32(i*3+j))
		}
	}
	return mesh
}
