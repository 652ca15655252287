package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/cam"
	"github.com/kerfcam/kerf/pkg/geom"
	"github.com/kerfcam/kerf/pkg/preview"
	"github.com/kerfcam/kerf/pkg/toolpath"
)

var (
	jsonOut      bool
	withPreview  bool
	previewCells int
)

var scenes = map[string]func() (*cam.Document, error){
	"profile":       profileScene,
	"pocket":        pocketScene,
	"pocket-island": pocketIslandScene,
	"vcarve":        vcarveScene,
}

var demoCmd = &cobra.Command{
	Use:   "demo {profile|pocket|pocket-island|vcarve}",
	Short: "Generate a built-in demo scene and report the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		build, ok := scenes[args[0]]
		if !ok {
			return fmt.Errorf("unknown scene %q, pick one of %s", args[0], strings.Join(sceneNames(), ", "))
		}
		doc, err := build()
		if err != nil {
			return err
		}
		reports, err := doc.GenerateAll(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOut {
			return dumpJSON(out, doc, reports)
		}
		st := doc.Stock()
		fmt.Fprintf(out, "stock %g x %g x %g mm %s\n", st.Width, st.Height, st.Thickness, st.Material)
		printReports(out, reports)
		if withPreview {
			return printPreview(out, doc)
		}
		return nil
	},
}

func init() {
	demoCmd.Flags().BoolVar(&jsonOut, "json", false, "dump toolpath records as JSON instead of the summary")
	demoCmd.Flags().BoolVar(&withPreview, "preview", false, "carve the stock mesh and report its statistics")
	demoCmd.Flags().IntVar(&previewCells, "cells", 96, "preview grid resolution along the longest stock axis")
	rootCmd.AddCommand(demoCmd)
}

func sceneNames() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func printReports(w io.Writer, reports []cam.Report) {
	for _, r := range reports {
		fmt.Fprintf(w, "%-20s %-20s %4d passes %6d points\n", r.Name, r.Status, r.Passes, r.Points)
		if r.Error != "" {
			fmt.Fprintf(w, "    error (%s): %s\n", r.Failure, r.Error)
		}
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "    warning %s\n", warn)
		}
	}
}

type toolpathRecord struct {
	Operation string             `json:"operation"`
	Status    string             `json:"status"`
	Toolpath  *toolpath.Toolpath `json:"toolpath,omitempty"`
}

func dumpJSON(w io.Writer, doc *cam.Document, reports []cam.Report) error {
	records := make([]toolpathRecord, 0, len(reports))
	for _, r := range reports {
		rec := toolpathRecord{Operation: r.Name, Status: r.Status.String()}
		if tp, ok := doc.Toolpath(r.Operation); ok {
			rec.Toolpath = &tp
		}
		records = append(records, rec)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// printPreview carves every generated pass out of one shared blank, the
// way the cuts land on the physical stock.
func printPreview(w io.Writer, doc *cam.Document) error {
	tools := make(map[string]cam.Tool)
	for _, t := range doc.Tools() {
		tools[string(t.ID)] = t
	}
	var merged toolpath.Toolpath
	for _, op := range doc.Operations() {
		if tp, ok := doc.Toolpath(op.ID); ok {
			merged.Passes = append(merged.Passes, tp.Passes...)
		}
	}
	opts := preview.DefaultOptions()
	opts.MeshCells = previewCells
	mesh, err := preview.CarveMesh(doc.Stock(), merged, tools, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "preview mesh %d vertices %d triangles\n", mesh.VertexCount(), mesh.TriangleCount())
	return nil
}

// ---------------------------------------------------------------------------
// Demo scenes

func rectCurve(doc *cam.Document, x, y, w, h float64) geom.Curve {
	var p curve.BezPath
	p.MoveTo(curve.Pt(x, y))
	p.LineTo(curve.Pt(x+w, y))
	p.LineTo(curve.Pt(x+w, y+h))
	p.LineTo(curve.Pt(x, y+h))
	p.ClosePath()
	return doc.AddCurve(p)
}

// profileScene cuts a plaque with an arched top out of the full stock
// thickness. The arch exercises bezier flattening.
func profileScene() (*cam.Document, error) {
	doc, err := cam.NewDocument(cam.DefaultConfig())
	if err != nil {
		return nil, err
	}
	doc.SetStock(cam.Stock{Width: 100, Height: 80, Thickness: 8, Material: "birch ply"})

	var p curve.BezPath
	p.MoveTo(curve.Pt(10, 10))
	p.LineTo(curve.Pt(90, 10))
	p.LineTo(curve.Pt(90, 50))
	p.CubicTo(curve.Pt(90, 68), curve.Pt(10, 68), curve.Pt(10, 50))
	p.ClosePath()
	outline := doc.AddCurve(p)

	shape, err := doc.AddShape(outline.ID)
	if err != nil {
		return nil, err
	}
	tool, err := doc.AddTool(cam.Tool{Name: "6mm endmill", Kind: cam.Endmill, Diameter: 6, Stepover: 0.45, PassDepth: 2.5})
	if err != nil {
		return nil, err
	}
	_, err = doc.AddOperation(cam.Operation{
		Name:   "plaque outline",
		Kind:   cam.Profile,
		Shapes: []geom.ShapeID{shape.ID},
		Tool:   tool.ID,
		Params: cam.ProfileParams{Side: cam.Outside, TargetDepth: 8},
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// pocketScene clears a rectangular tray cavity.
func pocketScene() (*cam.Document, error) {
	doc, err := cam.NewDocument(cam.DefaultConfig())
	if err != nil {
		return nil, err
	}
	doc.SetStock(cam.Stock{Width: 100, Height: 80, Thickness: 10, Material: "beech"})

	cavity := rectCurve(doc, 20, 20, 60, 40)
	shape, err := doc.AddShape(cavity.ID)
	if err != nil {
		return nil, err
	}
	tool, err := doc.AddTool(cam.Tool{Name: "6mm endmill", Kind: cam.Endmill, Diameter: 6, Stepover: 0.4, PassDepth: 2})
	if err != nil {
		return nil, err
	}
	_, err = doc.AddOperation(cam.Operation{
		Name:   "tray cavity",
		Kind:   cam.Pocket,
		Shapes: []geom.ShapeID{shape.ID},
		Tool:   tool.ID,
		Params: cam.PocketParams{TargetDepth: 4},
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// pocketIslandScene clears the same cavity around a standing island.
func pocketIslandScene() (*cam.Document, error) {
	doc, err := cam.NewDocument(cam.DefaultConfig())
	if err != nil {
		return nil, err
	}
	doc.SetStock(cam.Stock{Width: 100, Height: 80, Thickness: 10, Material: "beech"})

	cavity := rectCurve(doc, 20, 20, 60, 40)
	island := rectCurve(doc, 44, 36, 12, 8)
	shape, err := doc.AddShape(cavity.ID, island.ID)
	if err != nil {
		return nil, err
	}
	tool, err := doc.AddTool(cam.Tool{Name: "6mm endmill", Kind: cam.Endmill, Diameter: 6, Stepover: 0.4, PassDepth: 2})
	if err != nil {
		return nil, err
	}
	_, err = doc.AddOperation(cam.Operation{
		Name:   "island pocket",
		Kind:   cam.Pocket,
		Shapes: []geom.ShapeID{shape.ID},
		Tool:   tool.ID,
		Params: cam.PocketParams{TargetDepth: 3},
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// vcarveScene carves a rhombus deep enough to hit the depth clamp, with
// an endmill clearing the flat floor the clamp leaves behind.
func vcarveScene() (*cam.Document, error) {
	doc, err := cam.NewDocument(cam.DefaultConfig())
	if err != nil {
		return nil, err
	}
	doc.SetStock(cam.Stock{Width: 100, Height: 40, Thickness: 12, Material: "walnut"})

	var p curve.BezPath
	p.MoveTo(curve.Pt(50, 5))
	p.LineTo(curve.Pt(85, 20))
	p.LineTo(curve.Pt(50, 35))
	p.LineTo(curve.Pt(15, 20))
	p.ClosePath()
	rhombus := doc.AddCurve(p)

	shape, err := doc.AddShape(rhombus.ID)
	if err != nil {
		return nil, err
	}
	vbit, err := doc.AddTool(cam.Tool{Name: "90deg v-bit", Kind: cam.VBit, Diameter: 12, IncludedAngle: 90, Stepover: 0.4, PassDepth: 3})
	if err != nil {
		return nil, err
	}
	clearance, err := doc.AddTool(cam.Tool{Name: "6mm endmill", Kind: cam.Endmill, Diameter: 6, Stepover: 0.4, PassDepth: 2})
	if err != nil {
		return nil, err
	}
	_, err = doc.AddOperation(cam.Operation{
		Name:   "rhombus carve",
		Kind:   cam.VCarve,
		Shapes: []geom.ShapeID{shape.ID},
		Tool:   vbit.ID,
		Params: cam.VCarveParams{MaxDepth: 3, ClearanceTool: clearance.ID},
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
