package cam

import (
	"context"
	"strings"
	"testing"

	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/geom"
)

func rectPath(x, y, w, h float64) curve.BezPath {
	var p curve.BezPath
	p.MoveTo(curve.Pt(x, y))
	p.LineTo(curve.Pt(x+w, y))
	p.LineTo(curve.Pt(x+w, y+h))
	p.LineTo(curve.Pt(x, y+h))
	p.ClosePath()
	return p
}

func newTestDoc(t *testing.T) *Document {
	t.Helper()
	d, err := NewDocument(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDocument: %v", err)
	}
	return d
}

func addRectShape(t *testing.T, d *Document, x, y, w, h float64) geom.Shape {
	t.Helper()
	c := d.AddCurve(rectPath(x, y, w, h))
	s, err := d.AddShape(c.ID)
	if err != nil {
		t.Fatalf("AddShape: %v", err)
	}
	return s
}

func addEndmill(t *testing.T, d *Document, name string, diameter float64) Tool {
	t.Helper()
	tool, err := d.AddTool(Tool{Name: name, Kind: Endmill, Diameter: diameter, Stepover: 0.4, PassDepth: 2})
	if err != nil {
		t.Fatalf("AddTool(%s): %v", name, err)
	}
	return tool
}

func addVBit(t *testing.T, d *Document, included float64) Tool {
	t.Helper()
	tool, err := d.AddTool(Tool{Name: "v-bit", Kind: VBit, Diameter: 12, IncludedAngle: included, Stepover: 0.4, PassDepth: 3})
	if err != nil {
		t.Fatalf("AddTool(v-bit): %v", err)
	}
	return tool
}

func TestNewDocumentRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleSpacing = 0
	if _, err := NewDocument(cfg); err == nil {
		t.Fatal("expected error for zero sample spacing")
	}
	cfg = DefaultConfig()
	cfg.Workers = -1
	if _, err := NewDocument(cfg); err == nil {
		t.Fatal("expected error for negative worker count")
	}
}

func TestAddToolValidates(t *testing.T) {
	tests := []struct {
		name string
		tool Tool
	}{
		{"zero diameter", Tool{Name: "t", Kind: Endmill, Stepover: 0.4, PassDepth: 1}},
		{"stepover above one", Tool{Name: "t", Kind: Endmill, Diameter: 6, Stepover: 1.5, PassDepth: 1}},
		{"zero stepover", Tool{Name: "t", Kind: Endmill, Diameter: 6, PassDepth: 1}},
		{"zero pass depth", Tool{Name: "t", Kind: Endmill, Diameter: 6, Stepover: 0.4}},
		{"v-bit without angle", Tool{Name: "t", Kind: VBit, Diameter: 12, Stepover: 0.4, PassDepth: 1}},
		{"v-bit flat angle", Tool{Name: "t", Kind: VBit, Diameter: 12, IncludedAngle: 180, Stepover: 0.4, PassDepth: 1}},
	}
	d := newTestDoc(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.AddTool(tt.tool); err == nil {
				t.Errorf("AddTool accepted %+v", tt.tool)
			}
		})
	}
}

func TestAddToolAssignsIdentity(t *testing.T) {
	d := newTestDoc(t)
	tool := addEndmill(t, d, "6mm endmill", 6)
	if tool.ID == "" {
		t.Fatal("tool id not assigned")
	}
	if tool.Version != 1 {
		t.Errorf("initial version = %d, want 1", tool.Version)
	}

	if _, err := d.AddTool(Tool{ID: tool.ID, Name: "dup", Kind: Endmill, Diameter: 3, Stepover: 0.4, PassDepth: 1}); err == nil {
		t.Error("expected error re-registering an existing tool id")
	}

	got, err := d.Tool(tool.ID)
	if err != nil {
		t.Fatalf("Tool: %v", err)
	}
	if got.Name != "6mm endmill" || got.Diameter != 6 {
		t.Errorf("stored tool = %+v", got)
	}
}

func TestUpdateToolBumpsVersion(t *testing.T) {
	d := newTestDoc(t)
	tool := addEndmill(t, d, "6mm endmill", 6)

	updated, err := d.UpdateTool(tool.ID, Tool{Name: "8mm endmill", Kind: Endmill, Diameter: 8, Stepover: 0.4, PassDepth: 2})
	if err != nil {
		t.Fatalf("UpdateTool: %v", err)
	}
	if updated.ID != tool.ID {
		t.Errorf("update changed id: %s -> %s", tool.ID, updated.ID)
	}
	if updated.Version != 2 {
		t.Errorf("version = %d, want 2", updated.Version)
	}

	if _, err := d.UpdateTool("missing", updated); err == nil {
		t.Error("expected error updating unknown tool")
	}
}

func TestToolsSorted(t *testing.T) {
	d := newTestDoc(t)
	addEndmill(t, d, "zeta", 6)
	addEndmill(t, d, "alpha", 3)
	addEndmill(t, d, "mid", 4)

	tools := d.Tools()
	if len(tools) != 3 {
		t.Fatalf("got %d tools, want 3", len(tools))
	}
	for i := 1; i < len(tools); i++ {
		if tools[i-1].Name > tools[i].Name {
			t.Errorf("tools out of order: %q before %q", tools[i-1].Name, tools[i].Name)
		}
	}
}

func TestAddShapeRequiresCurves(t *testing.T) {
	d := newTestDoc(t)
	c := d.AddCurve(rectPath(0, 0, 10, 10))

	if _, err := d.AddShape("missing"); err == nil {
		t.Error("expected error for unknown outer curve")
	}
	if _, err := d.AddShape(c.ID, "missing-hole"); err == nil {
		t.Error("expected error for unknown hole curve")
	}
	if _, err := d.AddShape(c.ID); err != nil {
		t.Errorf("AddShape with valid curve: %v", err)
	}
}

func TestAddOperationValidatesReferences(t *testing.T) {
	d := newTestDoc(t)
	shape := addRectShape(t, d, 0, 0, 20, 20)
	tool := addEndmill(t, d, "6mm endmill", 6)
	vbit := addVBit(t, d, 90)

	tests := []struct {
		name string
		op   Operation
		want string
	}{
		{
			"no shapes",
			Operation{Name: "p", Kind: Profile, Tool: tool.ID, Params: ProfileParams{Side: Outside, TargetDepth: 2}},
			"no shapes",
		},
		{
			"unknown shape",
			Operation{Name: "p", Kind: Profile, Shapes: []geom.ShapeID{"missing"}, Tool: tool.ID, Params: ProfileParams{Side: Outside, TargetDepth: 2}},
			"shape",
		},
		{
			"unknown tool",
			Operation{Name: "p", Kind: Profile, Shapes: []geom.ShapeID{shape.ID}, Tool: "missing", Params: ProfileParams{Side: Outside, TargetDepth: 2}},
			"tool",
		},
		{
			"unknown clearance tool",
			Operation{Name: "v", Kind: VCarve, Shapes: []geom.ShapeID{shape.ID}, Tool: vbit.ID, Params: VCarveParams{MaxDepth: 2, ClearanceTool: "missing"}},
			"clearance tool",
		},
		{
			"params kind mismatch",
			Operation{Name: "p", Kind: Profile, Shapes: []geom.ShapeID{shape.ID}, Tool: tool.ID, Params: PocketParams{TargetDepth: 2}},
			"ProfileParams",
		},
		{
			"nil params",
			Operation{Name: "p", Kind: Pocket, Shapes: []geom.ShapeID{shape.ID}, Tool: tool.ID},
			"PocketParams",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.AddOperation(tt.op)
			if err == nil {
				t.Fatalf("AddOperation accepted %+v", tt.op)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}

	op, err := d.AddOperation(Operation{
		Name: "outline", Kind: Profile,
		Shapes: []geom.ShapeID{shape.ID}, Tool: tool.ID,
		Params: ProfileParams{Side: Outside, TargetDepth: 2},
	})
	if err != nil {
		t.Fatalf("valid AddOperation: %v", err)
	}
	if op.ID == "" || op.Version != 1 {
		t.Errorf("operation identity not assigned: %+v", op)
	}
}

func TestOperationsSortedByName(t *testing.T) {
	d := newTestDoc(t)
	shape := addRectShape(t, d, 0, 0, 20, 20)
	tool := addEndmill(t, d, "6mm endmill", 6)

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		if _, err := d.AddOperation(Operation{
			Name: name, Kind: Profile,
			Shapes: []geom.ShapeID{shape.ID}, Tool: tool.ID,
			Params: ProfileParams{Side: OnLine, TargetDepth: 1},
		}); err != nil {
			t.Fatalf("AddOperation(%s): %v", name, err)
		}
	}

	ops := d.Operations()
	got := make([]string, len(ops))
	for i, op := range ops {
		got[i] = op.Name
	}
	want := []string{"alpha", "bravo", "charlie"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("operation order = %v, want %v", got, want)
		}
	}
}

func TestNewOperationStartsDirty(t *testing.T) {
	d := newTestDoc(t)
	shape := addRectShape(t, d, 0, 0, 20, 20)
	tool := addEndmill(t, d, "6mm endmill", 6)
	op, err := d.AddOperation(Operation{
		Name: "outline", Kind: Profile,
		Shapes: []geom.ShapeID{shape.ID}, Tool: tool.ID,
		Params: ProfileParams{Side: Outside, TargetDepth: 2},
	})
	if err != nil {
		t.Fatalf("AddOperation: %v", err)
	}

	status, err := d.Status(op.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status != StatusDirty {
		t.Errorf("status = %v, want dirty", status)
	}
	if _, ok := d.Toolpath(op.ID); ok {
		t.Error("fresh operation should have no toolpath")
	}
	if _, err := d.Status("missing"); err == nil {
		t.Error("expected error for unknown operation")
	}
}

// The dependency hash covers exactly the inputs that shape the
// artifact: a rename must not invalidate, a parameter or dependency
// version change must.
func TestDepHashTracksArtifactInputs(t *testing.T) {
	d := newTestDoc(t)
	shape := addRectShape(t, d, 0, 0, 20, 20)
	tool := addEndmill(t, d, "6mm endmill", 6)
	op, err := d.AddOperation(Operation{
		Name: "outline", Kind: Profile,
		Shapes: []geom.ShapeID{shape.ID}, Tool: tool.ID,
		Params: ProfileParams{Side: Outside, TargetDepth: 2},
	})
	if err != nil {
		t.Fatalf("AddOperation: %v", err)
	}

	hash := func() uint64 {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.depHashLocked(d.ops[op.ID])
	}

	base := hash()
	if hash() != base {
		t.Fatal("hash not stable across calls")
	}

	renamed := op
	renamed.Name = "renamed"
	if _, err := d.UpdateOperation(op.ID, renamed); err != nil {
		t.Fatalf("UpdateOperation: %v", err)
	}
	if hash() != base {
		t.Error("rename changed the dependency hash")
	}

	deeper := renamed
	deeper.Params = ProfileParams{Side: Outside, TargetDepth: 3}
	if _, err := d.UpdateOperation(op.ID, deeper); err != nil {
		t.Fatalf("UpdateOperation: %v", err)
	}
	afterParams := hash()
	if afterParams == base {
		t.Error("parameter change left the dependency hash unchanged")
	}

	if _, err := d.UpdateTool(tool.ID, Tool{Name: "8mm endmill", Kind: Endmill, Diameter: 8, Stepover: 0.4, PassDepth: 2}); err != nil {
		t.Fatalf("UpdateTool: %v", err)
	}
	afterTool := hash()
	if afterTool == afterParams {
		t.Error("tool update left the dependency hash unchanged")
	}

	if err := d.SetCurveTransform(shape.Outer, curve.Translate(curve.Vec2{X: 1})); err != nil {
		t.Fatalf("SetCurveTransform: %v", err)
	}
	afterCurve := hash()
	if afterCurve == afterTool {
		t.Error("curve transform left the dependency hash unchanged")
	}

	d.SetStock(Stock{Width: 100, Height: 100, Thickness: 12})
	if hash() == afterCurve {
		t.Error("stock change left the dependency hash unchanged")
	}
}

func TestClearCancelsInFlight(t *testing.T) {
	d := newTestDoc(t)
	shape := addRectShape(t, d, 0, 0, 20, 20)
	tool := addEndmill(t, d, "6mm endmill", 6)
	op, err := d.AddOperation(Operation{
		Name: "outline", Kind: Profile,
		Shapes: []geom.ShapeID{shape.ID}, Tool: tool.ID,
		Params: ProfileParams{Side: Outside, TargetDepth: 2},
	})
	if err != nil {
		t.Fatalf("AddOperation: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.running[op.ID] = cancel
	d.mu.Unlock()

	if err := d.Clear(op.ID); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if ctx.Err() == nil {
		t.Error("Clear did not cancel the in-flight generation")
	}
	if err := d.Clear("missing"); err == nil {
		t.Error("expected error clearing unknown operation")
	}
}

func TestRemoveOperationDropsState(t *testing.T) {
	d := newTestDoc(t)
	shape := addRectShape(t, d, 0, 0, 20, 20)
	tool := addEndmill(t, d, "6mm endmill", 6)
	op, err := d.AddOperation(Operation{
		Name: "outline", Kind: Profile,
		Shapes: []geom.ShapeID{shape.ID}, Tool: tool.ID,
		Params: ProfileParams{Side: Outside, TargetDepth: 2},
	})
	if err != nil {
		t.Fatalf("AddOperation: %v", err)
	}

	if _, err := d.GenerateAll(context.Background()); err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if err := d.RemoveOperation(op.ID); err != nil {
		t.Fatalf("RemoveOperation: %v", err)
	}
	if _, err := d.Operation(op.ID); err == nil {
		t.Error("operation still retrievable after removal")
	}
	if _, ok := d.Toolpath(op.ID); ok {
		t.Error("toolpath survived operation removal")
	}
	if err := d.RemoveOperation(op.ID); err == nil {
		t.Error("expected error removing twice")
	}
}
