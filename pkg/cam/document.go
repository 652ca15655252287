// Package cam tracks curves, shapes, tools, and operations in one
// document and regenerates toolpaths when their inputs change.
//
// Staleness is decided by content, not by events: every operation's
// inputs hash into a dependency hash, an operation is Dirty exactly
// when its stored hash no longer matches, and a generated result is
// committed only if the hash it was computed from is still current.
// Mutating any input mid-generation therefore cancels and discards the
// in-flight result instead of publishing a toolpath of a state that no
// longer exists.
package cam

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"honnef.co/go/curve"

	"github.com/kerfcam/kerf/pkg/geom"
	"github.com/kerfcam/kerf/pkg/medial"
	"github.com/kerfcam/kerf/pkg/toolpath"
)

// Document is the operation graph: entity registries, dependency
// versions, and per-operation generation state. Safe for concurrent
// use; accessors return value copies.
type Document struct {
	mu     sync.Mutex
	config Config

	curves map[geom.CurveID]*geom.Curve
	shapes map[geom.ShapeID]*geom.Shape
	tools  map[ToolID]*Tool
	ops    map[OperationID]*Operation

	stock        Stock
	stockVersion uint64

	states  map[OperationID]*opState
	running map[OperationID]context.CancelFunc
	gen     uint64
}

// opState is the committed outcome of one generation run.
type opState struct {
	hash      uint64
	status    Status
	toolpath  *toolpath.Toolpath
	failure   FailureKind
	err       error
	skeletons []*medial.Skeleton
	carves    []medial.CarveResult
}

// NewDocument creates an empty document with the given configuration.
func NewDocument(cfg Config) (*Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Document{
		config:  cfg,
		curves:  make(map[geom.CurveID]*geom.Curve),
		shapes:  make(map[geom.ShapeID]*geom.Shape),
		tools:   make(map[ToolID]*Tool),
		ops:     make(map[OperationID]*Operation),
		states:  make(map[OperationID]*opState),
		running: make(map[OperationID]context.CancelFunc),
	}, nil
}

// Config returns the document configuration.
func (d *Document) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.config
}

// ---------------------------------------------------------------------------
// Curves and shapes

// AddCurve registers a closed path and returns the stored record.
func (d *Document) AddCurve(path curve.BezPath) geom.Curve {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := geom.NewCurve(path)
	d.curves[c.ID] = c
	return *c
}

// Curve returns a curve by id.
func (d *Document) Curve(id geom.CurveID) (geom.Curve, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.curves[id]
	if !ok {
		return geom.Curve{}, fmt.Errorf("curve %q not found", id)
	}
	return *c, nil
}

// SetCurveTransform replaces a curve's placement. The placement is
// part of curve identity, so dependents go Dirty.
func (d *Document) SetCurveTransform(id geom.CurveID, tf curve.Affine) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.curves[id]
	if !ok {
		return fmt.Errorf("curve %q not found", id)
	}
	c.Transform = tf
	c.Version++
	d.cancelAffectedLocked(func(op *Operation) bool { return d.opUsesCurveLocked(op, id) })
	return nil
}

// ReplaceCurvePath swaps a curve's geometry for a new path.
func (d *Document) ReplaceCurvePath(id geom.CurveID, path curve.BezPath) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.curves[id]
	if !ok {
		return fmt.Errorf("curve %q not found", id)
	}
	c.Path = path
	c.Version++
	d.cancelAffectedLocked(func(op *Operation) bool { return d.opUsesCurveLocked(op, id) })
	return nil
}

// AddShape groups an outer curve with hole curves.
func (d *Document) AddShape(outer geom.CurveID, holes ...geom.CurveID) (geom.Shape, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.curves[outer]; !ok {
		return geom.Shape{}, fmt.Errorf("outer curve %q not found", outer)
	}
	for _, h := range holes {
		if _, ok := d.curves[h]; !ok {
			return geom.Shape{}, fmt.Errorf("hole curve %q not found", h)
		}
	}
	s := geom.NewShape(outer, holes...)
	d.shapes[s.ID] = s
	return *s, nil
}

// Shape returns a shape by id.
func (d *Document) Shape(id geom.ShapeID) (geom.Shape, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.shapes[id]
	if !ok {
		return geom.Shape{}, fmt.Errorf("shape %q not found", id)
	}
	return *s, nil
}

// ---------------------------------------------------------------------------
// Tools and stock

// AddTool validates and registers a tool. A missing id is filled in.
func (d *Document) AddTool(t Tool) (Tool, error) {
	if err := t.Validate(); err != nil {
		return Tool{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if t.ID == "" {
		t.ID = NewToolID()
	}
	if _, exists := d.tools[t.ID]; exists {
		return Tool{}, fmt.Errorf("tool %q already registered", t.ID)
	}
	t.Version = 1
	d.tools[t.ID] = &t
	return t, nil
}

// UpdateTool replaces a tool definition, keeping its id and bumping
// its version. Every operation cutting with the tool goes Dirty.
func (d *Document) UpdateTool(id ToolID, t Tool) (Tool, error) {
	if err := t.Validate(); err != nil {
		return Tool{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	old, ok := d.tools[id]
	if !ok {
		return Tool{}, fmt.Errorf("tool %q not found", id)
	}
	t.ID = id
	t.Version = old.Version + 1
	d.tools[id] = &t
	d.cancelAffectedLocked(func(op *Operation) bool {
		return op.Tool == id || op.clearanceTool() == id
	})
	return t, nil
}

// Tool returns a tool by id.
func (d *Document) Tool(id ToolID) (Tool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tools[id]
	if !ok {
		return Tool{}, fmt.Errorf("tool %q not found", id)
	}
	return *t, nil
}

// Tools returns all tools, ordered by name then id.
func (d *Document) Tools() []Tool {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Tool, 0, len(d.tools))
	for _, t := range d.tools {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SetStock replaces the stock record. Every operation goes Dirty: the
// stock-depth check is part of each artifact.
func (d *Document) SetStock(s Stock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stock = s
	d.stockVersion++
	d.cancelAffectedLocked(func(*Operation) bool { return true })
}

// Stock returns the current stock record.
func (d *Document) Stock() Stock {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stock
}

// ---------------------------------------------------------------------------
// Operations

// AddOperation validates references and registers an operation. A
// missing id is filled in. Operations start Dirty.
func (d *Document) AddOperation(op Operation) (Operation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.validateOperationLocked(&op); err != nil {
		return Operation{}, err
	}
	if op.ID == "" {
		op.ID = NewOperationID()
	}
	if _, exists := d.ops[op.ID]; exists {
		return Operation{}, fmt.Errorf("operation %q already registered", op.ID)
	}
	op.Version = 1
	d.ops[op.ID] = &op
	return op, nil
}

// UpdateOperation replaces an operation, keeping its id and bumping
// its version.
func (d *Document) UpdateOperation(id OperationID, op Operation) (Operation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	old, ok := d.ops[id]
	if !ok {
		return Operation{}, fmt.Errorf("operation %q not found", id)
	}
	if err := d.validateOperationLocked(&op); err != nil {
		return Operation{}, err
	}
	op.ID = id
	op.Version = old.Version + 1
	d.ops[id] = &op
	if cancel, running := d.running[id]; running {
		cancel()
	}
	return op, nil
}

// RemoveOperation deletes an operation and its state.
func (d *Document) RemoveOperation(id OperationID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.ops[id]; !ok {
		return fmt.Errorf("operation %q not found", id)
	}
	if cancel, running := d.running[id]; running {
		cancel()
	}
	delete(d.ops, id)
	delete(d.states, id)
	return nil
}

// Operation returns an operation by id.
func (d *Document) Operation(id OperationID) (Operation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	op, ok := d.ops[id]
	if !ok {
		return Operation{}, fmt.Errorf("operation %q not found", id)
	}
	return *op, nil
}

// Operations returns all operations, ordered by name then id.
func (d *Document) Operations() []Operation {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Operation, 0, len(d.ops))
	for _, op := range d.ops {
		out = append(out, *op)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (d *Document) validateOperationLocked(op *Operation) error {
	if len(op.Shapes) == 0 {
		return fmt.Errorf("operation %q references no shapes", op.Name)
	}
	for _, sid := range op.Shapes {
		if _, ok := d.shapes[sid]; !ok {
			return fmt.Errorf("operation %q: shape %q not found", op.Name, sid)
		}
	}
	if _, ok := d.tools[op.Tool]; !ok {
		return fmt.Errorf("operation %q: tool %q not found", op.Name, op.Tool)
	}
	if cid := op.clearanceTool(); cid != "" {
		if _, ok := d.tools[cid]; !ok {
			return fmt.Errorf("operation %q: clearance tool %q not found", op.Name, cid)
		}
	}
	switch op.Kind {
	case Profile:
		if _, ok := op.Params.(ProfileParams); !ok {
			return fmt.Errorf("operation %q: profile needs ProfileParams, got %T", op.Name, op.Params)
		}
	case Pocket:
		if _, ok := op.Params.(PocketParams); !ok {
			return fmt.Errorf("operation %q: pocket needs PocketParams, got %T", op.Name, op.Params)
		}
	case VCarve:
		if _, ok := op.Params.(VCarveParams); !ok {
			return fmt.Errorf("operation %q: v-carve needs VCarveParams, got %T", op.Name, op.Params)
		}
	default:
		return fmt.Errorf("operation %q: unknown kind %d", op.Name, op.Kind)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Status and artifacts

// Status reports the operation's lifecycle state. An operation whose
// dependency hash no longer matches its stored state is Dirty no
// matter what was generated before.
func (d *Document) Status(id OperationID) (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	op, ok := d.ops[id]
	if !ok {
		return StatusDirty, fmt.Errorf("operation %q not found", id)
	}
	return d.statusLocked(op), nil
}

func (d *Document) statusLocked(op *Operation) Status {
	st := d.states[op.ID]
	if st == nil || st.hash != d.depHashLocked(op) {
		return StatusDirty
	}
	return st.status
}

// Toolpath returns the stored toolpath of a Ready operation.
func (d *Document) Toolpath(id OperationID) (toolpath.Toolpath, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.states[id]
	if st == nil || st.toolpath == nil {
		return toolpath.Toolpath{}, false
	}
	return *st.toolpath, true
}

// Warnings returns the warnings attached at the last generation.
func (d *Document) Warnings(id OperationID) []toolpath.Warning {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.states[id]
	if st == nil || st.toolpath == nil {
		return nil
	}
	return st.toolpath.Warnings
}

// Failure returns why an operation is Invalid, FailureNone otherwise.
func (d *Document) Failure(id OperationID) (FailureKind, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.states[id]
	if st == nil || st.err == nil {
		return FailureNone, ""
	}
	return st.failure, st.err.Error()
}

// Skeletons returns the medial-axis skeletons of a generated v-carve
// operation, one per shape, for diagnostic inspection.
func (d *Document) Skeletons(id OperationID) []*medial.Skeleton {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.states[id]
	if st == nil {
		return nil
	}
	return st.skeletons
}

// CarvePaths returns the carve stage output of a generated v-carve
// operation, one result per shape.
func (d *Document) CarvePaths(id OperationID) []medial.CarveResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.states[id]
	if st == nil {
		return nil
	}
	return st.carves
}

// Clear discards an operation's toolpath and returns it to Dirty
// without running the pipeline.
func (d *Document) Clear(id OperationID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.ops[id]; !ok {
		return fmt.Errorf("operation %q not found", id)
	}
	if cancel, running := d.running[id]; running {
		cancel()
	}
	delete(d.states, id)
	return nil
}

// ---------------------------------------------------------------------------
// Dirty cascade

// cancelAffectedLocked cancels in-flight generations whose inputs just
// changed. Their results fail the hash recheck at commit anyway; the
// cancel stops them from burning the pool on a dead computation.
func (d *Document) cancelAffectedLocked(affects func(*Operation) bool) {
	for id, cancel := range d.running {
		if op := d.ops[id]; op != nil && affects(op) {
			cancel()
		}
	}
}

func (d *Document) opUsesCurveLocked(op *Operation, id geom.CurveID) bool {
	for _, sid := range op.Shapes {
		s := d.shapes[sid]
		if s == nil {
			continue
		}
		if s.Outer == id {
			return true
		}
		for _, h := range s.Holes {
			if h == id {
				return true
			}
		}
	}
	return false
}
