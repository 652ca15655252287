package cam

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kerfcam/kerf/pkg/geom"
	"github.com/kerfcam/kerf/pkg/medial"
	"github.com/kerfcam/kerf/pkg/toolpath"
)

// Report summarizes one operation's outcome of a GenerateAll run.
type Report struct {
	Operation OperationID
	Name      string
	Status    Status
	Warnings  []toolpath.Warning
	Failure   FailureKind
	Error     string
	Passes    int
	Points    int
	// Stale marks a result discarded because its inputs changed while
	// it was being computed; the operation stays Dirty.
	Stale bool
}

// snapshot carries value copies of everything one generation run
// needs, so workers never read live document state.
type snapshot struct {
	op     Operation
	hash   uint64
	gen    uint64
	tool   Tool
	clear  *Tool
	shapes []shapeSnapshot
	stock  Stock
	config Config
}

type shapeSnapshot struct {
	outer geom.Curve
	holes []geom.Curve
}

// result is what a worker hands back to the coordinator.
type result struct {
	id        OperationID
	hash      uint64
	gen       uint64
	tp        *toolpath.Toolpath
	skeletons []*medial.Skeleton
	carves    []medial.CarveResult
	err       error
}

// GenerateAll regenerates every Dirty operation and returns one report
// per operation, ordered by name then id. Operations whose stored hash
// still matches are reported as-is without recomputation. A failing
// operation never aborts its siblings.
//
// Results are committed only if the dependency hash they were computed
// from is still current and no newer GenerateAll has started; anything
// else is discarded and the operation stays Dirty.
func (d *Document) GenerateAll(ctx context.Context) ([]Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.gen++
	gen := d.gen
	cfg := d.config

	ids := make([]OperationID, 0, len(d.ops))
	for id := range d.ops {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var snaps []snapshot
	reportByID := make(map[OperationID]*Report, len(d.ops))
	for _, id := range ids {
		op := d.ops[id]
		r := &Report{Operation: id, Name: op.Name}
		reportByID[id] = r
		if st := d.states[id]; st != nil && st.hash == d.depHashLocked(op) {
			r.Status = st.status
			r.Failure = st.failure
			if st.err != nil {
				r.Error = st.err.Error()
			}
			if st.toolpath != nil {
				r.Warnings = st.toolpath.Warnings
				r.Passes = len(st.toolpath.Passes)
				r.Points = st.toolpath.PointCount()
			}
			continue
		}
		snaps = append(snaps, d.snapshotLocked(op, gen))
	}
	d.mu.Unlock()

	if len(snaps) > 0 {
		d.runPool(ctx, cfg, snaps, reportByID)
	}

	reports := make([]Report, 0, len(reportByID))
	for _, r := range reportByID {
		reports = append(reports, *r)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Name != reports[j].Name {
			return reports[i].Name < reports[j].Name
		}
		return reports[i].Operation < reports[j].Operation
	})
	return reports, ctx.Err()
}

// snapshotLocked copies one operation's full input closure. Referenced
// tools, shapes, and curves are guaranteed present by operation
// validation, and nothing is ever removed from under an operation.
func (d *Document) snapshotLocked(op *Operation, gen uint64) snapshot {
	snap := snapshot{
		op:     *op,
		hash:   d.depHashLocked(op),
		gen:    gen,
		tool:   *d.tools[op.Tool],
		stock:  d.stock,
		config: d.config,
	}
	if cid := op.clearanceTool(); cid != "" {
		ct := *d.tools[cid]
		snap.clear = &ct
	}
	for _, sid := range op.Shapes {
		s := d.shapes[sid]
		ss := shapeSnapshot{outer: *d.curves[s.Outer]}
		for _, h := range s.Holes {
			ss.holes = append(ss.holes, *d.curves[h])
		}
		snap.shapes = append(snap.shapes, ss)
	}
	return snap
}

// runPool fans the snapshots out over a bounded worker pool and
// commits results as they arrive. The coordinator loop is the only
// writer of generation state.
func (d *Document) runPool(ctx context.Context, cfg Config, snaps []snapshot, reportByID map[OperationID]*Report) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	results := make(chan result, len(snaps))

	d.mu.Lock()
	ctxs := make([]context.Context, len(snaps))
	for i, snap := range snaps {
		opCtx, cancel := context.WithCancel(gctx)
		d.running[snap.op.ID] = cancel
		ctxs[i] = opCtx
	}
	d.mu.Unlock()

	for i := range snaps {
		snap, opCtx := snaps[i], ctxs[i]
		g.Go(func() error {
			results <- generateOne(opCtx, snap)
			return nil
		})
	}
	go func() {
		g.Wait()
		close(results)
	}()

	for res := range results {
		d.commit(res, reportByID[res.id])
	}
}

// commit stores one worker result if it is still current. Stale
// results leave the operation Dirty; the next GenerateAll recomputes
// it from fresh inputs.
func (d *Document) commit(res result, report *Report) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if res.gen == d.gen {
		delete(d.running, res.id)
	}

	op, exists := d.ops[res.id]
	stale := !exists || res.gen != d.gen || d.depHashLocked(op) != res.hash ||
		errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded)
	if stale {
		Logger().Warn("discarding stale result", "operation", res.id)
		report.Status = StatusDirty
		report.Stale = true
		return
	}

	st := &opState{hash: res.hash}
	if res.err != nil {
		st.status = StatusInvalid
		st.failure = Classify(res.err)
		st.err = res.err
	} else {
		st.toolpath = res.tp
		st.skeletons = res.skeletons
		st.carves = res.carves
		st.status = StatusReady
		if len(res.tp.Warnings) > 0 {
			st.status = StatusReadyWarnings
		}
	}
	d.states[res.id] = st

	report.Status = st.status
	report.Failure = st.failure
	if st.err != nil {
		report.Error = st.err.Error()
	}
	if st.toolpath != nil {
		report.Warnings = st.toolpath.Warnings
		report.Passes = len(st.toolpath.Passes)
		report.Points = st.toolpath.PointCount()
	}
}
