package cam

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// depHashLocked computes the dependency hash of an operation: every
// input whose change must invalidate the stored toolpath feeds the
// sum. Caller holds the document lock.
func (d *Document) depHashLocked(op *Operation) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	u64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	f64 := func(v float64) { u64(math.Float64bits(v)) }
	str := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	u64(uint64(op.Kind))
	str(string(op.Tool))
	if t := d.tools[op.Tool]; t != nil {
		u64(t.Version)
	}
	if cid := op.clearanceTool(); cid != "" {
		str(string(cid))
		if t := d.tools[cid]; t != nil {
			u64(t.Version)
		}
	}
	for _, sid := range op.Shapes {
		str(string(sid))
		s := d.shapes[sid]
		if s == nil {
			continue
		}
		u64(s.Version)
		str(string(s.Outer))
		if c := d.curves[s.Outer]; c != nil {
			u64(c.Version)
		}
		for _, hid := range s.Holes {
			str(string(hid))
			if c := d.curves[hid]; c != nil {
				u64(c.Version)
			}
		}
	}

	switch p := op.Params.(type) {
	case ProfileParams:
		u64(uint64(p.Side))
		f64(p.TargetDepth)
	case PocketParams:
		f64(p.TargetDepth)
	case VCarveParams:
		f64(p.MaxDepth)
	}

	// The stock-depth warning is part of the artifact.
	u64(d.stockVersion)
	return h.Sum64()
}
