package interp

import "golang.org/x/sync/singleflight"

// handleColour is the mark-and-sweep cookie of §4.4: colourWhite means
// "not yet proven reachable this pass", colourBlack means "reached".
// The colour is only the mark bit; cycles are broken by the separate
// per-pass `seen` set that Collect hands to markValue.
type handleColour int

const (
	colourWhite handleColour = iota
	colourBlack
)

// Handle is a heap-resident value behind a NAME, the unit of GC
// bookkeeping described in §3/§4.4. owner/escaped support the
// preemptive sweep: a handle owned by a frame (a LOC generator or a
// variable declared in it) is reclaimed when that frame closes unless
// it has already escaped (been stored into a name with an outward
// scope). HEAP handles carry owner -1 and are left to Collect.
type Handle struct {
	id      int
	Data    Value
	size    int
	colour  handleColour
	owner   int // owning frame's id
	escaped bool
}

// GCStats mirrors the bookkeeping a 68g-style collector reports after a
// run: how many handles were swept, preemptively reclaimed at frame
// close, and how many survive.
type GCStats struct {
	Collections int
	Swept       int
	Preempted   int
	Busy        int
}

// Collector is the generator+GC component of §4.4. Collect is the one
// operation concurrent callers might invoke at once (a call threshold
// trip racing an explicit request from the runtime API, §4.5); gating
// it through a singleflight.Group collapses simultaneous collections
// into a single pass, the same dedup golang.org/x/sync/singleflight
// offers any cache-fill call.
type Collector struct {
	interp *Interpreter
	busy   map[int]*Handle
	nextID int
	sf     singleflight.Group
	Stats  GCStats

	heapSize int
	heapCap  int
}

func newCollector(interp *Interpreter, heapCap int) *Collector {
	return &Collector{interp: interp, busy: map[int]*Handle{}, heapCap: heapCap}
}

// newHandle is the generator's allocation primitive: GENERATE(mode) in
// §4.4 terms, producing a fresh handle owned by the current frame.
func (c *Collector) newHandle(data Value, size int, owner int) *Handle {
	c.nextID++
	h := &Handle{id: c.nextID, Data: data, size: size, owner: owner}
	c.busy[h.id] = h
	c.heapSize += size
	if c.heapSize > c.heapCap {
		c.Collect()
	}
	return h
}

// noteFrameClose implements the preemptive sweep: handles owned by the
// closing frame that never escaped it are reclaimed without waiting for
// the next full mark-sweep pass, per §4.4 "preemptive sweep of frame-
// local generators".
func (c *Collector) noteFrameClose(fr *Frame) {
	for id, h := range c.busy {
		if h.owner == fr.id && !h.escaped {
			delete(c.busy, id)
			c.heapSize -= h.size
			c.Stats.Preempted++
		}
	}
}

// Collect runs a full mark-and-sweep pass: colour every handle
// reachable from the slots of the live frame chain (followed through
// dynamic links) and from the expression stack, then discard
// everything left white. Concurrent
// calls are deduplicated by sf so a threshold trip during an explicit
// request only runs the work once.
func (c *Collector) Collect() GCStats {
	v, _, _ := c.sf.Do("collect", func() (interface{}, error) {
		for _, h := range c.busy {
			h.colour = colourWhite
		}
		seen := map[int]bool{}
		for fr := c.interp.frame; fr != nil; fr = fr.dynamic {
			for _, slot := range fr.data {
				c.markValue(slot, seen)
			}
		}
		for _, v := range c.interp.exprStack {
			c.markValue(v, seen)
		}
		swept := 0
		for id, h := range c.busy {
			if h.colour != colourBlack {
				delete(c.busy, id)
				c.heapSize -= h.size
				swept++
			}
		}
		c.Stats.Collections++
		c.Stats.Swept += swept
		c.Stats.Busy = len(c.busy)
		return c.Stats, nil
	})
	return v.(GCStats)
}

// markValue walks a value graph colouring every handle it reaches;
// `seen` is the cycle-breaking cookie set (handle ids already coloured
// this pass are never redescended into), the same role the `colour`
// field plays per-handle across passes.
func (c *Collector) markValue(v Value, seen map[int]bool) {
	switch t := v.(type) {
	case *Ref:
		if t == nil || t.IsNil {
			return
		}
		if t.Handle != nil {
			c.markHandle(t.Handle, seen)
		}
	case *ArrayValue:
		for _, e := range t.Data {
			c.markValue(e, seen)
		}
	case *StructValue:
		for _, f := range t.Fields {
			c.markValue(f, seen)
		}
	case *UnionValue:
		c.markValue(t.Value, seen)
	case *ProcValue:
		if t.Static != nil {
			for _, slot := range t.Static.data {
				c.markValue(slot, seen)
			}
		}
	}
}

func (c *Collector) markHandle(h *Handle, seen map[int]bool) {
	if h == nil || seen[h.id] {
		return
	}
	seen[h.id] = true
	h.colour = colourBlack
	c.markValue(h.Data, seen)
}
