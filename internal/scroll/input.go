package scroll

// Delta is a normalised scroll input in pixels
type Delta struct {
	DX float64
	DY float64
}

// IsZero reports whether the delta moves nothing
func (d Delta) IsZero() bool { return d.DX == 0 && d.DY == 0 }

// DeltaSource is anything that emits scroll deltas: a mouse wheel binding,
// a touch handler, a key repeat. Subscribe returns a function that removes
// the handler.
type DeltaSource interface {
	Subscribe(handler func(Delta)) (unsubscribe func())
}

// Feed is a DeltaSource driven by explicit Emit calls
type Feed struct {
	next     int
	handlers map[int]func(Delta)
}

// Subscribe registers handler for every future Emit
func (f *Feed) Subscribe(handler func(Delta)) func() {
	if f.handlers == nil {
		f.handlers = make(map[int]func(Delta))
	}
	id := f.next
	f.next++
	f.handlers[id] = handler
	return func() { delete(f.handlers, id) }
}

// Emit sends d to all subscribers
func (f *Feed) Emit(d Delta) {
	for _, h := range f.handlers {
		h(d)
	}
}

// Coalescer accumulates deltas between frames so that range recomputation
// runs at most once per frame no matter how many input events arrive.
type Coalescer struct {
	pending Delta
	events  int
}

// Add accumulates d into the pending delta
func (c *Coalescer) Add(d Delta) {
	c.pending.DX += d.DX
	c.pending.DY += d.DY
	c.events++
}

// Pending reports how many input events are waiting
func (c *Coalescer) Pending() int { return c.events }

// Take returns the accumulated delta and the number of events folded into
// it, and resets the coalescer. ok is false when nothing was pending.
func (c *Coalescer) Take() (d Delta, events int, ok bool) {
	if c.events == 0 {
		return Delta{}, 0, false
	}
	d, events = c.pending, c.events
	c.Reset()
	return d, events, true
}

// Reset discards any pending input
func (c *Coalescer) Reset() {
	c.pending = Delta{}
	c.events = 0
}
