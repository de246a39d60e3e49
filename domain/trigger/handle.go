package trigger

import (
	"image"
	"sync"
	"sync/atomic"
)

// Handle publishes Region snapshots to a monitor. Load is lock-free; Update
// serializes writers and publishes only validated snapshots.
type Handle struct {
	mu   sync.Mutex
	cur  atomic.Pointer[Region]
	trim Trim
}

// NewHandle validates r and wraps it.
func NewHandle(r Region, trim Trim) (*Handle, error) {
	if err := r.Validate(trim); err != nil {
		return nil, err
	}
	h := &Handle{trim: trim}
	h.cur.Store(&r)
	return h, nil
}

// Load returns the current snapshot.
func (h *Handle) Load() Region { return *h.cur.Load() }

// Interior is the sampled rectangle of r under this handle's trim.
func (h *Handle) Interior(r Region) image.Rectangle { return h.trim.Interior(r.Bounds) }

// Update applies fn to a copy of the current snapshot. On validation failure
// the current snapshot is kept and the error returned.
func (h *Handle) Update(fn func(*Region)) (Region, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := *h.cur.Load()
	next := prev
	fn(&next)
	next.Activations = prev.Activations
	if next.Active && !prev.Active {
		next.Activations++
	}
	if err := next.Validate(h.trim); err != nil {
		return prev, err
	}
	h.cur.Store(&next)
	return next, nil
}
