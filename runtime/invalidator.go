package runtime

import "sync/atomic"

// Invalidator posts render requests, coalescing repeats until the loop
// handles the pending one.
type Invalidator struct {
	post    PostFunc
	pending atomic.Bool
}

// NewInvalidator creates an invalidator wired to a post function.
func NewInvalidator(post PostFunc) *Invalidator {
	return &Invalidator{post: post}
}

// Invalidate requests a render pass.
func (i *Invalidator) Invalidate() {
	if i == nil || i.post == nil {
		return
	}
	if i.pending.CompareAndSwap(false, true) {
		if !i.post(InvalidateMsg{}) {
			i.pending.Store(false)
		}
	}
}

// Schedule runs fn and requests a render pass.
// It lets an Invalidator stand in as a state.Scheduler.
func (i *Invalidator) Schedule(fn func()) {
	if fn == nil {
		return
	}
	fn()
	i.Invalidate()
}

// Pending reports whether a render request is in flight.
func (i *Invalidator) Pending() bool {
	return i != nil && i.pending.Load()
}

func (i *Invalidator) resetPending() {
	if i == nil {
		return
	}
	i.pending.Store(false)
}
