package runtime

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/odvcencio/furry-state/state"
)

// QueueFlushPolicy configures when the app flushes the state queue.
type QueueFlushPolicy int

const (
	// FlushOnMessageAndTick flushes on any message or tick.
	FlushOnMessageAndTick QueueFlushPolicy = iota
	// FlushOnMessage flushes on messages except TickMsg.
	FlushOnMessage
	// FlushOnTick flushes only on TickMsg.
	FlushOnTick
	// FlushManual flushes only on QueueFlushMsg.
	FlushManual
)

var flushPolicyNames = map[QueueFlushPolicy]string{
	FlushOnMessageAndTick: "message_and_tick",
	FlushOnMessage:        "message",
	FlushOnTick:           "tick",
	FlushManual:           "manual",
}

func (p QueueFlushPolicy) String() string {
	if name, ok := flushPolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("QueueFlushPolicy(%d)", int(p))
}

// ParseFlushPolicy maps a policy name back to its value.
func ParseFlushPolicy(name string) (QueueFlushPolicy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for policy, candidate := range flushPolicyNames {
		if candidate == name {
			return policy, nil
		}
	}
	return 0, fmt.Errorf("unknown flush policy %q", name)
}

// WithQueuePolicy wraps update to flush queue based on policy.
// If update is nil, DefaultUpdate is used.
func WithQueuePolicy(queue *state.Queue, policy QueueFlushPolicy, update UpdateFunc) UpdateFunc {
	if update == nil {
		update = DefaultUpdate
	}

	return func(app *App, msg Message) bool {
		dirty := update(app, msg)
		if queue == nil {
			return dirty
		}
		if shouldFlushQueue(policy, msg) {
			if flushed := queue.Flush(); flushed > 0 {
				dirty = true
			}
		}
		return dirty
	}
}

func shouldFlushQueue(policy QueueFlushPolicy, msg Message) bool {
	if _, ok := msg.(QueueFlushMsg); ok {
		return true
	}
	if policy == FlushManual {
		return false
	}
	_, isTick := msg.(TickMsg)
	switch policy {
	case FlushOnMessage:
		return !isTick
	case FlushOnTick:
		return isTick
	default:
		return true
	}
}

// QueueScheduler enqueues callbacks and wakes the app to flush them.
// Widgets use it so state notifications coming from any goroutine are
// handled on the app loop.
type QueueScheduler struct {
	queue   *state.Queue
	post    PostFunc
	pending atomic.Bool
}

// NewQueueScheduler wires a queue to a post function.
func NewQueueScheduler(queue *state.Queue, post PostFunc) *QueueScheduler {
	if queue == nil {
		queue = state.NewQueue()
	}
	return &QueueScheduler{
		queue: queue,
		post:  post,
	}
}

// Schedule enqueues fn and posts at most one flush request until the next flush.
func (s *QueueScheduler) Schedule(fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.queue.Schedule(fn)
	if s.post == nil {
		return
	}
	if s.pending.CompareAndSwap(false, true) {
		if !s.post(QueueFlushMsg{}) {
			s.pending.Store(false)
		}
	}
}

func (s *QueueScheduler) resetPending() {
	if s == nil {
		return
	}
	s.pending.Store(false)
}
