package state

import "sync"

// Subscriptions tracks and clears multiple unsubscribe handles.
type Subscriptions struct {
	mu     sync.Mutex
	unsubs []Unsubscribe
	sched  Scheduler
}

// NewSubscriptions creates a Subscriptions with a default scheduler.
func NewSubscriptions(scheduler Scheduler) *Subscriptions {
	return &Subscriptions{sched: scheduler}
}

// SetScheduler updates the default scheduler.
func (s *Subscriptions) SetScheduler(scheduler Scheduler) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
}

// Scheduler returns the default scheduler.
func (s *Subscriptions) Scheduler() Scheduler {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	scheduler := s.sched
	s.mu.Unlock()
	return scheduler
}

// Add tracks an unsubscribe handle.
func (s *Subscriptions) Add(unsub Unsubscribe) {
	if s == nil || unsub == nil {
		return
	}
	s.mu.Lock()
	s.unsubs = append(s.unsubs, unsub)
	s.mu.Unlock()
}

// Activate runs sub and tracks the resulting handle.
func (s *Subscriptions) Activate(sub Subscription) error {
	if s == nil || sub == nil {
		return nil
	}
	unsub, err := sub()
	if err != nil {
		return err
	}
	s.Add(unsub)
	return nil
}

// Watch subscribes fn to src synchronously and tracks it.
func (s *Subscriptions) Watch(src Source, fn func()) error {
	if s == nil || src == nil {
		return nil
	}
	return s.Activate(src.Watch(fn))
}

// Observe subscribes fn to src through the default scheduler and tracks it.
func (s *Subscriptions) Observe(src Source, fn func()) error {
	if s == nil || src == nil {
		return nil
	}
	if fn == nil {
		return ErrInvalidListener
	}
	return s.Activate(src.Watch(Deferred(s.Scheduler(), fn)))
}

// Len reports the number of tracked handles.
func (s *Subscriptions) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unsubs)
}

// Clear unsubscribes all tracked handles.
func (s *Subscriptions) Clear() {
	if s == nil {
		return
	}
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}
}
