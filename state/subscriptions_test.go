package state

import (
	"errors"
	"testing"
)

func TestSubscriptions_Clear(t *testing.T) {
	subs := &Subscriptions{}
	calls := 0

	subs.Add(func() { calls++ })
	subs.Add(func() { calls++ })

	subs.Clear()
	if calls != 2 {
		t.Fatalf("expected 2 unsubscribe calls, got %d", calls)
	}

	subs.Clear()
	if calls != 2 {
		t.Fatalf("expected no extra calls after clear, got %d", calls)
	}
}

func TestSubscriptions_Watch(t *testing.T) {
	cell := NewCell(1)
	subs := &Subscriptions{}
	calls := 0

	if err := subs.Watch(cell, func() { calls++ }); err != nil {
		t.Fatalf("watch: %v", err)
	}
	cell.Set(2)()
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	subs.Clear()
	if cell.Len() != 0 {
		t.Fatalf("expected no listeners after clear, got %d", cell.Len())
	}
	cell.Set(3)()
	if calls != 1 {
		t.Fatalf("expected no calls after clear, got %d", calls)
	}
}

func TestSubscriptions_Scheduler(t *testing.T) {
	cell := NewCell(1)
	queue := NewQueue()
	subs := NewSubscriptions(queue)
	calls := 0

	if err := subs.Observe(cell, func() { calls++ }); err != nil {
		t.Fatalf("observe: %v", err)
	}

	cell.Set(2)()
	if calls != 0 {
		t.Fatalf("expected callback to be queued, got %d", calls)
	}
	if flushed := queue.Flush(); flushed != 1 {
		t.Fatalf("expected 1 callback flushed, got %d", flushed)
	}
	if calls != 1 {
		t.Fatalf("expected callback after flush, got %d", calls)
	}

	subs.Clear()
	cell.Set(3)()
	queue.Flush()
	if calls != 1 {
		t.Fatalf("expected no callbacks after clear, got %d", calls)
	}
}

func TestSubscriptions_InvalidListener(t *testing.T) {
	cell := NewCell(1)
	subs := &Subscriptions{}

	if err := subs.Observe(cell, nil); !errors.Is(err, ErrInvalidListener) {
		t.Fatalf("expected ErrInvalidListener, got %v", err)
	}
	if err := subs.Watch(cell, nil); !errors.Is(err, ErrInvalidListener) {
		t.Fatalf("expected ErrInvalidListener, got %v", err)
	}
	if subs.Len() != 0 {
		t.Fatalf("expected nothing tracked, got %d", subs.Len())
	}
}
