package runtime

import (
	"context"
	"time"

	"github.com/odvcencio/furry-state/state"
)

// ApplyMsg carries a prepared state update to the app loop, so updates
// started from background effects still run on the loop goroutine.
type ApplyMsg struct {
	Effect state.Effect
}

func (ApplyMsg) isMessage() {}

// After posts a message after a delay.
func After(delay time.Duration, msg Message) Effect {
	return Effect{
		Run: func(ctx context.Context, post PostFunc) {
			if msg == nil || post == nil {
				return
			}
			if delay <= 0 {
				post(msg)
				return
			}
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
			case <-timer.C:
				post(msg)
			}
		},
	}
}

// Every posts messages on a fixed interval.
// Returning nil from fn skips posting.
func Every(interval time.Duration, fn func(time.Time) Message) Effect {
	return Effect{
		Run: func(ctx context.Context, post PostFunc) {
			if interval <= 0 || fn == nil || post == nil {
				return
			}
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					if msg := fn(now); msg != nil {
						post(msg)
					}
				}
			}
		},
	}
}

// EveryApply prepares a state update on a fixed interval and hands it to
// the loop. Returning nil from fn skips that tick.
func EveryApply(interval time.Duration, fn func(time.Time) state.Effect) Effect {
	if fn == nil {
		return Every(interval, nil)
	}
	return Every(interval, func(now time.Time) Message {
		effect := fn(now)
		if effect == nil {
			return nil
		}
		return ApplyMsg{Effect: effect}
	})
}
