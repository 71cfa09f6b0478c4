package runtime

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/odvcencio/furry-state/state"
)

// Services exposes app-level scheduling and messaging helpers to widgets.
type Services struct {
	app *App
}

// Services returns a service handle for the app.
func (a *App) Services() Services {
	return Services{app: a}
}

func (s Services) isZero() bool {
	return s.app == nil
}

// Scheduler returns the scheduler that runs state reactions on the app loop.
func (s Services) Scheduler() state.Scheduler {
	if s.app == nil {
		return nil
	}
	return s.app.StateScheduler()
}

// Invalidate requests a render pass.
func (s Services) Invalidate() {
	if s.app == nil {
		return
	}
	s.app.Invalidate()
}

// Post sends a message into the app loop.
func (s Services) Post(msg Message) bool {
	if s.app == nil {
		return false
	}
	return s.app.TryPost(msg)
}

// Spawn starts an effect using the app task context.
func (s Services) Spawn(effect Effect) {
	if s.app == nil {
		return
	}
	s.app.Spawn(effect)
}

// After schedules a delayed message.
func (s Services) After(delay time.Duration, msg Message) {
	s.Spawn(After(delay, msg))
}

// Logger returns the app logger, or a disabled one without an app.
func (s Services) Logger() zerolog.Logger {
	if s.app == nil {
		return zerolog.Nop()
	}
	return s.app.logger
}
