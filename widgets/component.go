package widgets

import (
	"github.com/odvcencio/furry-state/runtime"
	"github.com/odvcencio/furry-state/state"
)

// Component is a base widget with bound services and subscriptions.
// Subscriptions taken through Observe are released on Unbind.
type Component struct {
	Base
	Services runtime.Services
	Subs     state.Subscriptions
}

// Bind attaches app services to the component.
func (c *Component) Bind(services runtime.Services) {
	c.Services = services
	c.Subs.SetScheduler(services.Scheduler())
}

// Unbind releases app services and subscriptions.
func (c *Component) Unbind() {
	c.Subs.Clear()
	c.Subs.SetScheduler(nil)
	c.Services = runtime.Services{}
}

// Invalidate marks the component dirty and requests a render pass.
func (c *Component) Invalidate() {
	c.MarkDirty()
	c.Services.Invalidate()
}

// Observe runs fn on the app loop whenever src changes.
func (c *Component) Observe(src state.Source, fn func()) error {
	return c.Subs.Observe(src, fn)
}
