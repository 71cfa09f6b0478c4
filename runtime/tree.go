package runtime

// Lifecycle is implemented by widgets that subscribe to state while mounted.
// Unmount must release every subscription taken in Mount.
type Lifecycle interface {
	Mount()
	Unmount()
}

// Bindable widgets receive app services when attached to a running app.
type Bindable interface {
	Bind(services Services)
}

// Unbindable widgets release app services when detached.
type Unbindable interface {
	Unbind()
}

// MountTree binds services, then mounts, parents before children.
// Widgets see their scheduler before they subscribe.
func MountTree(root Widget, services Services) {
	walkPre(root, func(w Widget) {
		if b, ok := w.(Bindable); ok && !services.isZero() {
			b.Bind(services)
		}
		if m, ok := w.(Lifecycle); ok {
			m.Mount()
		}
	})
}

// UnmountTree unmounts, then unbinds, children before parents.
func UnmountTree(root Widget) {
	walkPost(root, func(w Widget) {
		if m, ok := w.(Lifecycle); ok {
			m.Unmount()
		}
		if u, ok := w.(Unbindable); ok {
			u.Unbind()
		}
	})
}

func walkPre(w Widget, fn func(Widget)) {
	if w == nil {
		return
	}
	fn(w)
	if children, ok := w.(ChildProvider); ok {
		for _, child := range children.ChildWidgets() {
			walkPre(child, fn)
		}
	}
}

func walkPost(w Widget, fn func(Widget)) {
	if w == nil {
		return
	}
	if children, ok := w.(ChildProvider); ok {
		for _, child := range children.ChildWidgets() {
			walkPost(child, fn)
		}
	}
	fn(w)
}
