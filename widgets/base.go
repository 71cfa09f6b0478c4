// Package widgets provides small state-bound widgets for the runtime.
package widgets

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/odvcencio/furry-state/runtime"
)

// Alignment controls horizontal text placement.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Base provides common functionality for widgets.
// Embed this in widget structs to get default implementations.
type Base struct {
	bounds      runtime.Rect
	needsRender bool
}

// Layout stores the assigned bounds.
func (b *Base) Layout(bounds runtime.Rect) {
	if b == nil {
		return
	}
	if b.bounds != bounds {
		b.bounds = bounds
		b.needsRender = true
	}
}

// Bounds returns the widget's assigned bounds.
func (b *Base) Bounds() runtime.Rect {
	if b == nil {
		return runtime.Rect{}
	}
	return b.bounds
}

// MarkDirty flags the widget as needing a render pass.
func (b *Base) MarkDirty() {
	if b == nil {
		return
	}
	b.needsRender = true
}

// NeedsRender reports whether the widget needs to re-render.
func (b *Base) NeedsRender() bool {
	if b == nil {
		return false
	}
	return b.needsRender
}

// ClearInvalidation clears the render-needed flag.
func (b *Base) ClearInvalidation() {
	if b == nil {
		return
	}
	b.needsRender = false
}

// truncateString truncates a string to fit within maxWidth columns.
// Adds "..." if truncated.
func truncateString(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

func runewidthOf(s string) int {
	return runewidth.StringWidth(s)
}

// alignedX returns the column where text of the given display width starts.
func alignedX(bounds runtime.Rect, width int, align Alignment) int {
	switch align {
	case AlignCenter:
		return bounds.X + max(0, (bounds.Width-width)/2)
	case AlignRight:
		return bounds.X + max(0, bounds.Width-width)
	default:
		return bounds.X
	}
}

// firstLine drops everything after the first newline.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
