package agent

import (
	"time"

	"github.com/odvcencio/furry-state/runtime"
)

// Snapshot captures a structured view of the current UI state.
type Snapshot struct {
	Timestamp time.Time    `json:"timestamp"`
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Frames    int64        `json:"frames"`
	Text      string       `json:"text,omitempty"`
	Widgets   []WidgetInfo `json:"widgets,omitempty"`
}

// WidgetInfo describes a widget in the UI tree.
type WidgetInfo struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	Bounds   runtime.Rect `json:"bounds"`
	Children []WidgetInfo `json:"children,omitempty"`
}

// BoundsProvider is implemented by widgets that remember their layout.
type BoundsProvider interface {
	Bounds() runtime.Rect
}

// Texter is implemented by widgets that display a single text value.
type Texter interface {
	Text() string
}
