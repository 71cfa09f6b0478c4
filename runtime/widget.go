package runtime

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Rect is a screen region in cells.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.Width && y < r.Y+r.Height
}

// Widget is a node in the render tree.
type Widget interface {
	Layout(bounds Rect)
	Render(ctx RenderContext)
}

// ChildProvider exposes child widgets for tree walks.
type ChildProvider interface {
	ChildWidgets() []Widget
}

// MessageHandler receives messages dispatched by the app.
type MessageHandler interface {
	HandleMessage(msg Message) HandleResult
}

// HandleResult reports whether a message was consumed and which commands it produced.
type HandleResult struct {
	Handled  bool
	Commands []Command
}

// Handled reports a consumed message.
func Handled() HandleResult {
	return HandleResult{Handled: true}
}

// Unhandled reports an ignored message.
func Unhandled() HandleResult {
	return HandleResult{}
}

// WithCommand reports a consumed message that emitted cmd.
func WithCommand(cmd Command) HandleResult {
	return HandleResult{Handled: true, Commands: []Command{cmd}}
}

// RenderContext is passed to widgets while drawing.
type RenderContext struct {
	Screen tcell.Screen
	Bounds Rect
}

// Sub creates a context for a child widget.
func (ctx RenderContext) Sub(bounds Rect) RenderContext {
	return RenderContext{Screen: ctx.Screen, Bounds: bounds}
}

// SetString draws s starting at (x, y), clipped to the context bounds.
// It returns the number of columns written.
func (ctx RenderContext) SetString(x, y int, s string, style tcell.Style) int {
	if ctx.Screen == nil || !ctx.Bounds.Contains(x, y) {
		return 0
	}
	maxX := ctx.Bounds.X + ctx.Bounds.Width
	col := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > maxX {
			break
		}
		ctx.Screen.SetContent(col, y, r, nil, style)
		col += w
	}
	return col - x
}

// Fill paints the context bounds with ch.
func (ctx RenderContext) Fill(ch rune, style tcell.Style) {
	if ctx.Screen == nil {
		return
	}
	b := ctx.Bounds
	for y := b.Y; y < b.Y+b.Height; y++ {
		for x := b.X; x < b.X+b.Width; x++ {
			ctx.Screen.SetContent(x, y, ch, nil, style)
		}
	}
}
