package widgets

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/odvcencio/furry-state/bind"
	"github.com/odvcencio/furry-state/runtime"
	"github.com/odvcencio/furry-state/state"
)

// SelectorLabel draws one line of text selected from a state source.
// The label re-renders only when the selected text changes.
type SelectorLabel[S any] struct {
	Component
	selector  *bind.Selector[S, string]
	style     tcell.Style
	errStyle  tcell.Style
	alignment Alignment
}

// NewSelectorLabel creates a label that formats src with format.
func NewSelectorLabel[S any](src state.Readable[S], format func(S) string, opts ...bind.Option[string]) (*SelectorLabel[S], error) {
	label := &SelectorLabel[S]{
		style:    tcell.StyleDefault,
		errStyle: tcell.StyleDefault.Foreground(tcell.ColorRed),
	}
	opts = append(opts, bind.WithOnChange[string](label.Invalidate))
	selector, err := bind.Select(src, format, opts...)
	if err != nil {
		return nil, fmt.Errorf("selector label: %w", err)
	}
	label.selector = selector
	return label, nil
}

// SetStyle sets the text style.
func (l *SelectorLabel[S]) SetStyle(style tcell.Style) *SelectorLabel[S] {
	l.style = style
	l.MarkDirty()
	return l
}

// SetAlignment sets horizontal alignment.
func (l *SelectorLabel[S]) SetAlignment(align Alignment) *SelectorLabel[S] {
	l.alignment = align
	l.MarkDirty()
	return l
}

// Text returns the current text, or the selector failure message.
func (l *SelectorLabel[S]) Text() string {
	text, err := l.selector.Value()
	if err != nil {
		return err.Error()
	}
	return text
}

// Renders reports how many re-renders the selection has requested.
func (l *SelectorLabel[S]) Renders() int {
	return l.selector.Renders()
}

// Bind routes re-render requests through the app loop.
func (l *SelectorLabel[S]) Bind(services runtime.Services) {
	l.Component.Bind(services)
	l.selector.SetScheduler(services.Scheduler())
}

// Unbind detaches the selector from the app loop.
func (l *SelectorLabel[S]) Unbind() {
	l.selector.SetScheduler(nil)
	l.Component.Unbind()
}

// Mount subscribes to the source.
func (l *SelectorLabel[S]) Mount() {
	l.selector.Mount()
	l.MarkDirty()
}

// Unmount drops the subscription.
func (l *SelectorLabel[S]) Unmount() {
	l.selector.Unmount()
}

// Render draws the label.
func (l *SelectorLabel[S]) Render(ctx runtime.RenderContext) {
	bounds := l.Bounds()
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return
	}
	style := l.style
	text, err := l.selector.Value()
	if err != nil {
		text = err.Error()
		style = l.errStyle
	}
	text = truncateString(firstLine(text), bounds.Width)
	x := alignedX(bounds, runewidthOf(text), l.alignment)
	ctx.Sub(bounds).SetString(x, bounds.Y, text, style)
	l.ClearInvalidation()
}

var _ runtime.Widget = (*SelectorLabel[int])(nil)
var _ runtime.Lifecycle = (*SelectorLabel[int])(nil)
var _ runtime.Bindable = (*SelectorLabel[int])(nil)
var _ runtime.Unbindable = (*SelectorLabel[int])(nil)
