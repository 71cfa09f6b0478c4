package widgets

import "github.com/odvcencio/furry-state/runtime"

// VBox stacks children vertically. Each child gets RowHeight rows.
type VBox struct {
	Base
	children  []runtime.Widget
	RowHeight int
	Gap       int
}

// NewVBox creates a vertical stack of single-row children.
func NewVBox(children ...runtime.Widget) *VBox {
	box := &VBox{RowHeight: 1}
	for _, child := range children {
		if child != nil {
			box.children = append(box.children, child)
		}
	}
	return box
}

// Add appends a child.
func (v *VBox) Add(child runtime.Widget) {
	if child == nil {
		return
	}
	v.children = append(v.children, child)
	v.MarkDirty()
}

// ChildWidgets returns the children for tree walks.
func (v *VBox) ChildWidgets() []runtime.Widget {
	return v.children
}

// Layout assigns each child a row band, clipped to bounds.
func (v *VBox) Layout(bounds runtime.Rect) {
	v.Base.Layout(bounds)
	rowHeight := max(1, v.RowHeight)
	y := bounds.Y
	bottom := bounds.Y + bounds.Height
	for _, child := range v.children {
		h := min(rowHeight, max(0, bottom-y))
		child.Layout(runtime.Rect{X: bounds.X, Y: y, Width: bounds.Width, Height: h})
		y += rowHeight + max(0, v.Gap)
	}
}

// Render draws children that fit.
func (v *VBox) Render(ctx runtime.RenderContext) {
	for _, child := range v.children {
		child.Render(ctx)
	}
	v.ClearInvalidation()
}
