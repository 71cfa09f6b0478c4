package runtime

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/odvcencio/furry-state/state"
)

// counterWidget re-reads its cell through the app scheduler.
type counterWidget struct {
	cell   *state.Cell[int]
	subs   state.Subscriptions
	text   string
	bounds Rect
}

func (w *counterWidget) Layout(bounds Rect) { w.bounds = bounds }

func (w *counterWidget) Render(ctx RenderContext) {
	ctx.SetString(w.bounds.X, w.bounds.Y, w.text, tcell.StyleDefault)
}

func (w *counterWidget) Bind(services Services) {
	w.subs.SetScheduler(services.Scheduler())
}

func (w *counterWidget) Unbind() {
	w.subs.SetScheduler(nil)
}

func (w *counterWidget) Mount() {
	w.refresh()
	_ = w.subs.Observe(w.cell, w.refresh)
}

func (w *counterWidget) Unmount() {
	w.subs.Clear()
}

func (w *counterWidget) refresh() {
	w.text = "count=" + strconv.Itoa(w.cell.Read())
}

func (w *counterWidget) HandleMessage(msg Message) HandleResult {
	custom, ok := msg.(CustomMsg)
	if !ok {
		return Unhandled()
	}
	switch custom.Payload {
	case "inc":
		w.cell.Apply(func(v int) int { return v + 1 })()
		return Handled()
	case "quit":
		return WithCommand(Quit{})
	}
	return Unhandled()
}

func screenRow(t *testing.T, screen tcell.SimulationScreen, y int) string {
	t.Helper()
	cells, width, height := screen.GetContents()
	if y >= height {
		t.Fatalf("row %d outside screen height %d", y, height)
	}
	var b strings.Builder
	for x := 0; x < width; x++ {
		runes := cells[y*width+x].Runes
		if len(runes) == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(runes[0])
	}
	return strings.TrimRight(b.String(), " ")
}

func TestApp_RendersStateThroughQueue(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	widget := &counterWidget{cell: state.NewCell(0)}
	app := NewApp(AppConfig{Screen: screen, Root: widget})

	if err := app.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer app.stop()

	app.render()
	if got := screenRow(t, screen, 0); got != "count=0" {
		t.Fatalf("expected initial render, got %q", got)
	}

	app.process(CustomMsg{Payload: "inc"})
	if got := screenRow(t, screen, 0); got != "count=1" {
		t.Fatalf("expected flushed render, got %q", got)
	}
	if widget.cell.Len() != 1 {
		t.Fatalf("expected one subscription while mounted, got %d", widget.cell.Len())
	}
}

func TestApp_ApplyMsgRunsOnLoop(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	widget := &counterWidget{cell: state.NewCell(5)}
	app := NewApp(AppConfig{Screen: screen, Root: widget, FlushPolicy: FlushManual})

	if err := app.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer app.stop()

	app.process(ApplyMsg{Effect: widget.cell.Set(9)})
	if widget.cell.Read() != 9 {
		t.Fatalf("expected apply to run, got %d", widget.cell.Read())
	}
	if got := screenRow(t, screen, 0); got != "count=5" {
		t.Fatalf("expected manual policy to hold the refresh, got %q", got)
	}

	app.process(QueueFlushMsg{})
	if got := screenRow(t, screen, 0); got != "count=9" {
		t.Fatalf("expected refresh after explicit flush, got %q", got)
	}
}

func TestApp_RunQuit(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	widget := &counterWidget{cell: state.NewCell(0)}
	app := NewApp(AppConfig{Screen: screen, Root: widget})

	done := make(chan error, 1)
	go func() {
		done <- app.Run(context.Background())
	}()

	app.Post(CustomMsg{Payload: "quit"})
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("app did not quit")
	}
	if widget.cell.Len() != 0 {
		t.Fatalf("expected unmount to release subscriptions, got %d", widget.cell.Len())
	}
}

func TestApp_RunCancel(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	app := NewApp(AppConfig{Screen: screen, TickRate: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop on cancel")
	}
}

func TestApp_RunWithoutScreen(t *testing.T) {
	app := NewApp(AppConfig{})
	if err := app.Run(context.Background()); !errors.Is(err, ErrNoScreen) {
		t.Fatalf("expected ErrNoScreen, got %v", err)
	}
}

func TestRenderContext_SetStringClips(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer screen.Fini()

	ctx := RenderContext{Screen: screen, Bounds: Rect{X: 0, Y: 0, Width: 4, Height: 1}}
	if n := ctx.SetString(0, 0, "abcdef", tcell.StyleDefault); n != 4 {
		t.Fatalf("expected 4 columns written, got %d", n)
	}
	if n := ctx.SetString(0, 0, "日本語", tcell.StyleDefault); n != 4 {
		t.Fatalf("expected two wide runes to fill 4 columns, got %d", n)
	}
	if n := ctx.SetString(0, 3, "x", tcell.StyleDefault); n != 0 {
		t.Fatalf("expected write outside bounds to be skipped, got %d", n)
	}
}
