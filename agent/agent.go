// Package agent drives a runtime app headlessly for scripted interaction
// and end-to-end tests. Input goes through a tcell simulation screen, so
// keys take the same path as a real terminal.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/odvcencio/furry-state/runtime"
)

// Common errors returned by Agent methods.
var (
	ErrNoRoot      = errors.New("no root widget configured")
	ErrNotStarted  = errors.New("agent not started")
	ErrRunning     = errors.New("agent already started")
	ErrTimeout     = errors.New("operation timed out")
	ErrTextMissing = errors.New("text not found")
)

// Config configures an Agent.
type Config struct {
	// Root is the widget tree to drive.
	Root runtime.Widget

	// Width and Height set the terminal dimensions (default 80x24).
	Width, Height int

	// TickRate is the polling interval used while waiting for the UI.
	// Default is 10ms.
	TickRate time.Duration

	// Timeout bounds every wait. Default is 2s.
	Timeout time.Duration

	// FlushPolicy is passed through to the app.
	FlushPolicy runtime.QueueFlushPolicy

	Logger *zerolog.Logger
}

// Agent runs an app against a simulation screen.
type Agent struct {
	mu       sync.Mutex
	app      *runtime.App
	screen   tcell.SimulationScreen
	width    int
	height   int
	tickRate time.Duration
	timeout  time.Duration
	cancel   context.CancelFunc
	exited   chan struct{}
	err      error
}

// New creates an Agent for cfg.Root. Call Start to run it.
func New(cfg Config) (*Agent, error) {
	if cfg.Root == nil {
		return nil, ErrNoRoot
	}
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = 10 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	screen := tcell.NewSimulationScreen("UTF-8")
	app := runtime.NewApp(runtime.AppConfig{
		Screen:      screen,
		Root:        cfg.Root,
		FlushPolicy: cfg.FlushPolicy,
		Logger:      cfg.Logger,
	})
	return &Agent{
		app:      app,
		screen:   screen,
		width:    width,
		height:   height,
		tickRate: tickRate,
		timeout:  timeout,
	}, nil
}

// App returns the driven app.
func (a *Agent) App() *runtime.App {
	if a == nil {
		return nil
	}
	return a.app
}

// Start runs the app loop and waits for the first frame at the configured size.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.exited != nil {
		a.mu.Unlock()
		return ErrRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	exited := make(chan struct{})
	a.cancel = cancel
	a.exited = exited
	a.err = nil
	a.mu.Unlock()

	go func() {
		err := a.app.Run(runCtx)
		a.mu.Lock()
		a.err = err
		a.mu.Unlock()
		close(exited)
	}()

	if err := a.WaitFor(func() bool { return a.app.Frames() > 0 }); err != nil {
		_ = a.Stop()
		return fmt.Errorf("start: %w", err)
	}
	a.screen.SetSize(a.width, a.height)
	frames := a.app.Frames()
	a.app.Post(runtime.ResizeMsg{Width: a.width, Height: a.height})
	return a.WaitFor(func() bool { return a.app.Frames() > frames })
}

// Stop cancels the app and waits for the loop to exit.
// It returns the loop error, treating cancellation as a clean exit.
func (a *Agent) Stop() error {
	a.mu.Lock()
	cancel, exited := a.cancel, a.exited
	a.mu.Unlock()
	if exited == nil {
		return ErrNotStarted
	}
	cancel()
	select {
	case <-exited:
	case <-time.After(a.timeout):
		return ErrTimeout
	}

	a.mu.Lock()
	err := a.err
	a.cancel, a.exited = nil, nil
	a.mu.Unlock()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Done is closed when the app loop exits, including after Quit.
func (a *Agent) Done() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.exited
}

// Press injects a rune key.
func (a *Agent) Press(r rune) {
	a.screen.InjectKey(tcell.KeyRune, r, tcell.ModNone)
}

// SendKey injects a special key.
func (a *Agent) SendKey(key tcell.Key) {
	a.screen.InjectKey(key, 0, tcell.ModNone)
}

// Type injects each rune of s.
func (a *Agent) Type(s string) {
	for _, r := range s {
		a.Press(r)
	}
}

// Tick waits one polling interval.
func (a *Agent) Tick() {
	time.Sleep(a.tickRate)
}

// WaitFor polls cond until it holds or the timeout passes.
func (a *Agent) WaitFor(cond func() bool) error {
	deadline := time.Now().Add(a.timeout)
	for {
		if cond() {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		a.Tick()
	}
}

// WaitForText waits until text appears on screen.
func (a *Agent) WaitForText(text string) error {
	if err := a.WaitFor(func() bool { return a.ContainsText(text) }); err != nil {
		return fmt.Errorf("%w: %q", ErrTextMissing, text)
	}
	return nil
}

// ContainsText checks if the given text appears on screen.
func (a *Agent) ContainsText(text string) bool {
	x, _ := a.FindText(text)
	return x >= 0
}

// FindText returns the position of text on screen, or (-1, -1) if not found.
func (a *Agent) FindText(text string) (x, y int) {
	if text == "" {
		return -1, -1
	}
	for row, line := range a.lines() {
		if col := strings.Index(string(line), text); col >= 0 {
			return len([]rune(string(line)[:col])), row
		}
	}
	return -1, -1
}

// CaptureText returns the screen contents, one trimmed line per row.
func (a *Agent) CaptureText() string {
	lines := a.lines()
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimRight(string(line), " ")
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

func (a *Agent) lines() [][]rune {
	cells, width, height := a.screen.GetContents()
	lines := make([][]rune, height)
	for y := 0; y < height; y++ {
		line := make([]rune, 0, width)
		for x := 0; x < width; x++ {
			runes := cells[y*width+x].Runes
			if len(runes) == 0 {
				line = append(line, ' ')
				continue
			}
			line = append(line, runes[0])
		}
		lines[y] = line
	}
	return lines
}

// Snapshot returns a structured representation of the current UI state.
// The widget tree is walked on the app loop.
func (a *Agent) Snapshot() (Snapshot, error) {
	a.mu.Lock()
	exited := a.exited
	a.mu.Unlock()
	if exited == nil {
		return Snapshot{}, ErrNotStarted
	}

	result := make(chan []WidgetInfo, 1)
	walk := func() {
		var widgets []WidgetInfo
		walkWidgets(a.app.Root(), &widgets)
		result <- widgets
	}
	if !a.app.TryPost(runtime.ApplyMsg{Effect: walk}) {
		return Snapshot{}, errors.New("snapshot: message buffer full")
	}

	select {
	case widgets := <-result:
		width, height := a.screen.Size()
		return Snapshot{
			Timestamp: time.Now(),
			Width:     width,
			Height:    height,
			Frames:    a.app.Frames(),
			Text:      a.CaptureText(),
			Widgets:   widgets,
		}, nil
	case <-exited:
		return Snapshot{}, ErrNotStarted
	case <-time.After(a.timeout):
		return Snapshot{}, ErrTimeout
	}
}

// FindByText returns the first widget whose text contains text.
func (a *Agent) FindByText(text string) (*WidgetInfo, error) {
	snap, err := a.Snapshot()
	if err != nil {
		return nil, err
	}
	if found := findByTextIn(snap.Widgets, text); found != nil {
		return found, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTextMissing, text)
}

func walkWidgets(w runtime.Widget, out *[]WidgetInfo) {
	if w == nil {
		return
	}
	info := WidgetInfo{
		ID:   widgetID(w),
		Type: fmt.Sprintf("%T", w),
	}
	if bp, ok := w.(BoundsProvider); ok {
		info.Bounds = bp.Bounds()
	}
	if t, ok := w.(Texter); ok {
		info.Text = t.Text()
	}
	if cp, ok := w.(runtime.ChildProvider); ok {
		for _, child := range cp.ChildWidgets() {
			walkWidgets(child, &info.Children)
		}
	}
	*out = append(*out, info)
}

func findByTextIn(widgets []WidgetInfo, text string) *WidgetInfo {
	for i := range widgets {
		w := &widgets[i]
		if w.Text != "" && strings.Contains(w.Text, text) {
			return w
		}
		if found := findByTextIn(w.Children, text); found != nil {
			return found
		}
	}
	return nil
}

// widgetID uses the pointer address as a unique identifier.
func widgetID(w runtime.Widget) string {
	if w == nil {
		return ""
	}
	return fmt.Sprintf("%p", w)
}
