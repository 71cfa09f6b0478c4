// Package runtime runs a widget tree against a tcell screen.
//
// The app owns a single loop goroutine. Input events, timer ticks and
// background effects are turned into messages; state reactions scheduled
// through Services.Scheduler are flushed on the loop, so widgets observe
// state on one goroutine regardless of where updates started.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/odvcencio/furry-state/state"
)

// ErrNoScreen is returned by Run when the app has no screen.
var ErrNoScreen = errors.New("screen is required")

// UpdateFunc handles a message and returns true if a render is needed.
type UpdateFunc func(app *App, msg Message) bool

// CommandHandler handles commands emitted by widgets.
// Return true if the command requires a render.
type CommandHandler func(cmd Command) bool

// AppConfig configures a runtime App.
type AppConfig struct {
	Screen         tcell.Screen
	Root           Widget
	Update         UpdateFunc
	CommandHandler CommandHandler
	MessageBuffer  int
	TickRate       time.Duration
	StateQueue     *state.Queue
	FlushPolicy    QueueFlushPolicy
	Style          tcell.Style
	Logger         *zerolog.Logger
}

// App runs a widget tree against a terminal screen.
type App struct {
	screen         tcell.Screen
	root           Widget
	update         UpdateFunc
	commandHandler CommandHandler
	messages       chan Message
	tickRate       time.Duration
	stateQueue     *state.Queue
	queueScheduler *QueueScheduler
	flushPolicy    QueueFlushPolicy
	invalidator    *Invalidator
	style          tcell.Style
	logger         zerolog.Logger
	taskCtx        context.Context
	taskCancel     context.CancelFunc
	pendingMu      sync.Mutex
	pendingEffects []Effect

	running  atomic.Bool
	dirty    bool
	width    int
	height   int
	renderMu sync.Mutex
	frames   atomic.Int64
}

// NewApp creates a new App from config.
func NewApp(cfg AppConfig) *App {
	bufferSize := cfg.MessageBuffer
	if bufferSize <= 0 {
		bufferSize = 128
	}
	queue := cfg.StateQueue
	if queue == nil {
		queue = state.NewQueue()
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	app := &App{
		screen:         cfg.Screen,
		root:           cfg.Root,
		update:         cfg.Update,
		commandHandler: cfg.CommandHandler,
		messages:       make(chan Message, bufferSize),
		tickRate:       cfg.TickRate,
		stateQueue:     queue,
		flushPolicy:    cfg.FlushPolicy,
		style:          cfg.Style,
		logger:         logger,
	}
	if app.update == nil {
		app.update = DefaultUpdate
	}
	app.queueScheduler = NewQueueScheduler(queue, app.TryPost)
	app.invalidator = NewInvalidator(app.TryPost)
	return app
}

// Root returns the root widget.
func (a *App) Root() Widget {
	if a == nil {
		return nil
	}
	return a.root
}

// StateQueue returns the app's state queue.
func (a *App) StateQueue() *state.Queue {
	if a == nil {
		return nil
	}
	return a.stateQueue
}

// StateScheduler returns a scheduler that wakes the app to flush.
func (a *App) StateScheduler() state.Scheduler {
	if a == nil || a.queueScheduler == nil {
		return nil
	}
	return a.queueScheduler
}

// Invalidate requests a render pass.
func (a *App) Invalidate() {
	if a == nil || a.invalidator == nil {
		return
	}
	a.invalidator.Invalidate()
}

// Frames reports how many frames have been drawn.
func (a *App) Frames() int64 {
	return a.frames.Load()
}

// Spawn starts an effect using the app task context.
// If Run has not started, the effect is queued until start.
func (a *App) Spawn(effect Effect) {
	if a == nil || effect.Run == nil {
		return
	}
	a.pendingMu.Lock()
	if a.taskCtx == nil {
		a.pendingEffects = append(a.pendingEffects, effect)
		a.pendingMu.Unlock()
		return
	}
	a.pendingMu.Unlock()
	a.runEffect(effect)
}

// Every schedules a recurring message using the app task context.
func (a *App) Every(interval time.Duration, fn func(time.Time) Message) {
	a.Spawn(Every(interval, fn))
}

// Post sends a message to the event loop, dropping it when the buffer is full.
func (a *App) Post(msg Message) {
	_ = a.TryPost(msg)
}

// TryPost sends a message to the event loop without blocking.
func (a *App) TryPost(msg Message) bool {
	if a == nil || a.messages == nil || msg == nil {
		return false
	}
	select {
	case a.messages <- msg:
		return true
	default:
		a.logger.Debug().Str("message", fmt.Sprintf("%T", msg)).Msg("message dropped")
		return false
	}
}

// Run starts the event loop until Quit or context cancellation.
func (a *App) Run(ctx context.Context) error {
	if a.screen == nil {
		return ErrNoScreen
	}
	if ctx == nil {
		ctx = context.Background()
	}
	taskCtx, taskCancel := context.WithCancel(ctx)
	a.pendingMu.Lock()
	a.taskCtx = taskCtx
	a.taskCancel = taskCancel
	a.pendingMu.Unlock()
	defer func() {
		taskCancel()
		a.pendingMu.Lock()
		a.taskCtx = nil
		a.taskCancel = nil
		a.pendingMu.Unlock()
	}()

	if err := a.start(); err != nil {
		return err
	}
	defer a.stop()

	a.startPendingEffects()
	go a.pollEvents()

	var ticks <-chan time.Time
	if a.tickRate > 0 {
		ticker := time.NewTicker(a.tickRate)
		defer ticker.Stop()
		ticks = ticker.C
	}

	if a.dirty {
		a.render()
		a.dirty = false
	}
	for a.running.Load() {
		select {
		case <-ctx.Done():
			a.running.Store(false)
			a.cancelTasks()
		case msg := <-a.messages:
			a.process(msg)
		case now := <-ticks:
			a.process(TickMsg{Time: now})
		}
	}

	a.logger.Debug().Int64("frames", a.Frames()).Msg("app stopped")
	return ctx.Err()
}

func (a *App) start() error {
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	a.screen.HideCursor()
	w, h := a.screen.Size()
	a.resize(w, h)
	MountTree(a.root, a.Services())
	a.running.Store(true)
	a.dirty = true
	a.logger.Debug().Int("width", w).Int("height", h).Msg("app started")
	return nil
}

func (a *App) stop() {
	a.running.Store(false)
	UnmountTree(a.root)
	a.screen.Fini()
}

// process runs one message through update, queue flushing and rendering.
func (a *App) process(msg Message) {
	if a.update(a, msg) {
		a.dirty = true
	}
	if !a.running.Load() {
		return
	}
	if a.flushQueueIfNeeded(msg) {
		a.dirty = true
	}
	if _, ok := msg.(InvalidateMsg); ok {
		a.invalidator.resetPending()
	}
	if a.dirty {
		a.render()
		a.dirty = false
	}
}

// DefaultUpdate handles resizes, queued state updates and widget messages.
func DefaultUpdate(app *App, msg Message) bool {
	if app == nil {
		return false
	}

	switch m := msg.(type) {
	case ResizeMsg:
		app.resize(m.Width, m.Height)
		return true
	case ApplyMsg:
		if m.Effect == nil {
			return false
		}
		m.Effect()
		return true
	case QueueFlushMsg:
		return false
	case InvalidateMsg:
		return true
	default:
		return app.dispatchMessage(msg)
	}
}

func (a *App) dispatchMessage(msg Message) bool {
	handler, ok := a.root.(MessageHandler)
	if !ok {
		return false
	}
	result := handler.HandleMessage(msg)
	dirty := result.Handled
	for _, cmd := range result.Commands {
		if a.handleCommand(cmd) {
			dirty = true
		}
	}
	return dirty
}

func (a *App) handleCommand(cmd Command) bool {
	switch c := cmd.(type) {
	case Quit:
		a.running.Store(false)
		a.cancelTasks()
		return false
	case Refresh:
		if a.screen != nil {
			a.screen.Sync()
		}
		return true
	case SendMsg:
		if c.Message != nil {
			a.Post(c.Message)
		}
		return false
	case Effect:
		a.runEffect(c)
		return false
	default:
		if a.commandHandler != nil {
			return a.commandHandler(cmd)
		}
		return false
	}
}

// ExecuteCommand runs a command through the app handler.
func (a *App) ExecuteCommand(cmd Command) bool {
	if a == nil {
		return false
	}
	return a.handleCommand(cmd)
}

func (a *App) pollEvents() {
	for a.running.Load() {
		ev := a.screen.PollEvent()
		if ev == nil {
			return
		}
		switch e := ev.(type) {
		case *tcell.EventKey:
			a.Post(keyMsgFromEvent(e))
		case *tcell.EventResize:
			w, h := e.Size()
			a.Post(ResizeMsg{Width: w, Height: h})
		}
	}
}

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	if a.root != nil {
		a.root.Layout(Rect{Width: w, Height: h})
	}
}

func (a *App) render() {
	a.renderMu.Lock()
	defer a.renderMu.Unlock()

	if a.screen == nil {
		return
	}
	ctx := RenderContext{
		Screen: a.screen,
		Bounds: Rect{Width: a.width, Height: a.height},
	}
	ctx.Fill(' ', a.style)
	if a.root != nil {
		a.root.Render(ctx)
	}
	a.screen.Show()
	a.frames.Add(1)
}

func (a *App) taskContext() context.Context {
	a.pendingMu.Lock()
	defer a.pendingMu.Unlock()
	if a.taskCtx != nil {
		return a.taskCtx
	}
	return context.Background()
}

func (a *App) cancelTasks() {
	a.pendingMu.Lock()
	cancel := a.taskCancel
	a.pendingMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *App) runEffect(effect Effect) {
	if a == nil || effect.Run == nil {
		return
	}
	go effect.Run(a.taskContext(), a.TryPost)
}

func (a *App) startPendingEffects() {
	a.pendingMu.Lock()
	effects := a.pendingEffects
	a.pendingEffects = nil
	a.pendingMu.Unlock()
	for _, effect := range effects {
		a.runEffect(effect)
	}
}

func (a *App) flushQueueIfNeeded(msg Message) bool {
	if a.stateQueue == nil {
		return false
	}
	if !shouldFlushQueue(a.flushPolicy, msg) {
		return false
	}
	a.queueScheduler.resetPending()
	return a.stateQueue.Flush() > 0
}
