package inspect

import (
	"fmt"
	"io"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/rs/zerolog"
)

// LogSink writes one log event per init and per applied update.
type LogSink struct {
	Logger zerolog.Logger
}

// NewLogSink creates a sink on logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{Logger: logger}
}

// Init logs the announced store.
func (l *LogSink) Init(store string, state any) {
	l.Logger.Info().
		Str("store", store).
		Str("state", fmt.Sprintf("%+v", state)).
		Msg("inspect init")
}

// Send logs an applied update.
func (l *LogSink) Send(entry Entry) {
	l.Logger.Info().
		Str("id", entry.ID.String()).
		Str("store", entry.Store).
		Str("action", entry.Action).
		Str("state", fmt.Sprintf("%+v", entry.State)).
		Time("at", entry.At).
		Msg("inspect apply")
}

// ConsoleSink prints each update with a syntax-highlighted Go dump of the state.
type ConsoleSink struct {
	// Formatter is a chroma formatter name. Defaults to "terminal256".
	Formatter string
	// Style is a chroma style name. Defaults to "monokai".
	Style string

	mu  sync.Mutex
	out io.Writer
	err error
}

// NewConsoleSink creates a console sink writing to out.
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

// Init prints the announced store.
func (c *ConsoleSink) Init(store string, state any) {
	c.write(fmt.Sprintf("[%s] init\n", store), state)
}

// Send prints an applied update.
func (c *ConsoleSink) Send(entry Entry) {
	c.write(fmt.Sprintf("[%s] %s %s\n", entry.Store, entry.Action, entry.ID), entry.State)
}

// Err returns the first write or highlight failure.
func (c *ConsoleSink) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *ConsoleSink) write(header string, state any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out == nil || c.err != nil {
		return
	}
	formatter := c.Formatter
	if formatter == "" {
		formatter = "terminal256"
	}
	style := c.Style
	if style == "" {
		style = "monokai"
	}
	if _, err := io.WriteString(c.out, header); err != nil {
		c.err = err
		return
	}
	if err := quick.Highlight(c.out, fmt.Sprintf("%#v", state), "go", formatter, style); err != nil {
		c.err = err
		return
	}
	if _, err := io.WriteString(c.out, "\n"); err != nil {
		c.err = err
	}
}
