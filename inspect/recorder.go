package inspect

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Recorder keeps every event in memory.
type Recorder struct {
	mu      sync.Mutex
	inits   []Entry
	entries []Entry
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Init records the announced store.
func (r *Recorder) Init(store string, state any) {
	r.mu.Lock()
	r.inits = append(r.inits, Entry{Store: store, Action: "init", State: state})
	r.mu.Unlock()
}

// Send records an entry.
func (r *Recorder) Send(entry Entry) {
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

// Entries returns a copy of the recorded entries in arrival order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Stores returns the names announced through Init.
func (r *Recorder) Stores() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.inits))
	for i, e := range r.inits {
		names[i] = e.Store
	}
	return names
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.inits = nil
	r.entries = nil
	r.mu.Unlock()
}

// Markdown renders the recorded history as a markdown table.
func (r *Recorder) Markdown() string {
	r.mu.Lock()
	inits := append([]Entry(nil), r.inits...)
	entries := append([]Entry(nil), r.entries...)
	r.mu.Unlock()

	var b strings.Builder
	b.WriteString("| # | Store | Action | State |\n")
	b.WriteString("|---|---|---|---|\n")
	row := 0
	for _, e := range inits {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", row, cell(e.Store), cell(e.Action), cell(fmt.Sprintf("%+v", e.State)))
		row++
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", row, cell(e.Store), cell(e.Action), cell(fmt.Sprintf("%+v", e.State)))
		row++
	}
	return b.String()
}

// HTML renders the recorded history as an HTML table.
func (r *Recorder) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(r.Markdown()), &buf); err != nil {
		return "", fmt.Errorf("render history: %w", err)
	}
	return buf.String(), nil
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
