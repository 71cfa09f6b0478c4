package inspect

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/odvcencio/furry-state/state"
)

func increment(v int) int { return v + 1 }

func fixedClock() func() time.Time {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return at }
}

func TestWrap_ApplySendsEntryAfterListeners(t *testing.T) {
	cell := state.NewCell(1)
	rec := NewRecorder()
	store := Wrap[int](cell, Config{Name: "counter", Sink: rec, Clock: fixedClock()})

	var order []string
	store.Subscribe(func(v int) {
		order = append(order, "listener")
		if n := len(rec.Entries()); n != 0 {
			t.Fatalf("expected entry to be sent after listeners, found %d", n)
		}
	}).Must()

	effect := store.Apply(increment)
	if len(rec.Entries()) != 0 {
		t.Fatalf("expected nothing sent before the effect runs")
	}
	effect()

	entries := rec.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Store != "counter" || e.Action != "inspect.increment" || e.State != 2 {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if !e.At.Equal(fixedClock()()) {
		t.Fatalf("expected clock timestamp, got %v", e.At)
	}
	if e.ID.Time() != uint64(fixedClock()().UnixMilli()) {
		t.Fatalf("expected ID to carry the entry time")
	}
	if len(order) != 1 {
		t.Fatalf("expected listener to run once, got %v", order)
	}
	if got := rec.Stores(); len(got) != 1 || got[0] != "counter" {
		t.Fatalf("expected init for counter, got %v", got)
	}
}

func TestWrap_ApplyNamedAndSet(t *testing.T) {
	rec := NewRecorder()
	store := Wrap[string](state.NewCell("a"), Config{Sink: rec})

	store.ApplyNamed("shout", strings.ToUpper)()
	store.Set("z")()

	entries := rec.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Action != "shout" || entries[0].State != "A" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Action != "set" || entries[1].State != "z" || entries[1].Store != "store" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if entries[0].ID.Compare(entries[1].ID) >= 0 {
		t.Fatalf("expected increasing entry IDs")
	}
}

func TestWrap_ReducerPanicSendsNothing(t *testing.T) {
	rec := NewRecorder()
	store := Wrap[int](state.NewCell(1), Config{Sink: rec})

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		store.Apply(func(int) int { panic("nope") })()
	}()

	if len(rec.Entries()) != 0 {
		t.Fatalf("expected no entry for failed apply")
	}
	if store.Read() != 1 {
		t.Fatalf("expected state unchanged, got %d", store.Read())
	}
}

func TestWrap_TryApply(t *testing.T) {
	rec := NewRecorder()
	store := Wrap[int](state.NewCell(1), Config{Sink: rec})
	errBad := errors.New("bad")

	if err := store.TryApply(func(int) (int, error) { return 0, errBad })(); !errors.Is(err, errBad) {
		t.Fatalf("expected reducer error, got %v", err)
	}
	if err := store.TryApply(func(v int) (int, error) { return v * 3, nil })(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries := rec.Entries()
	if len(entries) != 1 || entries[0].State != 3 {
		t.Fatalf("expected one entry with state 3, got %+v", entries)
	}
}

func TestWrap_Projection(t *testing.T) {
	a := state.NewCell(1)
	b := state.NewCell(2)
	sum := state.Project2(a, b,
		func(x, y int) int { return x + y },
		func(v int) {
			a.Set(v / 2)()
			b.Set(v - v/2)()
		},
	)()
	rec := NewRecorder()
	store := Wrap[int](sum, Config{Name: "sum", Sink: rec})

	calls := 0
	store.Subscribe(func(int) { calls++ }).Must()
	store.Set(10)()

	if calls != 1 {
		t.Fatalf("expected projection contract to hold through the wrapper, got %d calls", calls)
	}
	if entries := rec.Entries(); len(entries) != 1 || entries[0].State != 10 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestSinkFrom(t *testing.T) {
	if SinkFrom(nil) != Nop {
		t.Fatalf("expected Nop for nil")
	}
	if SinkFrom("not a sink") != Nop {
		t.Fatalf("expected Nop for non-sink")
	}
	rec := NewRecorder()
	if SinkFrom(rec) != Sink(rec) {
		t.Fatalf("expected recorder to be used")
	}
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	store := Wrap[int](state.NewCell(0), Config{Sink: Multi(a, nil, b)})
	store.Apply(increment)()

	if len(a.Entries()) != 1 || len(b.Entries()) != 1 {
		t.Fatalf("expected both sinks to receive the entry")
	}
}

func TestActionName(t *testing.T) {
	if got := ActionName(increment); got != "inspect.increment" {
		t.Fatalf("expected inspect.increment, got %q", got)
	}
	if got := ActionName(nil); got != "anonymous" {
		t.Fatalf("expected anonymous for nil, got %q", got)
	}
	var nilFn func(int) int
	if got := ActionName(nilFn); got != "anonymous" {
		t.Fatalf("expected anonymous for nil func, got %q", got)
	}
	if got := ActionName(42); got != "anonymous" {
		t.Fatalf("expected anonymous for non-func, got %q", got)
	}
}

func TestRecorder_MarkdownAndHTML(t *testing.T) {
	rec := NewRecorder()
	store := Wrap[string](state.NewCell("a|b"), Config{Name: "pipes", Sink: rec})
	store.Set("c")()

	md := rec.Markdown()
	if !strings.Contains(md, `a\|b`) {
		t.Fatalf("expected escaped pipe in markdown:\n%s", md)
	}
	if !strings.Contains(md, "| 1 | pipes | set | c |") {
		t.Fatalf("expected set row in markdown:\n%s", md)
	}

	html, err := rec.HTML()
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	if !strings.Contains(html, "<table>") || !strings.Contains(html, "<td>pipes</td>") {
		t.Fatalf("expected html table, got:\n%s", html)
	}

	rec.Reset()
	if len(rec.Entries()) != 0 || len(rec.Stores()) != 0 {
		t.Fatalf("expected reset to clear history")
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))
	store := Wrap[int](state.NewCell(4), Config{Name: "count", Sink: sink})
	store.ApplyNamed("double", func(v int) int { return v * 2 })()

	out := buf.String()
	if !strings.Contains(out, `"message":"inspect init"`) {
		t.Fatalf("expected init event, got %s", out)
	}
	if !strings.Contains(out, `"action":"double"`) || !strings.Contains(out, `"state":"8"`) {
		t.Fatalf("expected apply event, got %s", out)
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)
	sink.Formatter = "noop"

	type point struct{ X, Y int }
	store := Wrap[point](state.NewCell(point{1, 2}), Config{Name: "pt", Sink: sink})
	store.ApplyNamed("move", func(p point) point { p.X = 9; return p })()

	if err := sink.Err(); err != nil {
		t.Fatalf("console sink: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "[pt] init") || !strings.Contains(out, "[pt] move") {
		t.Fatalf("expected headers, got %q", out)
	}
	if !strings.Contains(out, "X:9, Y:2") {
		t.Fatalf("expected Go dump of state, got %q", out)
	}
}
