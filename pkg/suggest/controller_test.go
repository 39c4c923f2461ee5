package suggest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

const testDebounce = 20 * time.Millisecond

// settle waits long enough for a pending debounce and lookup to run.
func settle() {
	time.Sleep(6 * testDebounce)
}

// recordingSource counts lookups and replays canned results.
type recordingSource struct {
	mu      sync.Mutex
	queries []string
	items   []Item
	err     error
	delay   time.Duration
}

func (r *recordingSource) Suggest(ctx context.Context, query string, limit int) ([]Item, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	items, err, delay := r.items, r.err, r.delay
	r.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return items, err
}

func (r *recordingSource) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queries...)
}

// recordingNav captures navigation calls.
type recordingNav struct {
	mu      sync.Mutex
	queries []string
}

func (n *recordingNav) navigate(query string) {
	n.mu.Lock()
	n.queries = append(n.queries, query)
	n.mu.Unlock()
}

func (n *recordingNav) calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.queries...)
}

func newTestController(t *testing.T, opts Options) *Controller {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = testDebounce
	}
	c := NewController(opts)
	t.Cleanup(c.Stop)
	return c
}

func TestDebounceCoalescing(t *testing.T) {
	src := &recordingSource{}
	c := newTestController(t, Options{Remote: src})

	c.SetText("q")
	c.SetText("q2")
	settle()

	calls := src.calls()
	if len(calls) != 1 {
		t.Fatalf("expected exactly one lookup, got %v", calls)
	}
	if calls[0] != "q2" {
		t.Errorf("lookup used token %q, want %q", calls[0], "q2")
	}
}

func TestEmptyTextShortCircuits(t *testing.T) {
	src := &recordingSource{items: []Item{{ID: "1", Title: "Almás pite"}}}
	c := newTestController(t, Options{Remote: src})

	c.SetText("alma")
	settle()
	if st := c.State(); !st.Open {
		t.Fatal("expected dropdown to open after lookup")
	}

	c.SetText("   ")
	st := c.State()
	if st.Open || len(st.Suggestions) != 0 || st.ActiveIndex != -1 || st.Loading {
		t.Errorf("blank input should clear state, got %+v", st)
	}

	settle()
	if calls := src.calls(); len(calls) != 1 {
		t.Errorf("blank input must not schedule a lookup, got %v", calls)
	}
}

func TestSubmitWithoutSuggestions(t *testing.T) {
	nav := &recordingNav{}
	c := newTestController(t, Options{Navigate: nav.navigate})

	c.SetText("  bográcsgulyás  ")
	c.Submit()

	if calls := nav.calls(); len(calls) != 1 || calls[0] != "bográcsgulyás" {
		t.Errorf("Submit navigated with %v, want [bográcsgulyás]", calls)
	}
}

func TestSubmitEmptyIsNoop(t *testing.T) {
	nav := &recordingNav{}
	c := newTestController(t, Options{Navigate: nav.navigate})

	c.SetText("   ")
	c.Submit()

	if calls := nav.calls(); len(calls) != 0 {
		t.Errorf("empty Submit navigated with %v", calls)
	}
}

func TestStaleTokenDiscarded(t *testing.T) {
	c := newTestController(t, Options{Debounce: time.Hour})

	c.SetText("cats")
	c.resolve("cats", []Item{{ID: "1", Title: "cats"}})
	c.resolve("cat", []Item{{ID: "2", Title: "cat"}})

	st := c.State()
	if len(st.Suggestions) != 1 || st.Suggestions[0].Title != "cats" {
		t.Errorf("stale result replaced fresh one: %+v", st.Suggestions)
	}
}

func TestRemoteFailureResolvesEmpty(t *testing.T) {
	src := &recordingSource{err: errors.New("HTTP 500")}
	c := newTestController(t, Options{Remote: src})

	c.SetText("xyz123")
	settle()

	st := c.State()
	if st.Loading {
		t.Error("loading should clear after a failed lookup")
	}
	if st.Open || len(st.Suggestions) != 0 {
		t.Errorf("failed lookup should leave the dropdown closed, got %+v", st)
	}
}

func TestRemoteTimeoutResolvesEmpty(t *testing.T) {
	src := &recordingSource{delay: time.Second, items: []Item{{ID: "1", Title: "késő"}}}
	c := newTestController(t, Options{Remote: src, Timeout: 30 * time.Millisecond})

	c.SetText("lassú")
	time.Sleep(10 * testDebounce)

	st := c.State()
	if st.Loading || st.Open || len(st.Suggestions) != 0 {
		t.Errorf("timed-out lookup should resolve empty, got %+v", st)
	}
}

func TestLocalIndexPreferred(t *testing.T) {
	src := &recordingSource{}
	c := newTestController(t, Options{Remote: src})
	c.SetIndex(NewIndex(sampleItems(), DefaultThreshold))

	c.SetText("almas")
	settle()

	if calls := src.calls(); len(calls) != 0 {
		t.Errorf("remote consulted despite local index: %v", calls)
	}
	st := c.State()
	if !st.Open || len(st.Suggestions) != 2 {
		t.Errorf("local lookup state = %+v", st)
	}
}

func TestSuggestionsCappedAtLimit(t *testing.T) {
	c := newTestController(t, Options{Limit: 5, Debounce: time.Hour})

	many := make([]Item, 10)
	for i := range many {
		many[i] = Item{ID: string(rune('a' + i)), Title: "recept"}
	}
	c.SetText("recept")
	c.resolve("recept", many)

	if st := c.State(); len(st.Suggestions) != 5 {
		t.Errorf("got %d suggestions, want 5", len(st.Suggestions))
	}
}

func TestArrowDownReopensWithCached(t *testing.T) {
	c := newTestController(t, Options{Debounce: time.Hour})

	c.SetText("alma")
	c.resolve("alma", []Item{{ID: "1", Title: "Almás pite"}, {ID: "2", Title: "Almás torta"}})
	c.Close()

	if st := c.State(); st.Open {
		t.Fatal("dropdown should be closed")
	}

	c.MoveActive(1)
	st := c.State()
	if !st.Open || st.ActiveIndex != 0 {
		t.Errorf("ArrowDown on closed dropdown: open=%v active=%d, want open on index 0", st.Open, st.ActiveIndex)
	}
}

func TestMoveActiveWraparound(t *testing.T) {
	c := newTestController(t, Options{Debounce: time.Hour})
	c.SetText("alma")
	c.resolve("alma", []Item{{ID: "1", Title: "a"}, {ID: "2", Title: "b"}, {ID: "3", Title: "c"}})

	steps := []struct {
		delta int
		want  int
	}{
		{1, 0},  // open with no highlight: down lands on the first item
		{1, 1},
		{1, 2},
		{1, 0},  // wraps forward
		{-1, 2}, // wraps backward
	}
	for _, step := range steps {
		c.MoveActive(step.delta)
		if got := c.State().ActiveIndex; got != step.want {
			t.Fatalf("MoveActive(%d): ActiveIndex = %d, want %d", step.delta, got, step.want)
		}
	}
}

func TestMoveActiveEmptyIsNoop(t *testing.T) {
	c := newTestController(t, Options{})
	c.MoveActive(1)
	if st := c.State(); st.Open || st.ActiveIndex != -1 {
		t.Errorf("MoveActive on empty state changed it: %+v", st)
	}
}

func TestSelectSuggestion(t *testing.T) {
	nav := &recordingNav{}
	c := newTestController(t, Options{Navigate: nav.navigate, Debounce: time.Hour})

	c.SetText("csoki")
	c.resolve("csoki", []Item{{ID: "7", Title: "Csokis brownie"}})
	c.Select(Item{ID: "7", Title: "Csokis brownie"})

	st := c.State()
	if st.Text != "Csokis brownie" {
		t.Errorf("Text = %q, want the selected title", st.Text)
	}
	if st.Open || st.ActiveIndex != -1 {
		t.Errorf("selection should close the dropdown, got %+v", st)
	}
	if calls := nav.calls(); len(calls) != 1 || calls[0] != "Csokis brownie" {
		t.Errorf("navigation calls = %v, want exactly one with the title", calls)
	}
}

func TestSelectActiveFallsBackToSubmit(t *testing.T) {
	nav := &recordingNav{}
	c := newTestController(t, Options{Navigate: nav.navigate, Debounce: time.Hour})

	c.SetText("gulyás")
	c.SelectActive()

	if calls := nav.calls(); len(calls) != 1 || calls[0] != "gulyás" {
		t.Errorf("SelectActive without highlight should submit, got %v", calls)
	}
}

func TestSelectActiveUsesHighlight(t *testing.T) {
	nav := &recordingNav{}
	c := newTestController(t, Options{Navigate: nav.navigate, Debounce: time.Hour})

	c.SetText("alma")
	c.resolve("alma", []Item{{ID: "1", Title: "Almás pite"}, {ID: "2", Title: "Almás torta"}})
	c.MoveActive(1)
	c.MoveActive(1)
	c.SelectActive()

	if calls := nav.calls(); len(calls) != 1 || calls[0] != "Almás torta" {
		t.Errorf("SelectActive navigated with %v, want [Almás torta]", calls)
	}
	if st := c.State(); st.Text != "Almás torta" {
		t.Errorf("Text = %q after selecting highlight", st.Text)
	}
}

func TestInitialTextSeeded(t *testing.T) {
	c := newTestController(t, Options{InitialText: "palacsinta"})
	if st := c.State(); st.Text != "palacsinta" {
		t.Errorf("Text = %q, want seeded query", st.Text)
	}
}

func TestStopCancelsPendingWork(t *testing.T) {
	src := &recordingSource{}
	c := NewController(Options{Remote: src, Debounce: testDebounce})

	c.SetText("alma")
	c.Stop()
	settle()

	if calls := src.calls(); len(calls) != 0 {
		t.Errorf("lookup fired after Stop: %v", calls)
	}
}

func TestSuggestionsReplacedNotMutated(t *testing.T) {
	c := newTestController(t, Options{Debounce: time.Hour})

	c.SetText("a")
	c.resolve("a", []Item{{ID: "1", Title: "első"}})
	first := c.State().Suggestions

	c.SetText("b")
	c.resolve("b", []Item{{ID: "2", Title: "második"}})

	if len(first) != 1 || first[0].Title != "első" {
		t.Errorf("earlier snapshot was mutated: %+v", first)
	}
}
