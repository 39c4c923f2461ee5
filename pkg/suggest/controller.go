package suggest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// State is a snapshot of the controller's query state, safe to render
// from any goroutine. ActiveIndex is -1 or a valid index into
// Suggestions.
type State struct {
	Text        string
	Suggestions []Item
	Open        bool
	Loading     bool
	ActiveIndex int
}

// Options configures a Controller. Zero values fall back to the
// package defaults; Remote, Navigate and Notify may all be nil.
type Options struct {
	// InitialText seeds the input, typically from the page's query
	// parameter.
	InitialText string
	Limit       int
	Debounce    time.Duration
	// Timeout bounds each remote lookup; expiry counts as a failed
	// fetch.
	Timeout  time.Duration
	Remote   Source
	Navigate Navigator
	// Notify is called (without the controller lock held) whenever the
	// visible state changes, so a UI can repaint.
	Notify func()
	Logger *log.Logger
}

// Controller mediates between raw input and the suggestion sources.
// It debounces keystrokes, picks the local index when built and the
// remote source otherwise, and guards result application with the
// query-token rule. All methods are safe for concurrent use; debounce
// timers and remote fetches complete on their own goroutines.
type Controller struct {
	mu sync.Mutex

	limit    int
	debounce time.Duration
	timeout  time.Duration
	remote   Source
	navigate Navigator
	notify   func()
	log      *log.Logger

	index       *Index
	text        string
	suggestions []Item
	open        bool
	loading     bool
	active      int
	timer       *time.Timer
	stopped     bool
}

// NewController creates a controller. When opts.Remote is nil and no
// index is ever installed the widget simply operates suggestion-free.
func NewController(opts Options) *Controller {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Remote == nil {
		opts.Logger.Warn("no remote suggestion source configured, falling back to local index only")
	}
	return &Controller{
		limit:    opts.Limit,
		debounce: opts.Debounce,
		timeout:  opts.Timeout,
		remote:   opts.Remote,
		navigate: opts.Navigate,
		notify:   opts.Notify,
		log:      opts.Logger,
		text:     opts.InitialText,
		active:   -1,
	}
}

// SetIndex installs the local fuzzy index once its bulk snapshot has
// loaded. Until then every lookup goes to the remote source.
func (c *Controller) SetIndex(ix *Index) {
	c.mu.Lock()
	c.index = ix
	c.mu.Unlock()
}

// SetText updates the raw input immediately and re-arms the debounce
// timer; the previous timer is always cancelled first, so exactly one
// is live at a time. Clearing the input short-circuits to the empty
// state with no debounce.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	c.text = text
	c.stopTimerLocked()

	if strings.TrimSpace(text) == "" {
		c.suggestions = nil
		c.open = false
		c.loading = false
		c.active = -1
		c.mu.Unlock()
		c.changed()
		return
	}

	c.timer = time.AfterFunc(c.debounce, c.fireDebounce)
	c.mu.Unlock()
	c.changed()
}

// fireDebounce runs once the quiet period elapses. It snapshots the
// current trimmed text as the lookup token and consults the local
// index first, the remote source second.
func (c *Controller) fireDebounce() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	token := strings.TrimSpace(c.text)
	if token == "" {
		c.mu.Unlock()
		return
	}

	if ix := c.index; ix != nil {
		items := ix.Search(token, c.limit)
		c.applyLocked(items)
		c.mu.Unlock()
		c.changed()
		return
	}

	if c.remote == nil {
		c.applyLocked(nil)
		c.mu.Unlock()
		c.changed()
		return
	}

	c.loading = true
	remote, limit, timeout := c.remote, c.limit, c.timeout
	c.mu.Unlock()
	c.changed()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		items, err := remote.Suggest(ctx, token, limit)
		if err != nil {
			c.log.Error("remote suggestion lookup failed", "query", token, "err", err)
			items = nil
		}
		c.resolve(token, items)
	}()
}

// resolve applies a completed lookup. The result is dropped when its
// token no longer matches the current trimmed input; that check is the
// sole defense against out-of-order completion and substitutes for
// request cancellation.
func (c *Controller) resolve(token string, items []Item) {
	c.mu.Lock()
	if c.stopped || token != strings.TrimSpace(c.text) {
		if !c.stopped {
			c.log.Debug("discarding stale suggestion result", "token", token)
		}
		c.mu.Unlock()
		return
	}
	c.applyLocked(items)
	c.mu.Unlock()
	c.changed()
}

// applyLocked replaces the suggestion list atomically. Callers hold
// the lock and have already verified the token.
func (c *Controller) applyLocked(items []Item) {
	if len(items) > c.limit {
		items = items[:c.limit]
	}
	c.suggestions = append([]Item(nil), items...)
	c.open = len(c.suggestions) > 0
	c.loading = false
	c.active = -1
}

// Select accepts a suggestion: the input takes the item's title, the
// dropdown closes and navigation fires with that title as the query.
func (c *Controller) Select(item Item) {
	c.mu.Lock()
	c.stopTimerLocked()
	c.text = item.Title
	c.open = false
	c.loading = false
	c.active = -1
	nav := c.navigate
	c.mu.Unlock()
	c.changed()
	if nav != nil {
		nav(item.Title)
	}
}

// SelectActive accepts the keyboard-highlighted suggestion, or submits
// the raw text when nothing is highlighted.
func (c *Controller) SelectActive() {
	c.mu.Lock()
	var item Item
	ok := c.open && c.active >= 0 && c.active < len(c.suggestions)
	if ok {
		item = c.suggestions[c.active]
	}
	c.mu.Unlock()
	if ok {
		c.Select(item)
		return
	}
	c.Submit()
}

// Submit navigates with the trimmed input text. Submitting does not
// depend on any lookup having completed; empty text is a no-op.
func (c *Controller) Submit() {
	c.mu.Lock()
	query := strings.TrimSpace(c.text)
	if query == "" {
		c.mu.Unlock()
		return
	}
	c.stopTimerLocked()
	c.open = false
	c.loading = false
	c.active = -1
	nav := c.navigate
	c.mu.Unlock()
	c.changed()
	if nav != nil {
		nav(query)
	}
}

// MoveActive moves the keyboard highlight by delta with wraparound.
// With cached suggestions and a closed dropdown, the first move reopens
// it on index 0.
func (c *Controller) MoveActive(delta int) {
	c.mu.Lock()
	n := len(c.suggestions)
	if n == 0 {
		c.mu.Unlock()
		return
	}
	switch {
	case !c.open:
		c.open = true
		c.active = 0
	case c.active < 0:
		if delta >= 0 {
			c.active = 0
		} else {
			c.active = n - 1
		}
	default:
		c.active = ((c.active+delta)%n + n) % n
	}
	c.mu.Unlock()
	c.changed()
}

// Close hides the dropdown without touching the input text, as when
// the user clicks outside the widget.
func (c *Controller) Close() {
	c.mu.Lock()
	c.open = false
	c.active = -1
	c.mu.Unlock()
	c.changed()
}

// Stop tears the controller down on unmount: the pending debounce is
// cancelled and late lookup results become inert.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.stopTimerLocked()
	c.mu.Unlock()
}

// State returns a copy of the current query state for rendering.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Text:        c.text,
		Suggestions: append([]Item(nil), c.suggestions...),
		Open:        c.open,
		Loading:     c.loading,
		ActiveIndex: c.active,
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) changed() {
	if c.notify != nil {
		c.notify()
	}
}
