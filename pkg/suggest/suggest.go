/*
Package suggest implements the incremental search-suggestion engine.

The engine has three cooperating pieces: an immutable fuzzy Index built
once from a bulk snapshot of recipe titles, a remote Source consulted
while the index is still loading, and a Controller that owns the query
state, debounces keystrokes and applies lookup results in a race-safe
order. A lookup result is tagged with the query text it was issued for
and is discarded when that text no longer matches the input, so a slow
early request can never overwrite a faster later one.
*/
package suggest

import (
	"context"
	"time"
)

// Default tuning values, matching the reference widget behavior.
const (
	DefaultLimit     = 5
	DefaultDebounce  = 300 * time.Millisecond
	DefaultThreshold = 0.3
	DefaultTimeout   = 8 * time.Second
)

// Item is one searchable entity: a recipe title with its routing key.
type Item struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug,omitempty"`
}

// Source answers suggestion lookups, typically against the CMS backend.
// Implementations return at most limit items, best match first.
type Source interface {
	Suggest(ctx context.Context, query string, limit int) ([]Item, error)
}

// Navigator is invoked on submit or selection with the chosen query
// text. URL encoding and routing are the caller's concern.
type Navigator func(query string)
