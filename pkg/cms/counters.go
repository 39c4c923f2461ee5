package cms

import (
	"context"
	"fmt"
	"net/url"
)

// ErrNotFound is returned when no entry exists for a slug.
var ErrNotFound = fmt.Errorf("cms: entry not found")

// entryBySlug fetches a single entry by its slug, requesting only the
// named fields plus the documentId needed for updates.
func (c *Client) entryBySlug(ctx context.Context, slug string, fields ...string) (Entry, error) {
	q := url.Values{}
	q.Set("filters[slug][$eq]", slug)
	for i, f := range fields {
		q.Set(fmt.Sprintf("fields[%d]", i), f)
	}
	q.Set(fmt.Sprintf("fields[%d]", len(fields)), "documentId")

	entries, err := c.fetchEntries(ctx, q)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("%w: slug %q", ErrNotFound, slug)
	}
	return entries[0], nil
}

// IncrementViews bumps an entry's view counter by one and returns the
// updated count. The counter is a read-modify-write against the
// backend: fetch the current value by slug, write value+1 by document
// id. Lost updates under true concurrency are accepted, matching the
// site's behavior.
func (c *Client) IncrementViews(ctx context.Context, slug string) (int, error) {
	entry, err := c.entryBySlug(ctx, slug, "views")
	if err != nil {
		return 0, err
	}
	if entry.DocumentID == "" {
		return 0, fmt.Errorf("cms: entry %q has no documentId", slug)
	}

	updated := entry.Views + 1
	payload := map[string]any{"data": map[string]any{"views": updated}}
	if _, err := c.put(ctx, c.collectionURL()+"/"+entry.DocumentID, payload); err != nil {
		return 0, err
	}
	return updated, nil
}

// SetRating writes an entry's rating. Ratings are whole stars from 1
// to 5; anything else is rejected before any request is made.
func (c *Client) SetRating(ctx context.Context, slug string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("cms: rating must be between 1 and 5, got %d", rating)
	}
	entry, err := c.entryBySlug(ctx, slug, "rating")
	if err != nil {
		return err
	}
	if entry.DocumentID == "" {
		return fmt.Errorf("cms: entry %q has no documentId", slug)
	}

	payload := map[string]any{"data": map[string]any{"rating": rating}}
	_, err = c.put(ctx, c.collectionURL()+"/"+entry.DocumentID, payload)
	return err
}
