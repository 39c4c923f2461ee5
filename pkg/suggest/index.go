package suggest

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/tchap/go-patricia/v2/patricia"

	"recipesuggest/internal/utils"
)

// Index is a read-only approximate-match index over a snapshot of
// items. It is immutable after construction: Search never mutates it
// and concurrent lookups need no locking. Replacing the snapshot means
// building a new Index and swapping the pointer.
type Index struct {
	items     []Item
	folded    []string
	trie      *patricia.Trie
	threshold float64
}

// foldedTitles adapts the folded title slice to fuzzy.Source.
type foldedTitles []string

func (f foldedTitles) String(i int) string { return f[i] }
func (f foldedTitles) Len() int            { return len(f) }

// NewIndex builds an index from a bulk snapshot. Items are deduplicated
// by ID, first occurrence wins. The threshold is the fuzzy tolerance on
// a 0-1 scale: 0 admits exact-shape matches only, 1 admits anything.
func NewIndex(items []Item, threshold float64) *Index {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}

	ix := &Index{
		trie:      patricia.NewTrie(),
		threshold: threshold,
	}

	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" || seen[it.ID] {
			continue
		}
		seen[it.ID] = true

		pos := len(ix.items)
		ix.items = append(ix.items, it)
		key := utils.Fold(it.Title)
		ix.folded = append(ix.folded, key)

		// Several titles can fold to the same key.
		if existing := ix.trie.Get(patricia.Prefix(key)); existing != nil {
			ix.trie.Set(patricia.Prefix(key), append(existing.([]int), pos))
		} else {
			ix.trie.Insert(patricia.Prefix(key), []int{pos})
		}
	}
	return ix
}

// Len returns the number of indexed items.
func (ix *Index) Len() int { return len(ix.items) }

// Search returns up to limit items ordered by match quality, best
// first. Matching is case- and diacritic-insensitive: exact-prefix hits
// rank above fuzzy subsequence hits, which are admitted only within the
// configured tolerance. Blank queries yield nothing. The result order
// is deterministic, so identical calls yield identical results.
func (ix *Index) Search(query string, limit int) []Item {
	if ix == nil || limit <= 0 || utils.IsBlank(query) {
		return nil
	}
	key := utils.Fold(strings.TrimSpace(query))
	if key == "" {
		return nil
	}

	picked := make([]int, 0, limit)
	seen := make(map[int]bool, limit)

	for _, pos := range ix.prefixMatches(key) {
		if len(picked) == limit {
			return ix.collect(picked)
		}
		seen[pos] = true
		picked = append(picked, pos)
	}

	for _, m := range fuzzy.FindFrom(key, foldedTitles(ix.folded)) {
		if len(picked) == limit {
			break
		}
		if seen[m.Index] || !ix.withinThreshold(key, m) {
			continue
		}
		seen[m.Index] = true
		picked = append(picked, m.Index)
	}
	return ix.collect(picked)
}

// prefixMatches walks the trie subtree under key and returns item
// positions sorted by folded title length, then lexically: the closest
// completions of the typed text come first.
func (ix *Index) prefixMatches(key string) []int {
	var hits []int
	_ = ix.trie.VisitSubtree(patricia.Prefix(key), func(p patricia.Prefix, item patricia.Item) error {
		hits = append(hits, item.([]int)...)
		return nil
	})
	sort.Slice(hits, func(i, j int) bool {
		a, b := ix.folded[hits[i]], ix.folded[hits[j]]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		if a != b {
			return a < b
		}
		return hits[i] < hits[j]
	})
	return hits
}

// withinThreshold applies the tolerance cut to a fuzzy match. The
// match's spread over the candidate is normalized to 0 (contiguous,
// substring-like) through 1 (scattered); matches looser than the
// threshold are rejected.
func (ix *Index) withinThreshold(key string, m fuzzy.Match) bool {
	if ix.threshold >= 1 {
		return true
	}
	if len(m.MatchedIndexes) == 0 {
		return false
	}
	span := m.MatchedIndexes[len(m.MatchedIndexes)-1] - m.MatchedIndexes[0] + 1
	if span <= 0 {
		return false
	}
	spread := 1 - float64(len(key))/float64(span)
	return spread <= ix.threshold
}

func (ix *Index) collect(positions []int) []Item {
	if len(positions) == 0 {
		return nil
	}
	out := make([]Item, len(positions))
	for i, pos := range positions {
		out[i] = ix.items[pos]
	}
	return out
}
