// Package cli handles line-mode input and suggestions for DBG and testing various features
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"recipesuggest/pkg/suggest"
)

// InputHandler reads queries from stdin and prints ranked suggestions.
// It resolves each query the way the widget would: local index when
// available, remote search otherwise.
type InputHandler struct {
	index       *suggest.Index
	remote      suggest.Source
	limit       int
	maxQueryLen int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(index *suggest.Index, remote suggest.Source, limit, maxQueryLen int) *InputHandler {
	return &InputHandler{
		index:       index,
		remote:      remote,
		limit:       limit,
		maxQueryLen: maxQueryLen,
	}
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin,
// and passes the trimmed query to handleInput() for processing.
// Loop terminates if an error occurs while reading from stdin.
func (h *InputHandler) Start() error {
	log.Print("recipesuggest CLI")
	reader := bufio.NewReader(os.Stdin)
	log.Print("type a recipe name fragment and press Enter (Ctrl+C to exit):")

	for {
		log.Print("> ")
		query, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		h.handleInput(query)
	}
}

// handleInput resolves a single query and prints the results.
func (h *InputHandler) handleInput(query string) {
	if len(query) > h.maxQueryLen {
		log.Errorf("Query too long: %s", query)
		return
	}

	start := time.Now()
	var items []suggest.Item
	if h.index != nil {
		items = h.index.Search(query, h.limit)
	} else if h.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), suggest.DefaultTimeout)
		defer cancel()
		var err error
		items, err = h.remote.Suggest(ctx, query, h.limit)
		if err != nil {
			log.Errorf("Remote lookup failed for '%s': %v", query, err)
			return
		}
	}
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for query '%s'", elapsed, query)

	if len(items) == 0 {
		log.Warnf("No suggestions found for query: '%s'", query)
		return
	}

	log.Printf("Found %d suggestions for query '%s':", len(items), query)
	for i, it := range items {
		clTitle := fmt.Sprintf("\033[38;5;75m%s\033[0m", it.Title)
		log.Printf("%2d. %-40s (/receptek/%s)", i+1, clTitle, it.Slug)
	}
}
