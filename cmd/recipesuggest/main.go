/*
Package main implements the recipe suggestion server and CLI.

recipesuggest provides incremental search suggestions for the recipe
collection of a headless CMS backend. It builds an in-memory fuzzy
index from a one-time bulk listing of all recipe titles and answers
lookups from it without a network round trip; until the index is built
(or if the bulk listing fails) lookups fall back to the backend's
case-insensitive substring search.

# Usage

Start the msgpack IPC server with default settings:

	recipesuggest

Run the interactive terminal widget:

	recipesuggest -i

Run the line-mode debug CLI:

	recipesuggest -cli

# Configuration

Runtime configuration lives in a TOML file that is created with
defaults on first run:

	[backend]
	url = "http://localhost:1337"
	collection = "recepteks"
	bulk_limit = 1000

	[suggest]
	limit = 5
	debounce_ms = 300
	threshold = 0.3

The backend URL and API token can be overridden through the
RECIPES_BACKEND_URL and RECIPES_API_TOKEN environment variables. A
missing backend URL is not fatal: the process runs suggestion-free and
logs the degradation once.
*/
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"recipesuggest/internal/cli"
	"recipesuggest/internal/tui"
	"recipesuggest/pkg/cms"
	"recipesuggest/pkg/config"
	"recipesuggest/pkg/server"
	"recipesuggest/pkg/suggest"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to config.toml (default: ~/.config/recipesuggest/config.toml)")
		interactive = flag.Bool("i", false, "run the interactive terminal search widget")
		lineMode    = flag.Bool("cli", false, "run the line-mode debug CLI")
		limit       = flag.Int("limit", 0, "override the suggestion limit")
		query       = flag.String("query", "", "seed the widget with an initial query")
		debug       = flag.Bool("d", false, "enable debug logging")
	)
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, cfgPath := config.LoadConfigWithPriority(*configPath)
	if cfgPath != "" {
		log.Debugf("using config: %s", cfgPath)
	}
	if *limit > 0 {
		cfg.Suggest.Limit = *limit
	}

	client := newClient(cfg)

	switch {
	case *interactive:
		runTUI(cfg, client, *query)
	case *lineMode:
		runCLI(cfg, client)
	default:
		runServer(cfg, client)
	}
}

// newClient builds the backend client, degrading to nil when the
// backend is not configured.
func newClient(cfg *config.Config) *cms.Client {
	client, err := cms.NewClient(cfg.Backend.URL, cfg.Backend.Collection, cfg.Backend.APIToken)
	if err != nil {
		log.Errorf("backend disabled: %v", err)
		return nil
	}
	return client
}

// buildIndex fetches the bulk snapshot and builds the local fuzzy
// index. Returns nil when the backend is unavailable; callers keep
// operating through the remote fallback.
func buildIndex(cfg *config.Config, client *cms.Client) *suggest.Index {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items, err := client.List(ctx, cfg.Backend.BulkLimit)
	if err != nil {
		log.Errorf("bulk listing failed, staying on remote lookups: %v", err)
		return nil
	}
	ix := suggest.NewIndex(items, cfg.Suggest.Threshold)
	log.Debugf("fuzzy index built with %d items", ix.Len())
	return ix
}

func runServer(cfg *config.Config, client *cms.Client) {
	srv := server.NewServer(client, &cfg.Server)
	go func() {
		if ix := buildIndex(cfg, client); ix != nil {
			srv.SetIndex(ix)
		}
	}()
	if err := srv.Start(); err != nil {
		log.Fatalf("IPC server: %v", err)
	}
}

func runTUI(cfg *config.Config, client *cms.Client, initialQuery string) {
	var remote suggest.Source
	if client != nil {
		remote = client
	}
	settings := tui.SuggestSettings{
		Limit:    cfg.Suggest.Limit,
		Debounce: time.Duration(cfg.Suggest.DebounceMs) * time.Millisecond,
	}
	err := tui.Run(initialQuery, remote, settings, func() *suggest.Index {
		return buildIndex(cfg, client)
	})
	if err != nil {
		log.Fatalf("widget: %v", err)
	}
}

func runCLI(cfg *config.Config, client *cms.Client) {
	var remote suggest.Source
	if client != nil {
		remote = client
	}
	handler := cli.NewInputHandler(buildIndex(cfg, client), remote, cfg.Suggest.Limit, cfg.Server.MaxQueryLen)
	if err := handler.Start(); err != nil {
		log.Errorf("CLI input: %v", err)
		os.Exit(1)
	}
}
