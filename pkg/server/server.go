package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"recipesuggest/internal/logger"
	"recipesuggest/internal/utils"
	"recipesuggest/pkg/cms"
	"recipesuggest/pkg/config"
	"recipesuggest/pkg/suggest"
)

// Server handles the IPC for recipe suggestions. Lookups use the local
// fuzzy index once it is installed and fall back to the remote search
// until then, the same source rule the interactive controller applies.
type Server struct {
	mu     sync.Mutex
	index  *suggest.Index
	remote suggest.Source
	client *cms.Client

	cfg *config.ServerConfig
	dec *msgpack.Decoder
	enc *msgpack.Encoder
	log *log.Logger
}

// NewServer creates a suggestion server using stdin/stdout for IPC.
// client may be nil when the backend is not configured; the counter
// commands then answer with an error frame.
func NewServer(client *cms.Client, cfg *config.ServerConfig) *Server {
	s := &Server{
		client: client,
		cfg:    cfg,
		dec:    msgpack.NewDecoder(os.Stdin),
		enc:    msgpack.NewEncoder(os.Stdout),
		log:    logger.New("ipc"),
	}
	if client != nil {
		s.remote = client
	}
	return s
}

// NewServerWithStreams is NewServer with explicit streams, for tests.
func NewServerWithStreams(client *cms.Client, cfg *config.ServerConfig, r io.Reader, w io.Writer) *Server {
	s := NewServer(client, cfg)
	s.dec = msgpack.NewDecoder(r)
	s.enc = msgpack.NewEncoder(w)
	return s
}

// SetIndex installs the local index once its bootstrap completes.
func (s *Server) SetIndex(ix *suggest.Index) {
	s.mu.Lock()
	s.index = ix
	s.mu.Unlock()
}

// Start begins the request loop. It returns nil on EOF and an error on
// a broken stream; a malformed frame only produces an error response.
func (s *Server) Start() error {
	s.log.Debug("starting IPC server")
	s.send(StatusResponse{Status: "ready"})

	for {
		var req Request
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Errorf("decoding request: %v", err)
			s.send(ErrorResponse{Error: "invalid msgpack frame", Code: 400})
			continue
		}
		s.handleRequest(req)
	}
}

func (s *Server) handleRequest(req Request) {
	cmd := req.Command
	if cmd == "" && req.Query != "" {
		cmd = "suggest"
	}

	switch cmd {
	case "suggest":
		s.handleSuggest(req)
	case "views":
		s.handleViews(req)
	case "rate":
		s.handleRate(req)
	case "health":
		s.send(StatusResponse{ID: req.ID, Status: "ok"})
	default:
		s.send(ErrorResponse{ID: req.ID, Error: fmt.Sprintf("unknown command: %s", cmd), Code: 400})
	}
}

func (s *Server) handleSuggest(req Request) {
	if utils.IsBlank(req.Query) {
		s.send(ErrorResponse{ID: req.ID, Error: "missing 'q' parameter", Code: 400})
		return
	}
	if len(req.Query) > s.cfg.MaxQueryLen {
		s.send(ErrorResponse{ID: req.ID, Error: fmt.Sprintf("query exceeds maximum length of %d", s.cfg.MaxQueryLen), Code: 400})
		return
	}

	limit := req.Limit
	if limit < 1 {
		limit = suggest.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		limit = s.cfg.MaxLimit
	}

	start := time.Now()
	items := s.lookup(req.Query, limit)
	elapsed := time.Since(start)

	resp := SuggestResponse{
		ID:          req.ID,
		Suggestions: make([]ResponseItem, len(items)),
		Count:       len(items),
		TimeTaken:   elapsed.Microseconds(),
	}
	for i, it := range items {
		resp.Suggestions[i] = ResponseItem{ID: it.ID, Title: it.Title, Slug: it.Slug, Rank: uint16(i + 1)}
	}
	s.send(resp)
}

// lookup mirrors the controller's source selection: local index when
// built, remote search otherwise, empty on failure.
func (s *Server) lookup(query string, limit int) []suggest.Item {
	s.mu.Lock()
	ix := s.index
	s.mu.Unlock()

	if ix != nil {
		return ix.Search(query, limit)
	}
	if s.remote == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), suggest.DefaultTimeout)
	defer cancel()
	items, err := s.remote.Suggest(ctx, query, limit)
	if err != nil {
		s.log.Error("remote suggestion lookup failed", "query", query, "err", err)
		return nil
	}
	return items
}

func (s *Server) handleViews(req Request) {
	if s.client == nil {
		s.send(ErrorResponse{ID: req.ID, Error: "backend not configured", Code: 503})
		return
	}
	if req.Slug == "" {
		s.send(ErrorResponse{ID: req.ID, Error: "missing 'slug' parameter", Code: 400})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), suggest.DefaultTimeout)
	defer cancel()
	views, err := s.client.IncrementViews(ctx, req.Slug)
	if err != nil {
		s.log.Error("view counter update failed", "slug", req.Slug, "err", err)
		s.send(ErrorResponse{ID: req.ID, Error: "view counter update failed", Code: 502})
		return
	}
	s.send(CounterResponse{ID: req.ID, Status: "ok", Views: views})
}

func (s *Server) handleRate(req Request) {
	if s.client == nil {
		s.send(ErrorResponse{ID: req.ID, Error: "backend not configured", Code: 503})
		return
	}
	if req.Slug == "" {
		s.send(ErrorResponse{ID: req.ID, Error: "missing 'slug' parameter", Code: 400})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		s.send(ErrorResponse{ID: req.ID, Error: "rating must be between 1 and 5", Code: 400})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), suggest.DefaultTimeout)
	defer cancel()
	if err := s.client.SetRating(ctx, req.Slug, req.Rating); err != nil {
		s.log.Error("rating update failed", "slug", req.Slug, "err", err)
		s.send(ErrorResponse{ID: req.ID, Error: "rating update failed", Code: 502})
		return
	}
	s.send(CounterResponse{ID: req.ID, Status: "ok"})
}

func (s *Server) send(resp any) {
	if err := s.enc.Encode(resp); err != nil {
		s.log.Errorf("encoding response: %v", err)
	}
}
