package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/wordsim/pkg/config"
	"github.com/bastiangx/wordsim/pkg/suggest"
	"github.com/bastiangx/wordsim/pkg/thesaurus"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const maxWordBytes = 512

// Thesaurus is what the server queries.
type Thesaurus interface {
	Loaded() bool
	MostSimilar(word string, topN int) []thesaurus.Neighbor
	Score(source, target string) (float32, bool)
	Vocabulary() *suggest.Vocabulary
	Stats() map[string]int
	Reload() error
}

// Server handles the IPC for thesaurus queries
type Server struct {
	th       Thesaurus
	cfg      *config.Config
	dec      *msgpack.Decoder
	out      *bufio.Writer
	enc      *msgpack.Encoder
	requests int
}

// NewServer creates a server using stdin/stdout for IPC
func NewServer(th Thesaurus, cfg *config.Config) *Server {
	return NewServerWithIO(th, cfg, os.Stdin, os.Stdout)
}

// NewServerWithIO creates a server over the given streams.
func NewServerWithIO(th Thesaurus, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	out := bufio.NewWriter(w)
	return &Server{
		th:  th,
		cfg: cfg,
		dec: msgpack.NewDecoder(bufio.NewReader(r)),
		out: out,
		enc: msgpack.NewEncoder(out),
	}
}

// Start announces readiness and serves requests until the input ends.
func (s *Server) Start() error {
	log.Debug("Starting Server.")
	if err := s.send(StatusResponse{Status: "ready"}); err != nil {
		return err
	}

	for {
		raw, err := s.dec.DecodeRaw()
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Debugf("Input closed after %d requests", s.requests)
				return nil
			}
			log.Errorf("Reading request: %v", err)
			return err
		}
		s.requests++
		if err := s.handleRequest(raw); err != nil {
			return err
		}
	}
}

// handleRequest routes one raw message. Only write failures are returned.
func (s *Server) handleRequest(raw msgpack.RawMessage) error {
	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		log.Errorf("Unmarshaling request: %v", err)
		return s.sendError("", "invalid msgpack request", 400)
	}

	switch env.Action {
	case "", "similar":
		var req SimilarRequest
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			return s.sendError(env.ID, fmt.Sprintf("invalid similar request: %v", err), 400)
		}
		return s.handleSimilar(req)
	case "words":
		var req WordsRequest
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			return s.sendError(env.ID, fmt.Sprintf("invalid words request: %v", err), 400)
		}
		return s.handleWords(req)
	case "score":
		var req ScoreRequest
		if err := msgpack.Unmarshal(raw, &req); err != nil {
			return s.sendError(env.ID, fmt.Sprintf("invalid score request: %v", err), 400)
		}
		return s.handleScore(req)
	case "stats":
		return s.send(StatusResponse{ID: env.ID, Status: "ok", Stats: s.th.Stats()})
	case "reload":
		if err := s.th.Reload(); err != nil {
			log.Errorf("Reload failed: %v", err)
			return s.sendError(env.ID, err.Error(), 500)
		}
		return s.send(StatusResponse{ID: env.ID, Status: "reloaded"})
	default:
		return s.sendError(env.ID, fmt.Sprintf("unknown action: %s", env.Action), 400)
	}
}

func (s *Server) handleSimilar(req SimilarRequest) error {
	if req.Word == "" {
		log.Debug("Word is empty in request")
		return s.sendError(req.ID, "missing 'w' parameter", 400)
	}
	if len(req.Word) > maxWordBytes {
		return s.sendError(req.ID, fmt.Sprintf("word exceeds %d bytes", maxWordBytes), 400)
	}
	if !s.th.Loaded() {
		return s.sendUnloaded(req.ID)
	}

	start := time.Now()
	neighbors := s.th.MostSimilar(req.Word, s.cfg.ClampTopN(req.N))
	elapsed := time.Since(start)

	out := make([]SimilarNeighbor, len(neighbors))
	for i, n := range neighbors {
		out[i] = SimilarNeighbor{Word: n.Word, Score: n.Score}
	}
	return s.send(SimilarResponse{
		ID:        req.ID,
		Neighbors: out,
		Count:     len(out),
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleWords(req WordsRequest) error {
	if !s.th.Loaded() {
		return s.sendUnloaded(req.ID)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.CLI.DefaultLimit
	}

	start := time.Now()
	words := s.th.Vocabulary().Complete(req.Prefix, limit)
	elapsed := time.Since(start)

	out := make([]WordEntry, len(words))
	for i, w := range words {
		out[i] = WordEntry{Word: w.Word, Neighbors: w.Neighbors}
	}
	return s.send(WordsResponse{
		ID:        req.ID,
		Words:     out,
		Count:     len(out),
		TimeTaken: elapsed.Microseconds(),
	})
}

func (s *Server) handleScore(req ScoreRequest) error {
	if req.A == "" || req.B == "" {
		return s.sendError(req.ID, "missing 'a' or 'b' parameter", 400)
	}
	if !s.th.Loaded() {
		return s.sendUnloaded(req.ID)
	}
	v, ok := s.th.Score(req.A, req.B)
	return s.send(ScoreResponse{ID: req.ID, Score: v, Found: ok})
}

func (s *Server) sendUnloaded(id string) error {
	return s.sendError(id, thesaurus.ErrIndexUnloaded.Error(), 503)
}

// send encodes one response and flushes it.
func (s *Server) send(response any) error {
	if err := s.enc.Encode(response); err != nil {
		log.Errorf("Encoding response: %v", err)
		return err
	}
	return s.out.Flush()
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) error {
	return s.send(CompletionError{ID: id, Error: message, Code: code})
}
