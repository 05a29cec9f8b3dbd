package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"milestone/agent"
	"milestone/evaluator"
	"milestone/game"
	"milestone/game/milestone"
	"milestone/searcher"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// MaxBodyBytes bounds a /findmove request body.
	MaxBodyBytes = 1 << 16
	// DefaultMaxDepth is the deepest search a request may ask for unless
	// WithMaxDepth says otherwise. Each ply costs about eight times the last.
	DefaultMaxDepth = 6
)

// FindMoveRequest asks for a move in a textual Milestone position. Depth and
// Time are alternatives; without either the server's default limit is used.
type FindMoveRequest struct {
	Position string            `json:"position"`
	Weights  evaluator.Weights `json:"weights,omitempty"`
	Depth    int               `json:"depth,omitempty"`
	Time     string            `json:"time,omitempty"`
}

type FindMoveResponse struct {
	Move      string                   `json:"move"`
	Line      []string                 `json:"line"`
	Score     float64                  `json:"score"`
	Depth     int                      `json:"depth"`
	Nodes     int                      `json:"nodes"`
	Visited   int                      `json:"visited"`
	BuildMS   float64                  `json:"build_ms"`
	EvalMS    float64                  `json:"eval_ms"`
	Breakdown []evaluator.Contribution `json:"breakdown,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server answers move requests with a fresh searcher per request.
type Server struct {
	heuristics []game.Heuristic
	defaults   agent.Agent
	maxTime    time.Duration
	maxDepth   int
	router     chi.Router
}

type Option func(s *Server)

// WithMaxTime caps the time budget a request may ask for.
func WithMaxTime(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.maxTime = d
		}
	}
}

// WithMaxDepth caps the search depth a request may ask for. Timed searches
// stop deepening there too.
func WithMaxDepth(depth int) Option {
	return func(s *Server) {
		if depth > 0 && depth <= searcher.MaxDepth {
			s.maxDepth = depth
		}
	}
}

func New(heuristics []game.Heuristic, defaults agent.Agent, options ...Option) *Server {
	s := &Server{
		heuristics: heuristics,
		defaults:   defaults,
		maxTime:    10 * time.Second,
		maxDepth:   DefaultMaxDepth,
	}
	for _, option := range options {
		option(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Post("/findmove", s.handleFindMove)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleFindMove(w http.ResponseWriter, r *http.Request) {
	var req FindMoveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}

	state, err := milestone.Parse(req.Position)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a, err := s.agentFor(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	search, err := a.Searcher(s.heuristics, searcher.WithMaxDepth(s.maxDepth))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := search.FindMove(state)
	switch {
	case errors.Is(err, searcher.ErrGameOver):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		hlog(r).Error().Err(err).Str("position", req.Position).Msg("search failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, FindMoveResponse{
		Move:      res.Move.String(),
		Line:      res.LineStrings(),
		Score:     res.Score,
		Depth:     res.Depth,
		Nodes:     res.Nodes,
		Visited:   res.Visited,
		BuildMS:   milliseconds(res.BuildTime),
		EvalMS:    milliseconds(res.EvalTime),
		Breakdown: res.Breakdown,
	})
}

func (s *Server) agentFor(req FindMoveRequest) (agent.Agent, error) {
	a := agent.Agent{Weights: s.defaults.Weights, Limit: s.defaults.Limit}
	if req.Weights != nil {
		if len(req.Weights) != len(s.heuristics) {
			return a, fmt.Errorf("got %d weights for %d heuristics", len(req.Weights), len(s.heuristics))
		}
		a.Weights = req.Weights
	}
	switch {
	case req.Depth != 0 && req.Time != "":
		return a, errors.New("set either depth or time, not both")
	case req.Depth != 0:
		if req.Depth < 1 || req.Depth > s.maxDepth {
			return a, fmt.Errorf("depth must be between 1 and %d", s.maxDepth)
		}
		a.Limit = searcher.Depth(req.Depth)
	case req.Time != "":
		budget, err := time.ParseDuration(req.Time)
		if err != nil {
			return a, fmt.Errorf("invalid time: %w", err)
		}
		if budget <= 0 || budget > s.maxTime {
			return a, fmt.Errorf("time must be positive and at most %s", s.maxTime)
		}
		a.Limit = searcher.Time(budget)
	}
	return a, nil
}

// AccessLog logs every request with its id, status and duration.
func AccessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLog := logger.With().
				Str("rid", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			r = r.WithContext(reqLog.WithContext(r.Context()))

			next.ServeHTTP(ww, r)

			reqLog.Info().
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("dur", time.Since(start)).
				Msg("request completed")
		})
	}
}

func hlog(r *http.Request) *zerolog.Logger {
	return zerolog.Ctx(r.Context())
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
