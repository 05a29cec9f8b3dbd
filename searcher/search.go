package searcher

import (
	"fmt"
	"time"

	"milestone/evaluator"
	"milestone/game"

	"github.com/rs/zerolog/log"
)

type Option func(s *Searcher)

// Explainer breaks a score down per heuristic.
type Explainer interface {
	Explain(before, after game.State) []evaluator.Contribution
}

// Result is the outcome of one search call plus its diagnostics.
type Result struct {
	Move  game.Move
	Line  []game.Move
	Score float64
	// Depth is the deepest fully searched depth.
	Depth int
	// Nodes is the number of edges in the deepest tree.
	Nodes int
	// Visited counts node visits over every depth.
	Visited   int
	BuildTime time.Duration
	EvalTime  time.Duration
	Elapsed   time.Duration
	// Breakdown compares the root position with the end of Line.
	Breakdown []evaluator.Contribution
	Metrics   SearchMetrics
}

// LineStrings renders the principal variation.
func (r *Result) LineStrings() []string {
	out := make([]string, len(r.Line))
	for i, m := range r.Line {
		out[i] = m.String()
	}
	return out
}

// Searcher is not safe for concurrent use; give each goroutine its own.
type Searcher struct {
	eval      Evaluator
	limit     Limit
	maxDepth  int
	prune     bool
	stopEarly bool
	metrics   MetricsCollector
	now       func() time.Time
}

// WithMaxDepth lowers the depth cap of timed searches.
func WithMaxDepth(depth int) Option {
	return func(s *Searcher) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithPruning toggles alpha-beta pruning. Disabling it gives plain minimax.
func WithPruning(enabled bool) Option {
	return func(s *Searcher) {
		s.prune = enabled
	}
}

// WithExhaustiveDeepening keeps deepening a timed search even once a depth
// resolves the whole game without hitting its horizon.
func WithExhaustiveDeepening() Option {
	return func(s *Searcher) {
		s.stopEarly = false
	}
}

func WithMetrics() Option {
	return func(s *Searcher) {
		s.metrics = NewMetricsCollector()
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Searcher) {
		s.now = now
	}
}

func NewSearcher(eval Evaluator, limit Limit, options ...Option) *Searcher {
	s := &Searcher{ // Default values
		eval:      eval,
		limit:     limit,
		maxDepth:  MaxDepth,
		prune:     true,
		stopEarly: true,
		metrics:   NewNoMetricsCollector(),
		now:       time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Searcher) Limit() Limit {
	return s.limit
}

// FindMove searches state under the searcher's own limit.
func (s *Searcher) FindMove(state game.State) (*Result, error) {
	return s.Search(state, s.limit)
}

// Search picks a move for the side to play in state. Asking for a move in a
// decided game is a caller error.
func (s *Searcher) Search(state game.State, limit Limit) (*Result, error) {
	if !state.Active() {
		return nil, ErrGameOver
	}
	side := state.Turn()
	if !game.ValidSide(side) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSide, side)
	}

	start := s.now()
	s.metrics.Start()

	var (
		best    *Variation
		res     = &Result{}
		horizon bool
	)
	timed := limit.IsTimed()
	depth := 1
	if !timed {
		depth = limit.Depth()
	}
	for ; depth >= 1 && (!timed || depth <= s.maxDepth); depth++ {
		if timed {
			if s.now().Sub(start) >= limit.Budget() {
				break
			}
			if best != nil && !horizon && s.stopEarly {
				break
			}
		}

		tree := NewTree(state, depth, s.eval, s.treeOptions()...)
		v, err := tree.Rollback(side)
		if err != nil {
			return nil, fmt.Errorf("failed to search depth %d: %w", depth, err)
		}
		best = v
		horizon = tree.ReachedHorizon()
		res.Depth = depth
		res.Nodes = tree.Edges()
		res.Visited += tree.Visited()
		res.BuildTime += tree.BuildTime()
		res.EvalTime += tree.EvalTime()
		s.metrics.CompleteDepth()

		log.Debug().
			Int("depth", depth).
			Int("nodes", tree.Edges()).
			Float64("score", v.Score).
			Msg("depth complete")

		if !timed {
			break
		}
	}

	if best == nil {
		return nil, ErrNoDepthCompleted
	}
	if len(best.Moves) == 0 {
		return nil, ErrNoMove
	}

	res.Move = best.Moves[0]
	res.Line = best.Moves
	res.Score = best.Score
	res.Elapsed = s.now().Sub(start)
	if ex, ok := s.eval.(Explainer); ok {
		res.Breakdown = ex.Explain(state, best.End)
	}
	res.Metrics = s.metrics.Complete()
	return res, nil
}

func (s *Searcher) treeOptions() []TreeOption {
	options := []TreeOption{withCollector(s.metrics)}
	if !s.prune {
		options = append(options, WithoutPruning())
	}
	return options
}
