package searcher

import (
	"fmt"
	"math"
	"time"

	"milestone/game"
)

type edge struct {
	move  game.Move
	child int
}

// node is addressed by its index in the tree arena. Nodes are appended
// during the search, so a *node must never be held across a recursive call.
type node struct {
	state    game.State
	depth    int
	expanded bool
	edges    []edge
	best     int // index into edges, -1 until a child has been valued
}

// Variation is the outcome of searching a tree: the minimax value of the
// root, the principal variation and the position it leads to.
type Variation struct {
	Score float64
	Moves []game.Move
	End   game.State
}

// Tree is a depth-bounded game tree expanded lazily by an alpha-beta
// search. A tree is searched once and then discarded.
type Tree struct {
	nodes    []node
	maxDepth int
	eval     Evaluator
	prune    bool
	metrics  MetricsCollector

	visited   int
	horizon   bool
	buildTime time.Duration
	evalTime  time.Duration
}

type TreeOption func(t *Tree)

// WithoutPruning searches the full minimax tree.
func WithoutPruning() TreeOption {
	return func(t *Tree) {
		t.prune = false
	}
}

func withCollector(metrics MetricsCollector) TreeOption {
	return func(t *Tree) {
		if metrics != nil {
			t.metrics = metrics
		}
	}
}

func NewTree(root game.State, maxDepth int, eval Evaluator, options ...TreeOption) *Tree {
	t := &Tree{
		nodes:    []node{{state: root, best: -1}},
		maxDepth: maxDepth,
		eval:     eval,
		prune:    true,
		metrics:  NewNoMetricsCollector(),
	}
	for _, option := range options {
		option(t)
	}
	return t
}

// Rollback searches the tree for side and returns the principal variation.
// Black maximizes the evaluator score and White minimizes it.
func (t *Tree) Rollback(side int) (*Variation, error) {
	var (
		score float64
		err   error
	)
	inf := math.Inf(1)
	switch side {
	case game.Black:
		score, err = t.maxValue(0, -inf, inf)
	case game.White:
		score, err = t.minValue(0, -inf, inf)
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidSide, side)
	}
	if err != nil {
		return nil, err
	}

	v := &Variation{Score: score}
	i := 0
	for t.nodes[i].best >= 0 {
		e := t.nodes[i].edges[t.nodes[i].best]
		v.Moves = append(v.Moves, e.move)
		i = e.child
	}
	v.End = t.nodes[i].state
	return v, nil
}

// Size returns the number of nodes created so far.
func (t *Tree) Size() int {
	return len(t.nodes)
}

// Edges returns the number of move edges in the tree.
func (t *Tree) Edges() int {
	return len(t.nodes) - 1
}

// Visited returns the number of nodes the search reached.
func (t *Tree) Visited() int {
	return t.visited
}

// ReachedHorizon reports whether any leaf was cut off by depth rather than
// by the end of the game.
func (t *Tree) ReachedHorizon() bool {
	return t.horizon
}

func (t *Tree) BuildTime() time.Duration {
	return t.buildTime
}

func (t *Tree) EvalTime() time.Duration {
	return t.evalTime
}

// expand creates the children of node i on its first visit and reports
// whether i is a leaf.
func (t *Tree) expand(i int) (bool, error) {
	t.visited++
	n := &t.nodes[i]
	if !n.state.Active() {
		return true, nil
	}
	if n.depth >= t.maxDepth {
		t.horizon = true
		return true, nil
	}
	if n.expanded {
		return false, nil
	}

	start := time.Now()
	defer func() { t.buildTime += time.Since(start) }()

	state, depth := n.state, n.depth
	moves := state.LegalMoves(state.Turn())
	if len(moves) == 0 {
		return false, fmt.Errorf("%w: side %d at depth %d", game.ErrNoLegalMoves, state.Turn(), depth)
	}
	edges := make([]edge, len(moves))
	for k, m := range moves {
		child, err := state.Play(m)
		if err != nil {
			return false, fmt.Errorf("failed to play generated move %s: %w", m, err)
		}
		edges[k] = edge{move: m, child: len(t.nodes)}
		t.nodes = append(t.nodes, node{state: child, depth: depth + 1, best: -1})
	}
	t.nodes[i].edges = edges
	t.nodes[i].expanded = true
	t.metrics.AddExpansion()
	return false, nil
}

func (t *Tree) score(i int) float64 {
	start := time.Now()
	s := t.eval.Score(t.nodes[i].state)
	t.evalTime += time.Since(start)
	t.metrics.AddLeaf(t.nodes[i].state.Active())
	return s
}

// Equal values replace the current best, so the last move enumerated wins
// ties. Pruning only happens once the window is strictly inverted; this
// keeps the chosen line identical to unpruned minimax.
func (t *Tree) maxValue(i int, alpha, beta float64) (float64, error) {
	leaf, err := t.expand(i)
	if err != nil {
		return 0, err
	}
	if leaf {
		return t.score(i), nil
	}

	value := math.Inf(-1)
	for k := range t.nodes[i].edges {
		v, err := t.minValue(t.nodes[i].edges[k].child, alpha, beta)
		if err != nil {
			return 0, err
		}
		if v >= value {
			value = v
			t.nodes[i].best = k
		}
		if t.prune {
			alpha = math.Max(alpha, value)
			if alpha > beta {
				t.metrics.AddCutoff()
				break
			}
		}
	}
	return value, nil
}

func (t *Tree) minValue(i int, alpha, beta float64) (float64, error) {
	leaf, err := t.expand(i)
	if err != nil {
		return 0, err
	}
	if leaf {
		return t.score(i), nil
	}

	value := math.Inf(1)
	for k := range t.nodes[i].edges {
		v, err := t.maxValue(t.nodes[i].edges[k].child, alpha, beta)
		if err != nil {
			return 0, err
		}
		if v <= value {
			value = v
			t.nodes[i].best = k
		}
		if t.prune {
			beta = math.Min(beta, value)
			if alpha > beta {
				t.metrics.AddCutoff()
				break
			}
		}
	}
	return value, nil
}
