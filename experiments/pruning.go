package experiments

import (
	"fmt"
	"time"

	"milestone/game"
	"milestone/searcher"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// PruningSample compares one fixed-depth search with and without alpha-beta
// pruning from the same position.
type PruningSample struct {
	Position      string
	Ply           int
	PrunedVisits  int
	FullVisits    int
	PrunedElapsed time.Duration
	FullElapsed   time.Duration
}

// Savings is the share of node visits pruning avoided.
func (s PruningSample) Savings() float64 {
	if s.FullVisits == 0 {
		return 0
	}
	return 1 - float64(s.PrunedVisits)/float64(s.FullVisits)
}

// Pruning walks random games from start and, every stride plies, searches the
// current position to depth with and without pruning. Both searches must
// agree on move and score.
func Pruning(rng *rand.Rand, start game.State, eval searcher.Evaluator, depth, samples, stride int) ([]PruningSample, error) {
	if !start.Active() {
		return nil, searcher.ErrGameOver
	}
	if stride < 1 {
		stride = 1
	}
	pruned := searcher.NewSearcher(eval, searcher.Depth(depth))
	full := searcher.NewSearcher(eval, searcher.Depth(depth), searcher.WithPruning(false))

	var out []PruningSample
	state := start
	for ply := 0; len(out) < samples; ply++ {
		if !state.Active() {
			state = start
		}
		if ply%stride == 0 {
			a, err := pruned.FindMove(state)
			if err != nil {
				return out, fmt.Errorf("pruned search at ply %d: %w", ply, err)
			}
			b, err := full.FindMove(state)
			if err != nil {
				return out, fmt.Errorf("full search at ply %d: %w", ply, err)
			}
			if a.Score != b.Score || a.Move.String() != b.Move.String() {
				return out, fmt.Errorf("searches disagree at ply %d: %s (%g) vs %s (%g)", ply, a.Move, a.Score, b.Move, b.Score)
			}
			sample := PruningSample{
				Ply:           ply,
				PrunedVisits:  a.Visited,
				FullVisits:    b.Visited,
				PrunedElapsed: a.Elapsed,
				FullElapsed:   b.Elapsed,
			}
			if s, ok := state.(fmt.Stringer); ok {
				sample.Position = s.String()
			}
			out = append(out, sample)

			log.Debug().
				Int("ply", ply).
				Int("pruned", sample.PrunedVisits).
				Int("full", sample.FullVisits).
				Msg("pruning sample")
		}

		moves := state.LegalMoves(state.Turn())
		if len(moves) == 0 {
			return out, fmt.Errorf("random playout at ply %d: %w", ply, game.ErrNoLegalMoves)
		}
		next, err := state.Play(moves[rng.Intn(len(moves))])
		if err != nil {
			return out, fmt.Errorf("random playout at ply %d: %w", ply, err)
		}
		state = next
	}
	return out, nil
}
