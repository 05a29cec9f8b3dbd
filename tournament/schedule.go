package tournament

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
)

// ErrInfeasibleSchedule is returned when more matches are requested than
// there are distinct pairs of slots.
var ErrInfeasibleSchedule = errors.New("more matches requested than distinct pairs")

// Pair is an unordered match-up of two population slots.
type Pair struct {
	A int `json:"a"`
	B int `json:"b"`
}

func (p Pair) key() Pair {
	if p.A > p.B {
		return Pair{A: p.B, B: p.A}
	}
	return p
}

// MaxMatches is the number of distinct pairs among size slots.
func MaxMatches(size int) int {
	return size * (size - 1) / 2
}

// Schedule picks matches distinct pairs of slots. Slots are shuffled and
// visited round robin; each visited slot is paired with a uniformly random
// opponent it has not met yet. A slot that has already met everyone is
// skipped.
func Schedule(rng *rand.Rand, size, matches int) ([]Pair, error) {
	if size < 0 || matches < 0 {
		return nil, fmt.Errorf("invalid schedule of %d matches among %d slots", matches, size)
	}
	if matches > MaxMatches(size) {
		return nil, fmt.Errorf("%w: %d matches among %d slots (at most %d)", ErrInfeasibleSchedule, matches, size, MaxMatches(size))
	}

	order := rng.Perm(size)
	met := make([]int, size)
	seen := make(map[Pair]bool, matches)
	pairs := make([]Pair, 0, matches)

	for next := 0; len(pairs) < matches; next = (next + 1) % size {
		a := order[next]
		if met[a] == size-1 {
			continue
		}
		for {
			b := rng.Intn(size)
			p := Pair{A: a, B: b}
			if a == b || seen[p.key()] {
				continue
			}
			seen[p.key()] = true
			met[a]++
			met[b]++
			pairs = append(pairs, p)
			break
		}
	}
	return pairs, nil
}
