package tournament

import (
	"math"
)

// GamesPerMatch is the number of games in a match: one with each color.
const GamesPerMatch = 2

// RatingTable holds one Elo-like rating per population slot.
type RatingTable []int

func NewRatingTable(size, initial int) RatingTable {
	r := make(RatingTable, size)
	for i := range r {
		r[i] = initial
	}
	return r
}

func (r RatingTable) Clone() RatingTable {
	return append(RatingTable(nil), r...)
}

// ExpectedScore is the number of games a is expected to win out of a
// two-game match against b.
func ExpectedScore(ratingA, ratingB int) float64 {
	return GamesPerMatch / (1 + math.Pow(10, float64(ratingB-ratingA)/400))
}

// UpdateRatings applies the result of one match between slots a and b and
// returns the change applied to a. The opposite change is applied to b. A
// non-finite intermediate value leaves both ratings unchanged.
func UpdateRatings(ratings RatingTable, a, b, winsA int, k float64) int {
	expected := ExpectedScore(ratings[a], ratings[b])
	raw := k * (float64(winsA) - expected)
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	delta := int(raw)
	ratings[a] += delta
	ratings[b] -= delta
	return delta
}
