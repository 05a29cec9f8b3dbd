// Package meta holds the default experiment parameters.
package meta

import "time"

// Population and tournament.
const (
	POPULATION_SIZE       = 12
	MATCHES               = 36
	RETAINED              = 2
	CHILDREN_PER_RETAINED = 2
	WORKERS               = 0 // 0 uses every CPU
)

// Mutation.
const (
	PERTURBATION_MAX   = 0.1
	PERTURBATION_DECAY = 1.0
	RANDOM_WEIGHT_MAX  = 1.5
)

// Rating.
const (
	K_FACTOR       = 32.0
	INITIAL_RATING = 1000
)

// AGENT_DEPTH is the search depth of evolved agents.
const AGENT_DEPTH = 2

// MOVE_TIME is the default budget of a timed search.
const MOVE_TIME = 700 * time.Millisecond

// MAX_MOVES caps a single game.
const MAX_MOVES = 500

// CHECKPOINT_DIR is where generations are stored when no directory is given.
const CHECKPOINT_DIR = "checkpoints"
