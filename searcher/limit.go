package searcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Limit bounds a search either by a fixed depth or by a time budget.
type Limit struct {
	depth  int
	budget time.Duration
	timed  bool
}

// Depth limits the search to a single tree of d plies.
func Depth(d int) Limit {
	return Limit{depth: d}
}

// Time deepens the search until the budget is spent. The budget is checked
// between depths only, so a search may overrun it by one depth.
func Time(budget time.Duration) Limit {
	return Limit{budget: budget, timed: true}
}

func (l Limit) IsTimed() bool {
	return l.timed
}

func (l Limit) Depth() int {
	return l.depth
}

func (l Limit) Budget() time.Duration {
	return l.budget
}

func (l Limit) String() string {
	if l.timed {
		return "time(" + l.budget.String() + ")"
	}
	return fmt.Sprintf("depth(%d)", l.depth)
}

type limitJSON struct {
	Depth *int   `json:"depth,omitempty"`
	Time  string `json:"time,omitempty"`
}

func (l Limit) MarshalJSON() ([]byte, error) {
	if l.timed {
		return json.Marshal(limitJSON{Time: l.budget.String()})
	}
	d := l.depth
	return json.Marshal(limitJSON{Depth: &d})
}

func (l *Limit) UnmarshalJSON(data []byte) error {
	var raw limitJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Depth != nil && raw.Time != "":
		return errors.New("limit must set either depth or time, not both")
	case raw.Depth != nil:
		*l = Depth(*raw.Depth)
	case raw.Time != "":
		budget, err := time.ParseDuration(raw.Time)
		if err != nil {
			return fmt.Errorf("failed to parse time limit: %w", err)
		}
		*l = Time(budget)
	default:
		return errors.New("limit must set depth or time")
	}
	return nil
}
