package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"milestone/agent"
	"milestone/engine"
	"milestone/tournament"
)

const (
	GamesFile     = "games.csv"
	MovesFile     = "moves.csv"
	StandingsFile = "standings.csv"
)

var (
	gamesHeader     = []string{"match", "game", "slot_black", "slot_white", "winner", "decided", "moves", "start_time", "end_time", "duration"}
	movesHeader     = []string{"match", "game", "ply", "side", "move", "score", "depth", "nodes", "visited", "build_time", "eval_time", "elapsed"}
	standingsHeader = []string{"generation", "slot", "rating", "wins", "games", "limit", "weights"}
)

// Writer appends experiment records to CSV files in one directory. Files are
// reopened in append mode on every write, so a resumed run keeps adding to
// the same files. Safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	dir string
}

var _ tournament.GameRecorder = (*Writer)(nil)

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

// RecordGame writes one row for the game and one row per move.
func (w *Writer) RecordGame(m tournament.Match, index int, g *engine.Game) error {
	black, white := m.A, m.B
	if index == 1 {
		black, white = m.B, m.A
	}
	winner := ""
	if g.Decided {
		winner = strconv.Itoa(g.Winner)
	}
	games := [][]string{{
		strconv.Itoa(m.ID),
		strconv.Itoa(index),
		strconv.Itoa(black),
		strconv.Itoa(white),
		winner,
		strconv.FormatBool(g.Decided),
		strconv.Itoa(len(g.Turns)),
		g.StartTime.Format(time.RFC3339Nano),
		g.EndTime.Format(time.RFC3339Nano),
		g.Duration().String(),
	}}

	moves := make([][]string, 0, len(g.Turns))
	for _, turn := range g.Turns {
		row := []string{
			strconv.Itoa(m.ID),
			strconv.Itoa(index),
			strconv.Itoa(turn.Ply),
			strconv.Itoa(turn.Side),
			turn.Move.String(),
		}
		if r := turn.Result; r != nil {
			row = append(row,
				strconv.FormatFloat(r.Score, 'g', -1, 64),
				strconv.Itoa(r.Depth),
				strconv.Itoa(r.Nodes),
				strconv.Itoa(r.Visited),
				r.BuildTime.String(),
				r.EvalTime.String(),
				r.Elapsed.String(),
			)
		} else {
			row = append(row, "", "", "", "", "", "", "")
		}
		moves = append(moves, row)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.appendRows(GamesFile, gamesHeader, games); err != nil {
		return err
	}
	return w.appendRows(MovesFile, movesHeader, moves)
}

// WriteStandings writes the ratings and records of one generation.
func (w *Writer) WriteStandings(generation int, population agent.Population, st *tournament.Standings) error {
	rows := make([][]string, 0, len(population))
	for slot, a := range population {
		row := []string{
			strconv.Itoa(generation),
			strconv.Itoa(slot),
			strconv.Itoa(st.Ratings[slot]),
			strconv.Itoa(st.Records[slot].Wins),
			strconv.Itoa(st.Records[slot].Games),
			a.Limit.String(),
			a.Weights.String(),
		}
		rows = append(rows, row)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.appendRows(StandingsFile, standingsHeader, rows)
}

func (w *Writer) appendRows(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", name, err)
	}

	writer := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write %s header: %w", name, err)
		}
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", name, err)
	}
	return nil
}
