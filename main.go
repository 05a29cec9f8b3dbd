package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"milestone/agent"
	"milestone/checkpoint"
	"milestone/engine"
	"milestone/evaluator"
	"milestone/evolution"
	"milestone/experiments"
	"milestone/game"
	"milestone/game/milestone"
	"milestone/logx"
	"milestone/meta"
	"milestone/metrics"
	"milestone/searcher"
	"milestone/server"
	"milestone/tournament"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

const usage = `usage: milestone <command> [flags]

commands:
  evolve   tune heuristic weights with a generational tournament
  play     play two agents against each other
  serve    answer move requests over HTTP
  bench    compare node visits with and without pruning
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "evolve":
		err = runEvolve(ctx, os.Args[2:])
	case "play":
		err = runPlay(ctx, os.Args[2:])
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "bench":
		err = runBench(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("failed")
		os.Exit(1)
	}
}

func newFlagSet(name string) (*flag.FlagSet, *string, *bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	level := fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	console := fs.Bool("console", true, "Human readable log output")
	return fs, level, console
}

func start() game.State {
	return milestone.New()
}

func runEvolve(ctx context.Context, args []string) error {
	fs, level, console := newFlagSet("evolve")
	configPath := fs.String("config", "", "YAML config file (defaults when empty)")
	dir := fs.String("checkpoints", meta.CHECKPOINT_DIR, "Checkpoint directory")
	out := fs.String("out", "", "Directory for CSV records (none when empty)")
	generations := fs.Int("generations", 0, "Override max generations")
	fs.Parse(args)
	if err := logx.Setup(*level, *console); err != nil {
		return err
	}

	cfg := evolution.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = evolution.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	if *generations > 0 {
		cfg.MaxGenerations = *generations
	}

	store, err := checkpoint.NewFileStore(*dir)
	if err != nil {
		return err
	}

	heuristics := milestone.Heuristics()
	runnerOpts := []tournament.RunnerOption{tournament.WithMaxMoves(cfg.MaxMoves)}
	var driverOpts []evolution.Option
	if *out != "" {
		writer, err := metrics.NewWriter(*out)
		if err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, tournament.WithRecorder(writer))
		driverOpts = append(driverOpts, evolution.WithReporter(writer))
	}
	runner := tournament.NewGameRunner(heuristics, start, runnerOpts...)

	driver, err := evolution.NewDriver(cfg, len(heuristics), runner, store, driverOpts...)
	if err != nil {
		return err
	}
	last, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	best := evolution.Ranking(last.Ratings)[0]
	log.Info().
		Int("generation", last.Generation).
		Int("rating", last.Ratings[best]).
		Stringer("weights", last.Agents[best].Weights).
		Msg("evolution finished")
	return nil
}

func runPlay(ctx context.Context, args []string) error {
	fs, level, console := newFlagSet("play")
	weightsA := fs.String("a", "1,1,1,1,1", "Weights of agent A")
	weightsB := fs.String("b", "1,1,1,1,1", "Weights of agent B")
	fromCheckpoint := fs.String("a-checkpoint", "", "Use the best agent of the latest checkpoint in this directory as A")
	depthA := fs.Int("depth-a", meta.AGENT_DEPTH, "Search depth of A")
	depthB := fs.Int("depth-b", meta.AGENT_DEPTH, "Search depth of B")
	timeA := fs.Duration("time-a", 0, "Time budget of A (overrides depth)")
	timeB := fs.Duration("time-b", 0, "Time budget of B (overrides depth)")
	matches := fs.Int("matches", 1, "Number of two-game matches")
	remote := fs.String("remote", "", "Let the server at this URL play B")
	position := fs.String("position", "", "Start position (default: initial position)")
	out := fs.String("out", "", "Directory for CSV records (none when empty)")
	fs.Parse(args)
	if err := logx.Setup(*level, *console); err != nil {
		return err
	}

	a, err := agentFromFlags(*weightsA, *depthA, *timeA)
	if err != nil {
		return fmt.Errorf("agent A: %w", err)
	}
	if *fromCheckpoint != "" {
		if a, err = bestCheckpointed(ctx, *fromCheckpoint); err != nil {
			return err
		}
	}
	b, err := agentFromFlags(*weightsB, *depthB, *timeB)
	if err != nil {
		return fmt.Errorf("agent B: %w", err)
	}

	startFn := start
	if *position != "" {
		st, err := milestone.Parse(*position)
		if err != nil {
			return err
		}
		startFn = func() game.State { return st }
	}

	heuristics := milestone.Heuristics()
	if *remote != "" {
		return playRemote(ctx, heuristics, startFn(), a, server.NewClient(*remote, server.WithWeights(b.Weights), server.WithLimit(b.Limit)))
	}

	var runnerOpts []tournament.RunnerOption
	if *out != "" {
		writer, err := metrics.NewWriter(*out)
		if err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, tournament.WithRecorder(writer))
	}
	runner := tournament.NewGameRunner(heuristics, startFn, runnerOpts...)
	s, err := experiments.HeadToHead(ctx, runner, a, b, *matches)
	if err != nil {
		return err
	}
	fmt.Printf("A %d  B %d  undecided %d  (A scores %.3f)\n", s.WinsA, s.WinsB, s.Undecided, s.ScoreA())
	return nil
}

// playRemote plays one game with each color between a local agent and a
// server.
func playRemote(ctx context.Context, heuristics []game.Heuristic, from game.State, a agent.Agent, remote *server.Client) error {
	for i := 0; i < tournament.GamesPerMatch; i++ {
		local, err := a.Searcher(heuristics)
		if err != nil {
			return err
		}
		players := [2]engine.Player{local, remote}
		if i == 1 {
			players = [2]engine.Player{remote, local}
		}
		g, err := engine.NewLocal(from, players[game.Black], players[game.White]).Run(ctx)
		if err != nil {
			return err
		}
		winner := "none"
		if g.Decided {
			winner = strconv.Itoa(g.Winner)
		}
		fmt.Printf("game %d: %d moves, winner %s, final %s\n", i, len(g.Turns), winner, g.Final)
	}
	return nil
}

func runServe(ctx context.Context, args []string) error {
	fs, level, console := newFlagSet("serve")
	addr := fs.String("addr", ":8080", "Listen address")
	weights := fs.String("weights", "1,1,1,1,1", "Default weights")
	depth := fs.Int("depth", 0, "Default search depth (time is used when 0)")
	budget := fs.Duration("time", meta.MOVE_TIME, "Default time budget")
	maxTime := fs.Duration("max-time", 10*time.Second, "Largest time budget a request may ask for")
	maxDepth := fs.Int("max-depth", server.DefaultMaxDepth, "Deepest search a request may ask for")
	fs.Parse(args)
	if err := logx.Setup(*level, *console); err != nil {
		return err
	}

	var limit time.Duration
	if *depth == 0 {
		limit = *budget
	}
	if *maxDepth < 1 || *maxDepth > searcher.MaxDepth {
		return fmt.Errorf("max-depth must be between 1 and %d, got %d", searcher.MaxDepth, *maxDepth)
	}
	if *depth > *maxDepth {
		return fmt.Errorf("default depth %d exceeds max-depth %d", *depth, *maxDepth)
	}
	defaults, err := agentFromFlags(*weights, *depth, limit)
	if err != nil {
		return err
	}
	s := server.New(milestone.Heuristics(), defaults, server.WithMaxTime(*maxTime), server.WithMaxDepth(*maxDepth))
	return s.ListenAndServe(ctx, *addr)
}

func runBench(args []string) error {
	fs, level, console := newFlagSet("bench")
	depth := fs.Int("depth", 3, "Search depth")
	samples := fs.Int("samples", 20, "Number of positions")
	stride := fs.Int("stride", 4, "Plies between sampled positions")
	seed := fs.Uint64("seed", 1, "Random seed")
	fs.Parse(args)
	if err := logx.Setup(*level, *console); err != nil {
		return err
	}

	eval, err := evaluator.New(milestone.Heuristics(), evaluator.Weights{1, 1, 1, 1, 1}.Normalized())
	if err != nil {
		return err
	}
	res, err := experiments.Pruning(rand.New(rand.NewSource(*seed)), start(), eval, *depth, *samples, *stride)
	if err != nil {
		return err
	}

	var pruned, full int
	for _, s := range res {
		pruned += s.PrunedVisits
		full += s.FullVisits
	}
	log.Info().
		Int("samples", len(res)).
		Int("pruned_visits", pruned).
		Int("full_visits", full).
		Msg("pruning benchmark complete")
	if full > 0 {
		fmt.Printf("pruning saved %.1f%% of node visits over %d positions\n", 100*(1-float64(pruned)/float64(full)), len(res))
	}
	return nil
}

func agentFromFlags(weights string, depth int, budget time.Duration) (agent.Agent, error) {
	w, err := parseWeights(weights)
	if err != nil {
		return agent.Agent{}, err
	}
	if n := len(milestone.Heuristics()); len(w) != n {
		return agent.Agent{}, fmt.Errorf("got %d weights for %d heuristics", len(w), n)
	}
	limit := searcher.Depth(depth)
	if budget > 0 {
		limit = searcher.Time(budget)
	} else if depth < 1 {
		return agent.Agent{}, fmt.Errorf("depth must be positive, got %d", depth)
	}
	return agent.Handcrafted(w, limit), nil
}

func parseWeights(s string) (evaluator.Weights, error) {
	parts := strings.Split(s, ",")
	w := make(evaluator.Weights, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse weight %q: %w", p, err)
		}
		w[i] = v
	}
	return w, nil
}

func bestCheckpointed(ctx context.Context, dir string) (agent.Agent, error) {
	store, err := checkpoint.NewFileStore(dir)
	if err != nil {
		return agent.Agent{}, err
	}
	c, err := store.Latest(ctx)
	if err != nil {
		return agent.Agent{}, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	best := evolution.Ranking(c.Ratings)[0]
	log.Info().
		Int("generation", c.Generation).
		Int("slot", best).
		Int("rating", c.Ratings[best]).
		Msg("playing checkpointed agent")
	return c.Agents[best], nil
}
