package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"milestone/engine"
	"milestone/evaluator"
	"milestone/game"
	"milestone/game/milestone"
	"milestone/searcher"
)

// Client is a player whose moves are computed by a remote server. It sends
// the position as text and validates the returned move locally.
type Client struct {
	baseURL string
	http    *http.Client
	weights evaluator.Weights
	limit   searcher.Limit
}

var _ engine.Player = (*Client)(nil)

type ClientOption func(c *Client)

// WithWeights overrides the server's default weights.
func WithWeights(w evaluator.Weights) ClientOption {
	return func(c *Client) {
		c.weights = w.Clone()
	}
}

// WithLimit overrides the server's default search limit.
func WithLimit(l searcher.Limit) ClientOption {
	return func(c *Client) {
		c.limit = l
	}
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: time.Minute},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) FindMove(state game.State) (*searcher.Result, error) {
	return c.FindMoveContext(context.Background(), state)
}

func (c *Client) FindMoveContext(ctx context.Context, state game.State) (*searcher.Result, error) {
	pos, ok := state.(fmt.Stringer)
	if !ok {
		return nil, fmt.Errorf("state %T has no textual form", state)
	}
	req := FindMoveRequest{Position: pos.String(), Weights: c.weights}
	if c.limit.IsTimed() {
		req.Time = c.limit.Budget().String()
	} else if c.limit.Depth() > 0 {
		req.Depth = c.limit.Depth()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/findmove", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to request move: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		out, _ := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
		if json.Unmarshal(out, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, out)
	}

	var fm FindMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&fm); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return toResult(state, fm, time.Since(start))
}

// toResult replays the returned line from state so that every move is a
// legal move of the local game.
func toResult(state game.State, fm FindMoveResponse, elapsed time.Duration) (*searcher.Result, error) {
	move, err := milestone.ParseMove(state.Turn(), fm.Move)
	if err != nil {
		return nil, fmt.Errorf("server chose an invalid move: %w", err)
	}
	if _, err := state.Play(move); err != nil {
		return nil, fmt.Errorf("server chose an illegal move: %w", err)
	}

	line := make([]game.Move, 0, len(fm.Line))
	cur := state
	for _, s := range fm.Line {
		m, err := milestone.ParseMove(cur.Turn(), s)
		if err != nil {
			return nil, fmt.Errorf("server returned an invalid line: %w", err)
		}
		next, err := cur.Play(m)
		if err != nil {
			return nil, fmt.Errorf("server returned an illegal line: %w", err)
		}
		line = append(line, m)
		cur = next
	}

	return &searcher.Result{
		Move:      move,
		Line:      line,
		Score:     fm.Score,
		Depth:     fm.Depth,
		Nodes:     fm.Nodes,
		Visited:   fm.Visited,
		BuildTime: time.Duration(fm.BuildMS * float64(time.Millisecond)),
		EvalTime:  time.Duration(fm.EvalMS * float64(time.Millisecond)),
		Elapsed:   elapsed,
		Breakdown: fm.Breakdown,
	}, nil
}
