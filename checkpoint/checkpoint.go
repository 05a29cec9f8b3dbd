package checkpoint

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"milestone/agent"
	"milestone/tournament"

	"github.com/klauspost/compress/zstd"
)

var (
	// ErrNotFound is returned by Store.Latest when nothing has been saved yet.
	ErrNotFound = errors.New("no checkpoint found")
	// ErrCorrupt marks a stored checkpoint that cannot be decoded.
	ErrCorrupt = errors.New("corrupt checkpoint")
)

// Checkpoint is one completed generation: the population that was rated and
// the ratings it earned. Population and ratings are always saved together.
type Checkpoint struct {
	Generation int                    `json:"generation"`
	Agents     agent.Population       `json:"agents"`
	Ratings    tournament.RatingTable `json:"ratings"`
	Records    []tournament.Record    `json:"records,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Validate checks that agents and ratings line up slot by slot.
func (c *Checkpoint) Validate() error {
	if c.Generation < 1 {
		return fmt.Errorf("invalid generation %d", c.Generation)
	}
	if len(c.Agents) != len(c.Ratings) {
		return fmt.Errorf("checkpoint has %d agents but %d ratings", len(c.Agents), len(c.Ratings))
	}
	if c.Records != nil && len(c.Records) != len(c.Agents) {
		return fmt.Errorf("checkpoint has %d agents but %d records", len(c.Agents), len(c.Records))
	}
	return nil
}

// Store persists checkpoints keyed by generation.
type Store interface {
	Save(ctx context.Context, c *Checkpoint) error
	Latest(ctx context.Context) (*Checkpoint, error)
}

// Encode writes c as zstd-compressed JSON.
func Encode(w io.Writer, c *Checkpoint) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(c); err != nil {
		enc.Close()
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush checkpoint: %w", err)
	}
	return nil
}

// Decode reads a checkpoint written by Encode and validates it.
func Decode(r io.Reader) (*Checkpoint, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	var c Checkpoint
	if err := json.NewDecoder(dec).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Marshal is Encode into a byte slice.
func Marshal(c *Checkpoint) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal is Decode from a byte slice.
func Unmarshal(data []byte) (*Checkpoint, error) {
	return Decode(bytes.NewReader(data))
}
