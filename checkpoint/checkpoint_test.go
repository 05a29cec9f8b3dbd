package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"milestone/agent"
	"milestone/evaluator"
	"milestone/searcher"
	"milestone/tournament"

	"github.com/stretchr/testify/require"
)

func sample(generation int) *Checkpoint {
	return &Checkpoint{
		Generation: generation,
		Agents: agent.Population{
			agent.Handcrafted(evaluator.Weights{1, 2, 3, 4, 0}, searcher.Depth(2)),
			agent.Handcrafted(evaluator.Weights{0.5, 0.5, 0, 0, 0}, searcher.Time(700*time.Millisecond)),
		},
		Ratings:   tournament.RatingTable{1016, 984},
		Records:   []tournament.Record{{Wins: 2, Games: 2}, {Wins: 0, Games: 2}},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncodeDecode(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		c := sample(3)

		data, err := Marshal(c)
		require.NoError(t, err)
		got, err := Unmarshal(data)

		require.NoError(t, err)
		require.Equal(t, c.Generation, got.Generation)
		require.Equal(t, c.Ratings, got.Ratings)
		require.Equal(t, c.Records, got.Records)
		require.True(t, c.Timestamp.Equal(got.Timestamp))
		require.Len(t, got.Agents, 2)
		require.InDeltaSlice(t, c.Agents[0].Weights, got.Agents[0].Weights, 1e-12)
		require.Equal(t, c.Agents[0].Limit, got.Agents[0].Limit)
		require.Equal(t, c.Agents[1].Limit, got.Agents[1].Limit)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := Unmarshal([]byte("not a checkpoint"))
		require.Error(t, err)
	})

	t.Run("mismatched ratings are rejected", func(t *testing.T) {
		c := sample(1)
		c.Ratings = c.Ratings[:1]

		data, err := Marshal(c)
		require.NoError(t, err)
		_, err = Unmarshal(data)
		require.ErrorContains(t, err, "2 agents but 1 ratings")
	})
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store has no latest", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		_, err = store.Latest(ctx)

		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("latest is the highest generation", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)
		for _, gen := range []int{1, 3, 2} {
			require.NoError(t, store.Save(ctx, sample(gen)))
		}

		latest, err := store.Latest(ctx)
		require.NoError(t, err)
		gens, err := store.Generations()
		require.NoError(t, err)

		require.Equal(t, 3, latest.Generation)
		require.Equal(t, []int{1, 2, 3}, gens)
	})

	t.Run("files are named by generation", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)

		require.NoError(t, store.Save(ctx, sample(42)))

		require.FileExists(t, filepath.Join(dir, "generation-000042.json.zst"))
		require.NoFileExists(t, filepath.Join(dir, "generation-000042.json.zst.tmp"))
	})

	t.Run("unrelated files are ignored", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
		require.NoError(t, store.Save(ctx, sample(1)))

		gens, err := store.Generations()

		require.NoError(t, err)
		require.Equal(t, []int{1}, gens)
	})

	t.Run("corrupt latest is quarantined", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, sample(1)))
		require.NoError(t, store.Save(ctx, sample(2)))
		garbage := filepath.Join(dir, "generation-000003.json.zst")
		require.NoError(t, os.WriteFile(garbage, []byte("garbage"), 0644))

		c, err := store.Latest(ctx)

		require.NoError(t, err)
		require.Equal(t, 2, c.Generation)
		require.NoFileExists(t, garbage)
		require.FileExists(t, garbage+".corrupt")
		gens, err := store.Generations()
		require.NoError(t, err)
		require.Equal(t, []int{1, 2}, gens)

		c, err = store.Latest(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, c.Generation)
	})

	t.Run("wrong generation inside a file", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, sample(1)))
		data, err := os.ReadFile(filepath.Join(dir, "generation-000001.json.zst"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "generation-000004.json.zst"), data, 0644))

		_, err = store.Load(ctx, 4)
		require.ErrorIs(t, err, ErrCorrupt)

		c, err := store.Latest(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, c.Generation)
		require.FileExists(t, filepath.Join(dir, "generation-000004.json.zst.corrupt"))
	})

	t.Run("only corrupt files", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "generation-000002.json.zst"), []byte("garbage"), 0644))

		_, err = store.Load(ctx, 2)
		require.ErrorIs(t, err, ErrCorrupt)
		require.ErrorContains(t, err, "generation 2")

		_, err = store.Latest(ctx)
		require.ErrorIs(t, err, ErrNotFound)
		require.FileExists(t, filepath.Join(dir, "generation-000002.json.zst.corrupt"))
	})

	t.Run("missing generation", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		_, err = store.Load(ctx, 9)

		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid checkpoint is not saved", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		require.Error(t, store.Save(ctx, sample(0)))
		gens, err := store.Generations()
		require.NoError(t, err)
		require.Empty(t, gens)
	})
}
