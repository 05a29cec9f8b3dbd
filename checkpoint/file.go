package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	filePrefix = "generation-"
	fileSuffix = ".json.zst"
	// corruptSuffix is appended to files that failed to decode. They no
	// longer match fileSuffix and drop out of Generations.
	corruptSuffix = ".corrupt"
)

// FileStore keeps one compressed file per generation in a directory.
// Files are written to a temporary name and renamed into place, so a crash
// never leaves a partial checkpoint behind.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(generation int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%06d%s", filePrefix, generation, fileSuffix))
}

func (s *FileStore) Save(ctx context.Context, c *Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	path := s.path(c.Generation)
	tmpPath := path + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	if err := Encode(f, c); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write checkpoint %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync checkpoint %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close checkpoint %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename checkpoint %s: %w", path, err)
	}
	return nil
}

// Generations lists the saved generations in ascending order.
func (s *FileStore) Generations() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	var gens []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		var gen int
		if _, err := fmt.Sscanf(strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix), "%d", &gen); err != nil {
			continue
		}
		gens = append(gens, gen)
	}
	sort.Ints(gens)
	return gens, nil
}

// Load reads the checkpoint of one generation.
func (s *FileStore) Load(ctx context.Context, generation int) (*Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path(generation))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: generation %d", ErrNotFound, generation)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: generation %d: %w", ErrCorrupt, generation, err)
	}
	if c.Generation != generation {
		return nil, fmt.Errorf("%w: file for generation %d holds generation %d", ErrCorrupt, generation, c.Generation)
	}
	return c, nil
}

// Latest returns the newest checkpoint that decodes. Corrupt files are
// quarantined on the way down so later runs do not trip over them again.
func (s *FileStore) Latest(ctx context.Context) (*Checkpoint, error) {
	gens, err := s.Generations()
	if err != nil {
		return nil, err
	}
	for i := len(gens) - 1; i >= 0; i-- {
		c, err := s.Load(ctx, gens[i])
		if !errors.Is(err, ErrCorrupt) {
			return c, err
		}
		quarantined, qerr := s.Quarantine(gens[i])
		if qerr != nil {
			return nil, errors.Join(err, qerr)
		}
		log.Error().
			Err(err).
			Int("generation", gens[i]).
			Str("file", quarantined).
			Msg("quarantined corrupt checkpoint")
	}
	return nil, ErrNotFound
}

// Quarantine renames the file of one generation out of the store and returns
// its new path.
func (s *FileStore) Quarantine(generation int) (string, error) {
	from := s.path(generation)
	to := from + corruptSuffix
	if err := os.Rename(from, to); err != nil {
		return "", fmt.Errorf("failed to quarantine generation %d: %w", generation, err)
	}
	return to, nil
}
