// Package file writes graph documents to the local filesystem.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/fabiosv/aws-resources-mapper/db"
	"github.com/fabiosv/aws-resources-mapper/pkg/api"
)

// Store writes one document per network into a directory.
type Store struct {
	dir    string
	opts   db.EncodeOptions
	logger zerolog.Logger
}

// NewStore creates a file store. An empty dir means the working directory.
func NewStore(dir string, opts db.EncodeOptions, logger zerolog.Logger) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{dir: dir, opts: opts, logger: logger}
}

func (s *Store) Name() string {
	return "file"
}

// Path returns the file a graph for networkID is written to.
func (s *Store) Path(networkID string) string {
	return filepath.Join(s.dir, db.FileName(networkID, s.opts))
}

// Save encodes g and writes it, replacing any previous document.
func (s *Store) Save(ctx context.Context, g *api.NetworkGraph) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := s.Path(g.NetworkID)
	data, err := db.Encode(g, s.opts)
	if err != nil {
		return path, err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, fmt.Errorf("failed to write graph: %w", err)
	}

	s.logger.Debug().
		Str("path", path).
		Int("bytes", len(data)).
		Msg("graph written")
	return path, nil
}

func (s *Store) Close() error {
	return nil
}
