// Package artifact persists segmentation model artifacts. Two backends are
// provided: a local file store for single-host deployments and an S3 store
// for shared ones. Both treat the artifact as an opaque versioned blob and
// publish new versions by whole-object replacement, never in-place mutation.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mavenlabs/rewards-insight/internal/pkg/logger"
	"github.com/mavenlabs/rewards-insight/internal/segmentation"
)

// Store reads and writes the model artifact blob. Load returns
// segmentation.ErrModelNotFound when no artifact has been published yet.
type Store interface {
	Save(ctx context.Context, a *segmentation.Artifact) error
	Load(ctx context.Context) (*segmentation.Artifact, error)
}

// FileStore keeps the artifact at a fixed path on local disk.
type FileStore struct {
	Path string
}

// NewFileStore creates a file-backed artifact store.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Save writes the artifact to a temp file in the target directory and renames
// it into place. The rename is atomic on POSIX filesystems, so a concurrent
// Load sees either the old artifact or the new one, never a torn write.
func (s *FileStore) Save(_ context.Context, a *segmentation.Artifact) error {
	data, err := a.Encode()
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".artifact-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish artifact: %w", err)
	}

	logger.Info("artifact published", "path", s.Path, "artifact_id", a.ID.String())
	return nil
}

// Load reads and validates the artifact at the store path.
func (s *FileStore) Load(_ context.Context) (*segmentation.Artifact, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, segmentation.ErrModelNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", s.Path, err)
	}
	return segmentation.DecodeArtifact(data)
}
