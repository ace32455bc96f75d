package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
	"github.com/mardi4nfdi/mardikit/internal/domain/port/driven"
)

// ArchiveService uploads files into the lakeFS archive repository and
// commits them in one step.
type ArchiveService struct {
	store driven.ObjectStore
}

// NewArchiveService creates a new ArchiveService with the required dependencies.
func NewArchiveService(store driven.ObjectStore) *ArchiveService {
	return &ArchiveService{store: store}
}

// Archive uploads the given local files under subpath and commits the
// branch. It returns the commit ID, or "" when the upload changed nothing.
func (s *ArchiveService) Archive(ctx context.Context, localPaths []string, subpath, message string) (string, error) {
	if len(localPaths) == 0 {
		return "", errors.New("no files to archive")
	}
	if message == "" {
		message = fmt.Sprintf("Archive %d file(s) under %s", len(localPaths), subpath)
	}

	if err := s.store.Upload(ctx, localPaths, subpath); err != nil {
		return "", fmt.Errorf("upload to archive: %w", err)
	}

	commitID, err := s.store.Commit(ctx, message, map[string]string{"source": "mardikit"})
	if errors.Is(err, driven.ErrNoChanges) {
		slog.Info("archive upload changed nothing, skipping commit", "subpath", subpath)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("commit archive: %w", err)
	}

	slog.Info("archived files", "count", len(localPaths), "subpath", subpath, "commit", commitID)
	return commitID, nil
}

// Restore downloads the archived objects under subpath into localDir.
// Existing local files are kept unless overwrite is set.
func (s *ArchiveService) Restore(ctx context.Context, subpath, localDir string, overwrite bool) (downloaded, skipped int, err error) {
	downloaded, skipped, err = s.store.SyncToLocal(ctx, subpath, localDir, overwrite)
	if err != nil {
		return 0, 0, fmt.Errorf("restore from archive: %w", err)
	}
	slog.Info("restored archive files", "subpath", subpath, "downloaded", downloaded, "skipped", skipped)
	return downloaded, skipped, nil
}

// List returns up to limit archived objects under prefix.
func (s *ArchiveService) List(ctx context.Context, prefix string, limit int) ([]model.ObjectInfo, error) {
	return s.store.List(ctx, prefix, limit)
}
