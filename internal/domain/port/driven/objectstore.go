package driven

import (
	"context"
	"errors"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
)

// ErrNoChanges is returned by ObjectStore.Commit when the branch has no
// staged changes. Callers treat this as a no-op, not a failure.
var ErrNoChanges = errors.New("no changes to commit")

// ObjectStore defines the driven port for the lakeFS archive repository.
// Paths are repository-relative; the adapter owns branch prefixing.
type ObjectStore interface {
	// Upload stores the given local files under subpath in the repository.
	Upload(ctx context.Context, localPaths []string, subpath string) error

	// Exists reports whether an object exists at the given repository path.
	Exists(ctx context.Context, path string) (bool, error)

	// Fetch reads the content of the object at the given repository path.
	Fetch(ctx context.Context, path string) ([]byte, error)

	// List returns up to limit objects under prefix.
	List(ctx context.Context, prefix string, limit int) ([]model.ObjectInfo, error)

	// SyncToLocal downloads objects under subpath into localDir, preserving
	// relative paths. Existing local files are skipped unless overwrite is
	// set. Returns the number of files downloaded and skipped.
	SyncToLocal(ctx context.Context, subpath, localDir string, overwrite bool) (downloaded, skipped int, err error)

	// Commit commits staged changes on the branch and returns the commit ID.
	// Returns ErrNoChanges when there is nothing to commit.
	Commit(ctx context.Context, message string, metadata map[string]string) (string, error)

	// Health checks that the repository server is reachable and healthy.
	Health(ctx context.Context) error
}
