package driven

import (
	"context"
	"time"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
)

// MatchStore defines the driven port for the local lookup-result cache.
// Entries are keyed by an opaque query string owned by the caller.
type MatchStore interface {
	// Get returns the cached matches for a query and the time they were
	// fetched. A query with no cache entry returns (nil, zero time, nil);
	// a cached empty result returns ([]model.PublicationMatch{}, t, nil).
	Get(ctx context.Context, query string) ([]model.PublicationMatch, time.Time, error)

	// Put replaces the cached matches for a query and stamps them with the
	// current time. Storing an empty slice records a negative result.
	Put(ctx context.Context, query string, matches []model.PublicationMatch) error

	// Prune deletes cache entries fetched before the cutoff and returns the
	// number of queries removed.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}
