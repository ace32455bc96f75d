// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
	"github.com/mardi4nfdi/mardikit/internal/domain/port/driven"
)

// LookupResult carries publication matches together with their provenance.
type LookupResult struct {
	Matches []model.PublicationMatch
	// FromCache is true when the matches were served from the local cache
	// rather than a live knowledge-graph query.
	FromCache bool
	FetchedAt time.Time
}

// LookupService resolves publication lookups cache-first: fresh cache
// entries are served locally, everything else goes to the knowledge graph
// and is cached on the way back. It depends only on port interfaces.
type LookupService struct {
	kg       driven.KnowledgeGraph
	cache    driven.MatchStore
	cacheTTL time.Duration
}

// NewLookupService creates a new LookupService with the required dependencies.
func NewLookupService(kg driven.KnowledgeGraph, cache driven.MatchStore, cacheTTL time.Duration) *LookupService {
	return &LookupService{
		kg:       kg,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// LookupArxiv returns publications mentioning the given arXiv identifier.
// Set refresh to bypass the cache and force a live query.
func (s *LookupService) LookupArxiv(ctx context.Context, arxivID string, refresh bool) (*LookupResult, error) {
	return s.lookup(ctx, "arxiv:"+arxivID, refresh, func(ctx context.Context) ([]model.PublicationMatch, error) {
		return s.kg.SearchByArxivID(ctx, arxivID)
	})
}

// LookupDOI returns publications mentioning the given DOI.
func (s *LookupService) LookupDOI(ctx context.Context, doi string, refresh bool) (*LookupResult, error) {
	return s.lookup(ctx, "doi:"+doi, refresh, func(ctx context.Context) ([]model.PublicationMatch, error) {
		return s.kg.SearchByDOI(ctx, doi)
	})
}

func (s *LookupService) lookup(ctx context.Context, key string, refresh bool, fetch func(context.Context) ([]model.PublicationMatch, error)) (*LookupResult, error) {
	cached, fetchedAt, err := s.cache.Get(ctx, key)
	if err != nil {
		// A broken cache should not block lookups.
		slog.Warn("lookup cache read failed", "key", key, "error", err)
		cached, fetchedAt = nil, time.Time{}
	}

	haveEntry := !fetchedAt.IsZero()
	fresh := haveEntry && time.Since(fetchedAt) < s.cacheTTL

	if fresh && !refresh {
		return &LookupResult{Matches: cached, FromCache: true, FetchedAt: fetchedAt}, nil
	}

	matches, err := fetch(ctx)
	if err != nil {
		if haveEntry {
			// Serving a stale entry beats failing the lookup outright.
			slog.Warn("knowledge graph query failed, serving stale cache entry",
				"key", key, "fetched_at", fetchedAt, "error", err)
			return &LookupResult{Matches: cached, FromCache: true, FetchedAt: fetchedAt}, nil
		}
		return nil, fmt.Errorf("lookup %s: %w", key, err)
	}

	if err := s.cache.Put(ctx, key, matches); err != nil {
		slog.Warn("lookup cache write failed", "key", key, "error", err)
	}

	return &LookupResult{Matches: matches, FetchedAt: time.Now()}, nil
}

// PruneLoop periodically deletes cache entries older than twice the cache
// TTL. It blocks until the context is canceled.
func (s *LookupService) PruneLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cache prune loop stopped")
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * s.cacheTTL)
			pruned, err := s.cache.Prune(ctx, cutoff)
			if err != nil {
				slog.Error("cache prune failed", "error", err)
				continue
			}
			if pruned > 0 {
				slog.Info("pruned stale lookup cache entries", "count", pruned)
			}
		}
	}
}
