package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mardi4nfdi/mardikit/internal/application"
	"github.com/mardi4nfdi/mardikit/internal/domain/model"
)

func TestLookupService_LookupArxiv_CacheMissQueriesAndCaches(t *testing.T) {
	var queried []string
	kg := &fakeKnowledgeGraph{
		searchByArxivID: func(_ context.Context, arxivID string) ([]model.PublicationMatch, error) {
			queried = append(queried, arxivID)
			return []model.PublicationMatch{{QID: "Q100", ArxivID: arxivID}}, nil
		},
	}
	cache := newFakeMatchStore()
	svc := application.NewLookupService(kg, cache, time.Hour)

	result, err := svc.LookupArxiv(context.Background(), "2104.06175", false)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Q100", result.Matches[0].QID)

	assert.Equal(t, []string{"2104.06175"}, queried)
	require.Len(t, cache.puts, 1)
	assert.Equal(t, "arxiv:2104.06175", cache.puts[0].Query)
}

func TestLookupService_LookupArxiv_FreshCacheSkipsQuery(t *testing.T) {
	kg := &fakeKnowledgeGraph{
		searchByArxivID: func(context.Context, string) ([]model.PublicationMatch, error) {
			t.Fatal("knowledge graph should not be queried on a fresh cache hit")
			return nil, nil
		},
	}
	cache := newFakeMatchStore()
	cache.entries["arxiv:2104.06175"] = cacheEntry{
		matches:   []model.PublicationMatch{{QID: "Q100"}},
		fetchedAt: time.Now().Add(-time.Minute),
	}
	svc := application.NewLookupService(kg, cache, time.Hour)

	result, err := svc.LookupArxiv(context.Background(), "2104.06175", false)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Q100", result.Matches[0].QID)
}

func TestLookupService_LookupArxiv_CachedEmptyResultIsAHit(t *testing.T) {
	kg := &fakeKnowledgeGraph{
		searchByArxivID: func(context.Context, string) ([]model.PublicationMatch, error) {
			t.Fatal("knowledge graph should not be queried for a cached negative result")
			return nil, nil
		},
	}
	cache := newFakeMatchStore()
	cache.entries["arxiv:0000.00000"] = cacheEntry{
		matches:   []model.PublicationMatch{},
		fetchedAt: time.Now().Add(-time.Minute),
	}
	svc := application.NewLookupService(kg, cache, time.Hour)

	result, err := svc.LookupArxiv(context.Background(), "0000.00000", false)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Empty(t, result.Matches)
}

func TestLookupService_LookupArxiv_ExpiredCacheRequeries(t *testing.T) {
	kg := &fakeKnowledgeGraph{
		searchByArxivID: func(_ context.Context, arxivID string) ([]model.PublicationMatch, error) {
			return []model.PublicationMatch{{QID: "Q200", ArxivID: arxivID}}, nil
		},
	}
	cache := newFakeMatchStore()
	cache.entries["arxiv:2104.06175"] = cacheEntry{
		matches:   []model.PublicationMatch{{QID: "Q100"}},
		fetchedAt: time.Now().Add(-2 * time.Hour),
	}
	svc := application.NewLookupService(kg, cache, time.Hour)

	result, err := svc.LookupArxiv(context.Background(), "2104.06175", false)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Q200", result.Matches[0].QID)
}

func TestLookupService_LookupArxiv_RefreshBypassesFreshCache(t *testing.T) {
	queries := 0
	kg := &fakeKnowledgeGraph{
		searchByArxivID: func(context.Context, string) ([]model.PublicationMatch, error) {
			queries++
			return []model.PublicationMatch{{QID: "Q200"}}, nil
		},
	}
	cache := newFakeMatchStore()
	cache.entries["arxiv:2104.06175"] = cacheEntry{
		matches:   []model.PublicationMatch{{QID: "Q100"}},
		fetchedAt: time.Now(),
	}
	svc := application.NewLookupService(kg, cache, time.Hour)

	result, err := svc.LookupArxiv(context.Background(), "2104.06175", true)
	require.NoError(t, err)
	assert.Equal(t, 1, queries)
	assert.False(t, result.FromCache)
	assert.Equal(t, "Q200", result.Matches[0].QID)
}

func TestLookupService_LookupArxiv_StaleCacheServedWhenQueryFails(t *testing.T) {
	kg := &fakeKnowledgeGraph{
		searchByArxivID: func(context.Context, string) ([]model.PublicationMatch, error) {
			return nil, errors.New("portal unreachable")
		},
	}
	cache := newFakeMatchStore()
	stale := time.Now().Add(-2 * time.Hour)
	cache.entries["arxiv:2104.06175"] = cacheEntry{
		matches:   []model.PublicationMatch{{QID: "Q100"}},
		fetchedAt: stale,
	}
	svc := application.NewLookupService(kg, cache, time.Hour)

	result, err := svc.LookupArxiv(context.Background(), "2104.06175", false)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Equal(t, "Q100", result.Matches[0].QID)
	assert.WithinDuration(t, stale, result.FetchedAt, time.Second)
}

func TestLookupService_LookupArxiv_QueryFailureWithoutCacheEntry(t *testing.T) {
	kg := &fakeKnowledgeGraph{
		searchByArxivID: func(context.Context, string) ([]model.PublicationMatch, error) {
			return nil, errors.New("portal unreachable")
		},
	}
	svc := application.NewLookupService(kg, newFakeMatchStore(), time.Hour)

	_, err := svc.LookupArxiv(context.Background(), "2104.06175", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portal unreachable")
}

func TestLookupService_LookupArxiv_CacheReadFailureFallsThrough(t *testing.T) {
	kg := &fakeKnowledgeGraph{
		searchByArxivID: func(context.Context, string) ([]model.PublicationMatch, error) {
			return []model.PublicationMatch{{QID: "Q100"}}, nil
		},
	}
	cache := newFakeMatchStore()
	cache.getErr = errors.New("database locked")
	svc := application.NewLookupService(kg, cache, time.Hour)

	result, err := svc.LookupArxiv(context.Background(), "2104.06175", false)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, "Q100", result.Matches[0].QID)
}

func TestLookupService_LookupDOI_UsesDOIKey(t *testing.T) {
	kg := &fakeKnowledgeGraph{
		searchByDOI: func(_ context.Context, doi string) ([]model.PublicationMatch, error) {
			return []model.PublicationMatch{{QID: "Q300", DOI: doi}}, nil
		},
	}
	cache := newFakeMatchStore()
	svc := application.NewLookupService(kg, cache, time.Hour)

	result, err := svc.LookupDOI(context.Background(), "10.1007/s40305-018-0210-x", false)
	require.NoError(t, err)
	require.Len(t, result.Matches, 1)
	assert.Equal(t, "Q300", result.Matches[0].QID)

	require.Len(t, cache.puts, 1)
	assert.Equal(t, "doi:10.1007/s40305-018-0210-x", cache.puts[0].Query)
}
