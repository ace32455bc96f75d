package application_test

import (
	"context"
	"time"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
)

// --- Fake implementations of the driven ports ---

type fakeKnowledgeGraph struct {
	searchByArxivID func(ctx context.Context, arxivID string) ([]model.PublicationMatch, error)
	searchByDOI     func(ctx context.Context, doi string) ([]model.PublicationMatch, error)
}

func (f *fakeKnowledgeGraph) SearchByArxivID(ctx context.Context, arxivID string) ([]model.PublicationMatch, error) {
	return f.searchByArxivID(ctx, arxivID)
}

func (f *fakeKnowledgeGraph) SearchByDOI(ctx context.Context, doi string) ([]model.PublicationMatch, error) {
	return f.searchByDOI(ctx, doi)
}

type putCall struct {
	Query   string
	Matches []model.PublicationMatch
}

type fakeMatchStore struct {
	entries map[string]cacheEntry
	puts    []putCall
	getErr  error
	putErr  error
}

type cacheEntry struct {
	matches   []model.PublicationMatch
	fetchedAt time.Time
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{entries: map[string]cacheEntry{}}
}

func (f *fakeMatchStore) Get(_ context.Context, query string) ([]model.PublicationMatch, time.Time, error) {
	if f.getErr != nil {
		return nil, time.Time{}, f.getErr
	}
	e, ok := f.entries[query]
	if !ok {
		return nil, time.Time{}, nil
	}
	return e.matches, e.fetchedAt, nil
}

func (f *fakeMatchStore) Put(_ context.Context, query string, matches []model.PublicationMatch) error {
	f.puts = append(f.puts, putCall{Query: query, Matches: matches})
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[query] = cacheEntry{matches: matches, fetchedAt: time.Now()}
	return nil
}

func (f *fakeMatchStore) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	var pruned int64
	for q, e := range f.entries {
		if e.fetchedAt.Before(olderThan) {
			delete(f.entries, q)
			pruned++
		}
	}
	return pruned, nil
}

type fakeObjectStore struct {
	upload      func(ctx context.Context, localPaths []string, subpath string) error
	commit      func(ctx context.Context, message string, metadata map[string]string) (string, error)
	syncToLocal func(ctx context.Context, subpath, localDir string, overwrite bool) (int, int, error)
	health      func(ctx context.Context) error
}

func (f *fakeObjectStore) Upload(ctx context.Context, localPaths []string, subpath string) error {
	return f.upload(ctx, localPaths, subpath)
}

func (f *fakeObjectStore) Exists(context.Context, string) (bool, error) { return false, nil }

func (f *fakeObjectStore) Fetch(context.Context, string) ([]byte, error) { return nil, nil }

func (f *fakeObjectStore) List(context.Context, string, int) ([]model.ObjectInfo, error) {
	return nil, nil
}

func (f *fakeObjectStore) SyncToLocal(ctx context.Context, subpath, localDir string, overwrite bool) (int, int, error) {
	return f.syncToLocal(ctx, subpath, localDir, overwrite)
}

func (f *fakeObjectStore) Commit(ctx context.Context, message string, metadata map[string]string) (string, error) {
	return f.commit(ctx, message, metadata)
}

func (f *fakeObjectStore) Health(ctx context.Context) error {
	if f.health == nil {
		return nil
	}
	return f.health(ctx)
}

type fakeIPFSNode struct {
	add     func(ctx context.Context, localPath string, pin bool) (string, error)
	tag     func(ctx context.Context, cid, mfsPath string, overwrite bool) error
	pins    func(ctx context.Context, pinType string) ([]model.Pin, error)
	version func(ctx context.Context) (string, error)
}

func (f *fakeIPFSNode) Add(ctx context.Context, localPath string, pin bool) (string, error) {
	return f.add(ctx, localPath, pin)
}

func (f *fakeIPFSNode) Pin(context.Context, string) error { return nil }

func (f *fakeIPFSNode) Unpin(context.Context, string) error { return nil }

func (f *fakeIPFSNode) Pins(ctx context.Context, pinType string) ([]model.Pin, error) {
	return f.pins(ctx, pinType)
}

func (f *fakeIPFSNode) GatewayURL(cid string) string {
	return "https://gateway.example.org/ipfs/" + cid
}

func (f *fakeIPFSNode) Download(context.Context, string, string) error { return nil }

func (f *fakeIPFSNode) Tag(ctx context.Context, cid, mfsPath string, overwrite bool) error {
	if f.tag == nil {
		return nil
	}
	return f.tag(ctx, cid, mfsPath, overwrite)
}

func (f *fakeIPFSNode) ReadTag(context.Context, string, string) error { return nil }

func (f *fakeIPFSNode) Tags(context.Context, string) ([]model.TagEntry, error) { return nil, nil }

func (f *fakeIPFSNode) Version(ctx context.Context) (string, error) {
	if f.version == nil {
		return "0.30.0", nil
	}
	return f.version(ctx)
}

type fakeDBPinger struct {
	err error
}

func (f *fakeDBPinger) PingContext(context.Context) error { return f.err }
