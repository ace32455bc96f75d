package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mardi4nfdi/mardikit/internal/domain/model"
	"github.com/mardi4nfdi/mardikit/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MatchStore = (*MatchRepo)(nil)

// MatchRepo is the SQLite implementation of the MatchStore port interface.
// A kg_queries row records that a query was answered (and when); its matches
// live in kg_matches, so cached empty results are distinguishable from
// queries never seen.
type MatchRepo struct {
	db *DB
}

// NewMatchRepo creates a new MatchRepo.
func NewMatchRepo(db *DB) *MatchRepo {
	return &MatchRepo{db: db}
}

// Get returns the cached matches for a query and the time they were fetched.
// A query with no cache entry returns (nil, zero time, nil).
func (r *MatchRepo) Get(ctx context.Context, query string) ([]model.PublicationMatch, time.Time, error) {
	const queryStmt = `SELECT fetched_at FROM kg_queries WHERE query = ?`
	var fetchedAtStr string
	err := r.db.Reader.QueryRowContext(ctx, queryStmt, query).Scan(&fetchedAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get cached query %q: %w", query, err)
	}

	fetchedAt, err := time.Parse(time.RFC3339, fetchedAtStr)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse fetched_at for query %q: %w", query, err)
	}

	const matchStmt = `SELECT qid, arxiv_id, doi, title, snippet FROM kg_matches WHERE query = ? ORDER BY id`
	rows, err := r.db.Reader.QueryContext(ctx, matchStmt, query)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get cached matches %q: %w", query, err)
	}
	defer rows.Close()

	matches := []model.PublicationMatch{}
	for rows.Next() {
		var m model.PublicationMatch
		if err := rows.Scan(&m.QID, &m.ArxivID, &m.DOI, &m.Title, &m.Snippet); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan cached match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate cached matches: %w", err)
	}

	return matches, fetchedAt, nil
}

// Put replaces the cached matches for a query and stamps them with the
// current time. The replace runs in a single transaction on the writer.
func (r *MatchRepo) Put(ctx context.Context, query string, matches []model.PublicationMatch) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kg_queries (query, fetched_at) VALUES (?, ?)
		 ON CONFLICT (query) DO UPDATE SET fetched_at = excluded.fetched_at`,
		query, fetchedAt,
	); err != nil {
		return fmt.Errorf("upsert cached query %q: %w", query, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM kg_matches WHERE query = ?`, query); err != nil {
		return fmt.Errorf("clear cached matches %q: %w", query, err)
	}

	for _, m := range matches {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kg_matches (query, qid, arxiv_id, doi, title, snippet) VALUES (?, ?, ?, ?, ?, ?)`,
			query, m.QID, m.ArxivID, m.DOI, m.Title, m.Snippet,
		); err != nil {
			return fmt.Errorf("insert cached match for %q: %w", query, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put tx: %w", err)
	}
	return nil
}

// Prune deletes cache entries fetched before the cutoff. Matches are removed
// by the ON DELETE CASCADE on kg_matches.
func (r *MatchRepo) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.Writer.ExecContext(ctx,
		`DELETE FROM kg_queries WHERE fetched_at < ?`,
		olderThan.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("prune cached queries: %w", err)
	}

	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return pruned, nil
}
