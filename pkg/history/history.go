// Package history implements the durable, crash-safe walk-history store:
// which undirected edges have been walked, how many times, and when.
// Backed by an embedded SQLite database so it needs no external server
// and survives process restarts.
package history

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/twhume/openstreetmap-router/pkg/apierr"
	"github.com/twhume/openstreetmap-router/pkg/edgekey"
)

// EdgeKey is a canonicalized undirected edge identifier: Start <= End.
type EdgeKey = edgekey.Key

// Store is a durable store of walked-edge counts, backed by an embedded
// SQLite database file. A zero Store is not usable; construct with Open.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path, running
// any pending goose migrations before returning.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apierr.Wrap(apierr.KindHistoryUnavailable, "creating history directory", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindHistoryUnavailable, "opening history database", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite: serialize writers through one connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apierr.Wrap(apierr.KindHistoryUnavailable, "pinging history database", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, apierr.Wrap(apierr.KindHistoryUnavailable, "migrating history database", err)
	}
	slog.Info("walk history store opened", "path", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordWalk records every edge in route as walked once, incrementing an
// existing edge's count or inserting it fresh, all within one transaction.
// route is a sequence of (node_a, node_b) pairs in traversal order.
func (s *Store) RecordWalk(ctx context.Context, route [][2]int64) error {
	if len(route) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apierr.Wrap(apierr.KindHistoryUnavailable, "beginning walk-record transaction", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edge_history (edge_start, edge_end, walk_count, last_walked)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(edge_start, edge_end)
		DO UPDATE SET walk_count = walk_count + 1, last_walked = excluded.last_walked
	`)
	if err != nil {
		return apierr.Wrap(apierr.KindHistoryUnavailable, "preparing walk-record statement", err)
	}
	defer stmt.Close()

	for _, pair := range route {
		key := edgekey.Of(pair[0], pair[1])
		if _, err := stmt.ExecContext(ctx, key.Start, key.End, now); err != nil {
			return apierr.Wrap(apierr.KindHistoryUnavailable, "recording walked edge", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apierr.Wrap(apierr.KindHistoryUnavailable, "committing walk record", err)
	}
	return nil
}

// GetWalkedEdges returns the set of all walked edge keys.
func (s *Store) GetWalkedEdges(ctx context.Context) (map[EdgeKey]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT edge_start, edge_end FROM edge_history`)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindHistoryUnavailable, "querying walked edges", err)
	}
	defer rows.Close()

	walked := make(map[EdgeKey]struct{})
	for rows.Next() {
		var k EdgeKey
		if err := rows.Scan(&k.Start, &k.End); err != nil {
			return nil, apierr.Wrap(apierr.KindHistoryUnavailable, "scanning walked edge", err)
		}
		walked[k] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindHistoryUnavailable, "iterating walked edges", err)
	}
	return walked, nil
}

// IsWalked reports whether the edge (n1, n2) has ever been walked.
func (s *Store) IsWalked(ctx context.Context, n1, n2 int64) (bool, error) {
	count, err := s.GetWalkCount(ctx, n1, n2)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetWalkCount returns how many times the edge (n1, n2) has been walked,
// or 0 if it has never been walked.
func (s *Store) GetWalkCount(ctx context.Context, n1, n2 int64) (int, error) {
	key := edgekey.Of(n1, n2)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT walk_count FROM edge_history WHERE edge_start = ? AND edge_end = ?`,
		key.Start, key.End,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, apierr.Wrap(apierr.KindHistoryUnavailable, "querying walk count", err)
	}
	return count, nil
}

// Stats summarizes the walk history.
type Stats struct {
	UniqueEdgesWalked   int
	TotalEdgeTraversals int
	AvgWalksPerEdge     float64
	MaxWalksSingleEdge  int
	FirstWalk           *time.Time
	LastWalk            *time.Time
}

// Stats returns aggregate statistics over the entire walk history.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var (
		totalEdges   int
		totalWalks   sql.NullInt64
		avgWalks     sql.NullFloat64
		maxWalks     sql.NullInt64
		firstWalkStr sql.NullString
		lastWalkStr  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			SUM(walk_count),
			AVG(walk_count),
			MAX(walk_count),
			MIN(last_walked),
			MAX(last_walked)
		FROM edge_history
	`).Scan(&totalEdges, &totalWalks, &avgWalks, &maxWalks, &firstWalkStr, &lastWalkStr)
	if err != nil {
		return Stats{}, apierr.Wrap(apierr.KindHistoryUnavailable, "querying history stats", err)
	}

	st := Stats{
		UniqueEdgesWalked:   totalEdges,
		TotalEdgeTraversals: int(totalWalks.Int64),
		MaxWalksSingleEdge:  int(maxWalks.Int64),
	}
	if avgWalks.Valid {
		st.AvgWalksPerEdge = roundTo2(avgWalks.Float64)
	}
	if firstWalkStr.Valid {
		if t, err := time.Parse(time.RFC3339, firstWalkStr.String); err == nil {
			st.FirstWalk = &t
		}
	}
	if lastWalkStr.Valid {
		if t, err := time.Parse(time.RFC3339, lastWalkStr.String); err == nil {
			st.LastWalk = &t
		}
	}
	return st, nil
}

func roundTo2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
