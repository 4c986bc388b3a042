// Package db provides PostgreSQL storage for discovery records.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks the database connection
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// InsertDiscovery stores a discovery record unless one with the same normalized
// name already exists. Returns false when the insert was skipped.
func (db *DB) InsertDiscovery(ctx context.Context, d *Discovery) (bool, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.NameNormalized == "" {
		d.NameNormalized = NormalizeName(d.CanonicalName)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	trail, err := json.Marshal(d.AuditTrail)
	if err != nil {
		return false, fmt.Errorf("failed to marshal audit trail: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`INSERT INTO discoveries (id, canonical_name, name_normalized, query_name, profile, audit_trail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (name_normalized) DO NOTHING`,
		d.ID, d.CanonicalName, d.NameNormalized, d.QueryName, d.Profile, trail, d.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert discovery %s: %w", d.CanonicalName, err)
	}
	return tag.RowsAffected() == 1, nil
}

// GetDiscoveryByName retrieves a discovery by normalized name. Returns nil if not found.
func (db *DB) GetDiscoveryByName(ctx context.Context, name string) (*Discovery, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, canonical_name, name_normalized, query_name, profile, audit_trail, created_at
		 FROM discoveries WHERE name_normalized = $1`,
		NormalizeName(name),
	)

	d, err := scanDiscovery(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get discovery %s: %w", name, err)
	}
	return d, nil
}

// ListDiscoveries returns all discoveries in insertion order
func (db *DB) ListDiscoveries(ctx context.Context) ([]Discovery, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, canonical_name, name_normalized, query_name, profile, audit_trail, created_at
		 FROM discoveries ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list discoveries: %w", err)
	}
	defer rows.Close()

	var out []Discovery
	for rows.Next() {
		d, err := scanDiscovery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discovery: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate discoveries: %w", err)
	}
	return out, nil
}

// CountDiscoveries returns the number of stored discoveries
func (db *DB) CountDiscoveries(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM discoveries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count discoveries: %w", err)
	}
	return n, nil
}

// DeleteDiscovery removes a discovery by ID. Used by operators replacing a record.
func (db *DB) DeleteDiscovery(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM discoveries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete discovery: %w", err)
	}
	return nil
}

func scanDiscovery(row pgx.Row) (*Discovery, error) {
	var d Discovery
	var trail []byte
	if err := row.Scan(&d.ID, &d.CanonicalName, &d.NameNormalized, &d.QueryName, &d.Profile, &trail, &d.CreatedAt); err != nil {
		return nil, err
	}
	if len(trail) > 0 {
		if err := json.Unmarshal(trail, &d.AuditTrail); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit trail: %w", err)
		}
	}
	return &d, nil
}
