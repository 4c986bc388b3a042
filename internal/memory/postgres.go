package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/interview-intel/internal/db"
	"github.com/jonathan/interview-intel/internal/types"
)

// PostgresStore keeps discovery records in the discoveries table.
// The unique index on name_normalized makes Insert append-only under concurrent writers.
type PostgresStore struct {
	db *db.DB
}

// NewPostgresStore wraps an open database
func NewPostgresStore(database *db.DB) *PostgresStore {
	return &PostgresStore{db: database}
}

// List returns all records in insertion order
func (s *PostgresStore) List(ctx context.Context) ([]types.DiscoveryRecord, error) {
	rows, err := s.db.ListDiscoveries(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]types.DiscoveryRecord, 0, len(rows))
	for _, row := range rows {
		var profile types.CompanyProfile
		if err := json.Unmarshal(row.Profile, &profile); err != nil {
			return nil, fmt.Errorf("failed to decode profile for %s: %w", row.CanonicalName, err)
		}
		records = append(records, types.DiscoveryRecord{
			ID:            row.ID,
			CanonicalName: row.CanonicalName,
			QueryName:     row.QueryName,
			Profile:       profile,
			AuditTrail:    row.AuditTrail,
			CreatedAt:     row.CreatedAt,
		})
	}
	return records, nil
}

// Insert stores rec unless its normalized canonical name exists
func (s *PostgresStore) Insert(ctx context.Context, rec types.DiscoveryRecord) (bool, error) {
	profile, err := json.Marshal(rec.Profile)
	if err != nil {
		return false, fmt.Errorf("failed to encode profile: %w", err)
	}

	return s.db.InsertDiscovery(ctx, &db.Discovery{
		ID:            rec.ID,
		CanonicalName: rec.CanonicalName,
		QueryName:     rec.QueryName,
		Profile:       profile,
		AuditTrail:    rec.AuditTrail,
		CreatedAt:     rec.CreatedAt,
	})
}

// Close closes the underlying pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
