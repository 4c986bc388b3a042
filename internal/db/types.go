package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-intel/internal/matching"
)

// Discovery represents a row in the discoveries table
type Discovery struct {
	ID             uuid.UUID `json:"id"`
	CanonicalName  string    `json:"canonical_name"`
	NameNormalized string    `json:"name_normalized"`
	QueryName      string    `json:"query_name"`
	Profile        []byte    `json:"profile"`
	AuditTrail     []string  `json:"audit_trail"`
	CreatedAt      time.Time `json:"created_at"`
}

// NormalizeName returns the unique key used for a discovery's canonical name
func NormalizeName(name string) string {
	return matching.Normalize(name)
}
