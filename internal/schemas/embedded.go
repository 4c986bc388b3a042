package schemas

import (
	"embed"
	"fmt"
	"path"
)

//go:embed embedded/*.json
var schemaFiles embed.FS

// Name identifies an embedded schema
type Name string

// Embedded schema names
const (
	CompanyProfile  Name = "company_profile"
	CuratedProfiles Name = "curated_profiles"
	Route           Name = "route"
	Audit           Name = "audit"
	Verdict         Name = "verdict"
)

// Get returns the raw content of an embedded schema
func Get(name Name) (string, error) {
	data, err := schemaFiles.ReadFile(path.Join("embedded", string(name)+".schema.json"))
	if err != nil {
		return "", &SchemaLoadError{
			Path:    string(name),
			Message: "unknown schema",
			Cause:   err,
		}
	}
	return string(data), nil
}

// MustGet returns an embedded schema, panicking if it is missing
func MustGet(name Name) string {
	content, err := Get(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load schema: %v", err))
	}
	return content
}
