//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	require.NoError(t, Migrate(dsn, "up", 0))

	db, err := Connect(context.Background(), dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// Clean up test data before each test
	_, _ = db.pool.Exec(context.Background(), "DELETE FROM discoveries WHERE name_normalized LIKE 'testco%'")

	return db
}

func TestIntegration_InsertDiscovery(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	d := &Discovery{
		CanonicalName: "TestCo Alpha",
		QueryName:     "testco alpha",
		Profile:       []byte(`{"name": "TestCo Alpha"}`),
		AuditTrail:    []string{"AUDITOR: kept 2 of 3 sources"},
	}

	inserted, err := db.InsertDiscovery(ctx, d)
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := db.GetDiscoveryByName(ctx, "TestCo Alpha, Inc.")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, []string{"AUDITOR: kept 2 of 3 sources"}, got.AuditTrail)
	assert.JSONEq(t, `{"name": "TestCo Alpha"}`, string(got.Profile))

	t.Run("duplicate name is skipped", func(t *testing.T) {
		inserted, err := db.InsertDiscovery(ctx, &Discovery{
			CanonicalName: "testco alpha",
			Profile:       []byte(`{"name": "other"}`),
		})
		require.NoError(t, err)
		assert.False(t, inserted)

		got, err := db.GetDiscoveryByName(ctx, "TestCo Alpha")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name": "TestCo Alpha"}`, string(got.Profile))
	})
}

func TestIntegration_GetDiscoveryByName_NotFound(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	got, err := db.GetDiscoveryByName(context.Background(), "testco missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIntegration_ListDiscoveries(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	before, err := db.CountDiscoveries(ctx)
	require.NoError(t, err)

	for _, name := range []string{"TestCo One", "TestCo Two"} {
		_, err := db.InsertDiscovery(ctx, &Discovery{CanonicalName: name, Profile: []byte(`{}`)})
		require.NoError(t, err)
	}

	list, err := db.ListDiscoveries(ctx)
	require.NoError(t, err)
	assert.Len(t, list, before+2)

	after, err := db.CountDiscoveries(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+2, after)

	for _, d := range list {
		if d.NameNormalized == "testco one" {
			require.NoError(t, db.DeleteDiscovery(ctx, d.ID))
		}
	}
	got, err := db.GetDiscoveryByName(ctx, "TestCo One")
	require.NoError(t, err)
	assert.Nil(t, got)
}
