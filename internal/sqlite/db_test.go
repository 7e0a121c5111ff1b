package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory store database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// NewTestDeviceDB creates a new in-memory device database for testing
func NewTestDeviceDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunDeviceMigrations()
	require.NoError(t, err, "failed to run device migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"projects",
		"documents",
		"memberships",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestOwnershipCheck verifies the exactly-one-ref constraint on projects
func TestOwnershipCheck(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	// Guest-scoped project is fine
	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, name, guest_ref) VALUES (?, ?, ?)`,
		"p1", "Guest Project", "g1")
	require.NoError(t, err)

	// Account-owned project is fine
	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (id, name, owner_ref) VALUES (?, ?, ?)`,
		"p2", "Owned Project", "acct-1")
	require.NoError(t, err)

	// Both refs set must fail
	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (id, name, owner_ref, guest_ref) VALUES (?, ?, ?, ?)`,
		"p3", "Bad Project", "acct-1", "g1")
	require.Error(t, err, "should reject a project with both refs")

	// Neither ref set must fail
	_, err = db.ExecContext(ctx,
		`INSERT INTO projects (id, name) VALUES (?, ?)`,
		"p4", "Bad Project")
	require.Error(t, err, "should reject a project with neither ref")
}

// TestDocumentConstraints verifies type and numbering constraints
func TestDocumentConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, name, guest_ref) VALUES (?, ?, ?)`,
		"p1", "Test Project", "g1")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO documents (id, project_id, document_number, type) VALUES (?, ?, ?, ?)`,
		"d1", "p1", 1, "text")
	require.NoError(t, err)

	// Unknown document type must fail
	_, err = db.ExecContext(ctx,
		`INSERT INTO documents (id, project_id, document_number, type) VALUES (?, ?, ?, ?)`,
		"d2", "p1", 2, "spreadsheet")
	require.Error(t, err, "should reject unknown document type")

	// Duplicate number within a project must fail
	_, err = db.ExecContext(ctx,
		`INSERT INTO documents (id, project_id, document_number, type) VALUES (?, ?, ?, ?)`,
		"d3", "p1", 1, "drawing")
	require.Error(t, err, "should reject duplicate document number")

	// Unknown project must fail the foreign key
	_, err = db.ExecContext(ctx,
		`INSERT INTO documents (id, project_id, document_number, type) VALUES (?, ?, ?, ?)`,
		"d4", "nonexistent", 1, "text")
	require.Error(t, err, "should reject document on missing project")
}

// TestMembershipConstraints verifies role and uniqueness constraints
func TestMembershipConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO projects (id, name, owner_ref) VALUES (?, ?, ?)`,
		"p1", "Test Project", "acct-1")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO memberships (project_id, account_id, role) VALUES (?, ?, ?)`,
		"p1", "acct-1", "owner")
	require.NoError(t, err)

	// Second row for the same (project, account) must fail
	_, err = db.ExecContext(ctx,
		`INSERT INTO memberships (project_id, account_id, role) VALUES (?, ?, ?)`,
		"p1", "acct-1", "viewer")
	require.Error(t, err, "should reject duplicate membership")

	// Unknown role must fail
	_, err = db.ExecContext(ctx,
		`INSERT INTO memberships (project_id, account_id, role) VALUES (?, ?, ?)`,
		"p1", "acct-2", "superuser")
	require.Error(t, err, "should reject unknown role")
}
