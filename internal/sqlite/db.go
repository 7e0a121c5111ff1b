package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the shared-store schema. The projects CHECK encodes
// the exactly-one-of owner_ref/guest_ref rule at the storage layer; a claim
// is the single UPDATE that flips guest_ref to owner_ref, so no intermediate
// state ever violates it.
func (db *DB) RunMigrations() error {
	migration := `
-- Projects table
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    owner_ref TEXT,
    guest_ref TEXT,
    document_seq INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    CHECK ((owner_ref IS NULL) != (guest_ref IS NULL))
);
CREATE INDEX IF NOT EXISTS idx_projects_guest ON projects(guest_ref);
CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_ref);

-- Documents table
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    project_id TEXT NOT NULL,
    document_number INTEGER NOT NULL,
    type TEXT NOT NULL CHECK(type IN ('text', 'drawing')),
    is_open INTEGER NOT NULL DEFAULT 0,
    content TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (project_id, document_number),
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_documents_project ON documents(project_id);

-- Memberships table
CREATE TABLE IF NOT EXISTS memberships (
    project_id TEXT NOT NULL,
    account_id TEXT NOT NULL,
    role TEXT NOT NULL CHECK(role IN ('owner', 'editor', 'viewer')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (project_id, account_id),
    FOREIGN KEY (project_id) REFERENCES projects(id)
);
CREATE INDEX IF NOT EXISTS idx_memberships_account ON memberships(account_id);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RunDeviceMigrations creates the device-local key-value schema. Device
// state lives in its own database file, separate from the shared store.
func (db *DB) RunDeviceMigrations() error {
	migration := `
CREATE TABLE IF NOT EXISTS device_state (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

	if _, err := db.Exec(migration); err != nil {
		return fmt.Errorf("failed to run device migrations: %w", err)
	}

	return nil
}
