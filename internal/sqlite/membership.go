package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/draftroom/draftroom/internal/domain/project"
	"github.com/draftroom/draftroom/internal/repository"
)

// MembershipRepository implements repository.MembershipRepository for SQLite
type MembershipRepository struct {
	db *DB
}

// NewMembershipRepository creates a new MembershipRepository
func NewMembershipRepository(db *DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Ensure inserts the membership unless a row already exists for its
// (project, account) pair. Safe to retry: an existing row, whatever its
// role, is left untouched.
func (r *MembershipRepository) Ensure(ctx context.Context, m *project.Membership) error {
	query := `
		INSERT INTO memberships (project_id, account_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (project_id, account_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ProjectID,
		m.AccountID,
		string(m.Role),
		m.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to ensure membership: %w", err)
	}

	return nil
}

// Get retrieves the membership for an account on a project
func (r *MembershipRepository) Get(ctx context.Context, projectID, accountID string) (*project.Membership, error) {
	query := `
		SELECT project_id, account_id, role, created_at
		FROM memberships
		WHERE project_id = ? AND account_id = ?
	`

	m, err := scanMembership(r.db.QueryRowContext(ctx, query, projectID, accountID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return m, nil
}

// ListByProject returns all memberships on a project
func (r *MembershipRepository) ListByProject(ctx context.Context, projectID string) ([]project.Membership, error) {
	query := `
		SELECT project_id, account_id, role, created_at
		FROM memberships
		WHERE project_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var members []project.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		members = append(members, *m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating membership rows: %w", err)
	}

	return members, nil
}

// SetRole updates a member's role
func (r *MembershipRepository) SetRole(ctx context.Context, projectID, accountID string, role project.Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET role = ? WHERE project_id = ? AND account_id = ?`,
		string(role), projectID, accountID)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Remove deletes a membership
func (r *MembershipRepository) Remove(ctx context.Context, projectID, accountID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE project_id = ? AND account_id = ?`,
		projectID, accountID)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CountOwners returns the number of owner memberships on a project
func (r *MembershipRepository) CountOwners(ctx context.Context, projectID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memberships WHERE project_id = ? AND role = 'owner'`,
		projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}
	return count, nil
}

func scanMembership(row rowScanner) (*project.Membership, error) {
	var (
		m    project.Membership
		role string
	)
	if err := row.Scan(&m.ProjectID, &m.AccountID, &role, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Role = project.Role(role)
	return &m, nil
}
