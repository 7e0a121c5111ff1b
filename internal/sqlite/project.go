package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/draftroom/draftroom/internal/domain/project"
	"github.com/draftroom/draftroom/internal/repository"
)

// ProjectRepository implements repository.ProjectRepository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	query := `
		INSERT INTO projects (id, name, owner_ref, guest_ref, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		proj.ID,
		proj.Name,
		proj.OwnerRef,
		proj.GuestRef,
		proj.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	query := `
		SELECT id, name, owner_ref, guest_ref, created_at
		FROM projects
		WHERE id = ?
	`

	proj, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return proj, nil
}

// ListByGuest returns unclaimed projects scoped to a guest identity
func (r *ProjectRepository) ListByGuest(ctx context.Context, guestID string) ([]project.Project, error) {
	query := `
		SELECT id, name, owner_ref, guest_ref, created_at
		FROM projects
		WHERE guest_ref = ? AND owner_ref IS NULL
		ORDER BY created_at DESC
	`

	return r.list(ctx, query, guestID)
}

// ListByAccount returns projects the account holds a membership on
func (r *ProjectRepository) ListByAccount(ctx context.Context, accountID string) ([]project.Project, error) {
	query := `
		SELECT p.id, p.name, p.owner_ref, p.guest_ref, p.created_at
		FROM projects p
		JOIN memberships m ON m.project_id = p.id
		WHERE m.account_id = ?
		ORDER BY p.created_at DESC
	`

	return r.list(ctx, query, accountID)
}

// Rename updates the project name
func (r *ProjectRepository) Rename(ctx context.Context, id, name string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename project: %w", err)
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

// Delete removes a project together with its documents and memberships
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete project documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memberships WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete project memberships: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// TransferOwnership conditionally flips guest scoping to account ownership.
// The WHERE clause only matches while owner_ref is still null, so of any
// number of concurrent callers exactly one updates the row; the rest see
// zero rows affected and get ErrConflict.
func (r *ProjectRepository) TransferOwnership(ctx context.Context, projectID, accountID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE projects SET owner_ref = ?, guest_ref = NULL WHERE id = ? AND owner_ref IS NULL`,
		accountID, projectID)
	if err != nil {
		return fmt.Errorf("failed to transfer ownership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Distinguish a lost race from a missing project.
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM projects WHERE id = ?`, projectID).Scan(&exists)
	if err == sql.ErrNoRows {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check project existence: %w", err)
	}
	return repository.ErrConflict
}

func (r *ProjectRepository) list(ctx context.Context, query string, arg any) ([]project.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*project.Project, error) {
	var (
		proj     project.Project
		ownerRef sql.NullString
		guestRef sql.NullString
	)
	if err := row.Scan(&proj.ID, &proj.Name, &ownerRef, &guestRef, &proj.CreatedAt); err != nil {
		return nil, err
	}
	if ownerRef.Valid {
		proj.OwnerRef = &ownerRef.String
	}
	if guestRef.Valid {
		proj.GuestRef = &guestRef.String
	}
	return &proj, nil
}
