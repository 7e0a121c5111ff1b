package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/draftroom/draftroom/internal/domain/project"
	"github.com/draftroom/draftroom/internal/repository"
)

// DocumentRepository implements repository.DocumentRepository for SQLite
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts the document, allocating the next document number from the
// project's persistent counter. The counter only moves forward, so a deleted
// document's number is never reassigned; incrementing it first also takes the
// write lock, serializing concurrent creates within the project.
func (r *DocumentRepository) Create(ctx context.Context, doc *project.Document) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE projects SET document_seq = document_seq + 1 WHERE id = ?`,
		doc.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to allocate document number: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	var number int64
	err = tx.QueryRowContext(ctx,
		`SELECT document_seq FROM projects WHERE id = ?`,
		doc.ProjectID).Scan(&number)
	if err != nil {
		return fmt.Errorf("failed to read document number: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, project_id, document_number, type, is_open, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		doc.ID,
		doc.ProjectID,
		number,
		string(doc.Type),
		doc.IsOpen,
		doc.Content,
		doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	doc.DocumentNumber = number
	return nil
}

// Get retrieves a document by ID
func (r *DocumentRepository) Get(ctx context.Context, id string) (*project.Document, error) {
	query := `
		SELECT id, project_id, document_number, type, is_open, content, created_at
		FROM documents
		WHERE id = ?
	`

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// ListByProject returns a project's documents in document-number order.
// Listings are metadata only: content stays behind the per-document read
// check and is fetched through Get.
func (r *DocumentRepository) ListByProject(ctx context.Context, projectID string) ([]project.Document, error) {
	query := `
		SELECT id, project_id, document_number, type, is_open, created_at
		FROM documents
		WHERE project_id = ?
		ORDER BY document_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []project.Document
	for rows.Next() {
		var (
			doc     project.Document
			docType string
		)
		if err := rows.Scan(&doc.ID, &doc.ProjectID, &doc.DocumentNumber, &docType, &doc.IsOpen, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.Type = project.DocumentType(docType)
		docs = append(docs, doc)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM documents WHERE id = ?`, id)
}

// SetOpen toggles the open-read override
func (r *DocumentRepository) SetOpen(ctx context.Context, id string, open bool) error {
	return r.exec(ctx, `UPDATE documents SET is_open = ? WHERE id = ?`, open, id)
}

// SetContent replaces the opaque document content
func (r *DocumentRepository) SetContent(ctx context.Context, id, content string) error {
	return r.exec(ctx, `UPDATE documents SET content = ? WHERE id = ?`, content, id)
}

func (r *DocumentRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
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

func scanDocument(row rowScanner) (*project.Document, error) {
	var (
		doc     project.Document
		docType string
	)
	if err := row.Scan(&doc.ID, &doc.ProjectID, &doc.DocumentNumber, &docType, &doc.IsOpen, &doc.Content, &doc.CreatedAt); err != nil {
		return nil, err
	}
	doc.Type = project.DocumentType(docType)
	return &doc, nil
}
