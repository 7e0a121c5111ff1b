package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/draftroom/draftroom/internal/domain/access"
	"github.com/draftroom/draftroom/internal/domain/project"
	"github.com/draftroom/draftroom/internal/repository"
	"github.com/google/uuid"
)

// Service exposes project, document, and membership operations. Every
// reading or mutating entry point authorizes through the access evaluator
// before touching the store.
type Service struct {
	projects    repository.ProjectRepository
	documents   repository.DocumentRepository
	memberships repository.MembershipRepository
	eval        *access.Evaluator
	logger      *slog.Logger
}

// NewService creates a workspace service.
func NewService(projects repository.ProjectRepository, documents repository.DocumentRepository, memberships repository.MembershipRepository, eval *access.Evaluator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		projects:    projects,
		documents:   documents,
		memberships: memberships,
		eval:        eval,
		logger:      logger,
	}
}

// CreateProject creates a project scoped to the caller: owner_ref for an
// account, guest_ref for a guest. An account creator also receives an owner
// membership, which is what actually grants it access afterward.
func (s *Service) CreateProject(ctx context.Context, ident access.Identity, name string) (*project.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, project.ErrInvalidInput
	}

	proj := &project.Project{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	switch ident.Kind {
	case access.KindAccount:
		ref := ident.ID
		proj.OwnerRef = &ref
	case access.KindGuest:
		ref := ident.ID
		proj.GuestRef = &ref
	default:
		return nil, project.ErrInvalidInput
	}

	if err := s.projects.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	if ident.Kind == access.KindAccount {
		m := &project.Membership{
			ProjectID: proj.ID,
			AccountID: ident.ID,
			Role:      project.RoleOwner,
			CreatedAt: time.Now(),
		}
		if err := s.memberships.Ensure(ctx, m); err != nil {
			return nil, fmt.Errorf("creating owner membership: %w", err)
		}
	}

	return proj, nil
}

// GetProject fetches a project the caller has access to.
func (s *Service) GetProject(ctx context.Context, ident access.Identity, id string) (*project.Project, error) {
	if _, err := s.eval.ResolveRole(ctx, ident, id); err != nil {
		return nil, err
	}
	proj, err := s.projects.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// ListProjects returns the caller's projects: membership-backed for an
// account, guest-scoped for a guest.
func (s *Service) ListProjects(ctx context.Context, ident access.Identity) ([]project.Project, error) {
	switch ident.Kind {
	case access.KindAccount:
		return s.projects.ListByAccount(ctx, ident.ID)
	case access.KindGuest:
		return s.projects.ListByGuest(ctx, ident.ID)
	default:
		return nil, project.ErrInvalidInput
	}
}

// RenameProject renames a project. Owner capability.
func (s *Service) RenameProject(ctx context.Context, ident access.Identity, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return project.ErrInvalidInput
	}
	if err := s.eval.Authorize(ctx, ident, id, access.CapManageProject); err != nil {
		return err
	}
	if err := s.projects.Rename(ctx, id, name); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.ErrProjectNotFound
		}
		return fmt.Errorf("renaming project: %w", err)
	}
	return nil
}

// DeleteProject deletes a project with its documents and memberships.
// Owner capability.
func (s *Service) DeleteProject(ctx context.Context, ident access.Identity, id string) error {
	if err := s.eval.Authorize(ctx, ident, id, access.CapManageProject); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.ErrProjectNotFound
		}
		return fmt.Errorf("deleting project: %w", err)
	}
	return nil
}

// CreateDocument creates a document in a project, allocating the next
// document number.
func (s *Service) CreateDocument(ctx context.Context, ident access.Identity, projectID string, docType project.DocumentType) (*project.Document, error) {
	if !project.ValidDocumentType(docType) {
		return nil, project.ErrInvalidInput
	}
	if err := s.eval.Authorize(ctx, ident, projectID, access.CapCreateDocument); err != nil {
		return nil, err
	}

	doc := &project.Document{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Type:      docType,
		CreatedAt: time.Now(),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrProjectNotFound
		}
		return nil, fmt.Errorf("creating document: %w", err)
	}
	return doc, nil
}

// ReadDocument fetches a document. Open documents are readable by any
// identity that knows them.
func (s *Service) ReadDocument(ctx context.Context, ident access.Identity, documentID string) (*project.Document, error) {
	if err := s.eval.AuthorizeDocument(ctx, ident, documentID, access.CapReadDocument); err != nil {
		return nil, err
	}
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, project.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("getting document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns a project's documents, metadata only, for any
// identity with a role on it. Content is reachable solely through
// ReadDocument, which applies the per-document read check.
func (s *Service) ListDocuments(ctx context.Context, ident access.Identity, projectID string) ([]project.Document, error) {
	if _, err := s.eval.ResolveRole(ctx, ident, projectID); err != nil {
		return nil, err
	}
	return s.documents.ListByProject(ctx, projectID)
}

// WriteDocument replaces document content. The capability depends on the
// document type: text is writable by editors, drawings by owners only.
// Openness never widens write access.
func (s *Service) WriteDocument(ctx context.Context, ident access.Identity, documentID, content string) error {
	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return access.ErrAccessDenied
		}
		return fmt.Errorf("getting document: %w", err)
	}

	cap := access.CapWriteText
	if doc.Type == project.DocumentDrawing {
		cap = access.CapWriteDrawing
	}
	if err := s.eval.Authorize(ctx, ident, doc.ProjectID, cap); err != nil {
		return err
	}

	if err := s.documents.SetContent(ctx, documentID, content); err != nil {
		return fmt.Errorf("writing document: %w", err)
	}
	return nil
}

// DeleteDocument deletes a document. Owner capability.
func (s *Service) DeleteDocument(ctx context.Context, ident access.Identity, documentID string) error {
	if err := s.eval.AuthorizeDocument(ctx, ident, documentID, access.CapDeleteDocument); err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, documentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.ErrDocumentNotFound
		}
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// SetDocumentOpen toggles the per-document read override. Owner capability;
// the override widens reads only, so flipping it is a management action.
func (s *Service) SetDocumentOpen(ctx context.Context, ident access.Identity, documentID string, open bool) error {
	if err := s.eval.AuthorizeDocument(ctx, ident, documentID, access.CapManageProject); err != nil {
		return err
	}
	if err := s.documents.SetOpen(ctx, documentID, open); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.ErrDocumentNotFound
		}
		return fmt.Errorf("setting document visibility: %w", err)
	}
	return nil
}

// AddMember grants an account a role on a project. Owner capability.
// Adding an existing member is a no-op.
func (s *Service) AddMember(ctx context.Context, ident access.Identity, projectID, accountID string, role project.Role) error {
	if !project.ValidRole(role) {
		return project.ErrInvalidInput
	}
	if err := s.eval.Authorize(ctx, ident, projectID, access.CapManageMembers); err != nil {
		return err
	}
	m := &project.Membership{
		ProjectID: projectID,
		AccountID: accountID,
		Role:      role,
		CreatedAt: time.Now(),
	}
	if err := s.memberships.Ensure(ctx, m); err != nil {
		return fmt.Errorf("adding member: %w", err)
	}
	return nil
}

// ChangeRole updates a member's role. Owner capability. The last owner
// cannot be demoted.
func (s *Service) ChangeRole(ctx context.Context, ident access.Identity, projectID, accountID string, role project.Role) error {
	if !project.ValidRole(role) {
		return project.ErrInvalidInput
	}
	if err := s.eval.Authorize(ctx, ident, projectID, access.CapManageMembers); err != nil {
		return err
	}

	if role != project.RoleOwner {
		if err := s.guardLastOwner(ctx, projectID, accountID); err != nil {
			return err
		}
	}

	if err := s.memberships.SetRole(ctx, projectID, accountID, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.ErrMemberNotFound
		}
		return fmt.Errorf("changing role: %w", err)
	}
	return nil
}

// RemoveMember removes a member from a project. Owner capability. The last
// owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, ident access.Identity, projectID, accountID string) error {
	if err := s.eval.Authorize(ctx, ident, projectID, access.CapManageMembers); err != nil {
		return err
	}
	if err := s.guardLastOwner(ctx, projectID, accountID); err != nil {
		return err
	}
	if err := s.memberships.Remove(ctx, projectID, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.ErrMemberNotFound
		}
		return fmt.Errorf("removing member: %w", err)
	}
	return nil
}

// ListMembers returns a project's memberships for any identity with a role
// on it.
func (s *Service) ListMembers(ctx context.Context, ident access.Identity, projectID string) ([]project.Membership, error) {
	if _, err := s.eval.ResolveRole(ctx, ident, projectID); err != nil {
		return nil, err
	}
	return s.memberships.ListByProject(ctx, projectID)
}

// guardLastOwner rejects removing or demoting the only owner membership, so
// a claimed project always keeps at least one.
func (s *Service) guardLastOwner(ctx context.Context, projectID, accountID string) error {
	m, err := s.memberships.Get(ctx, projectID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return project.ErrMemberNotFound
		}
		return fmt.Errorf("checking membership: %w", err)
	}
	if m.Role != project.RoleOwner {
		return nil
	}
	owners, err := s.memberships.CountOwners(ctx, projectID)
	if err != nil {
		return fmt.Errorf("counting owners: %w", err)
	}
	if owners <= 1 {
		return project.ErrLastOwner
	}
	return nil
}
