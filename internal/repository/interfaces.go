package repository

import (
	"context"

	"github.com/draftroom/draftroom/internal/domain/project"
)

// ProjectRepository manages project persistence
type ProjectRepository interface {
	Create(ctx context.Context, proj *project.Project) error
	Get(ctx context.Context, id string) (*project.Project, error)
	// ListByGuest returns unclaimed projects scoped to a guest identity.
	ListByGuest(ctx context.Context, guestID string) ([]project.Project, error)
	// ListByAccount returns projects the account holds a membership on.
	ListByAccount(ctx context.Context, accountID string) ([]project.Project, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	// TransferOwnership sets owner_ref and clears guest_ref, but only while
	// owner_ref is still null. Returns ErrConflict when the project exists
	// and is already owned, ErrNotFound when it doesn't exist.
	TransferOwnership(ctx context.Context, projectID, accountID string) error
}

// DocumentRepository manages document persistence
type DocumentRepository interface {
	// Create inserts the document, allocating the next document number
	// within its project and storing it on doc.
	Create(ctx context.Context, doc *project.Document) error
	Get(ctx context.Context, id string) (*project.Document, error)
	ListByProject(ctx context.Context, projectID string) ([]project.Document, error)
	Delete(ctx context.Context, id string) error
	SetOpen(ctx context.Context, id string, open bool) error
	SetContent(ctx context.Context, id, content string) error
}

// MembershipRepository manages membership persistence
type MembershipRepository interface {
	// Ensure inserts the membership if no row exists for its
	// (project, account) pair. An existing row is left untouched.
	Ensure(ctx context.Context, m *project.Membership) error
	Get(ctx context.Context, projectID, accountID string) (*project.Membership, error)
	ListByProject(ctx context.Context, projectID string) ([]project.Membership, error)
	SetRole(ctx context.Context, projectID, accountID string, role project.Role) error
	Remove(ctx context.Context, projectID, accountID string) error
	CountOwners(ctx context.Context, projectID string) (int, error)
}

// DeviceStateRepository is durable key-value storage on the local device
type DeviceStateRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
