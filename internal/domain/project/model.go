package project

import "time"

// Role grants an account a level of access to a project. Membership rows,
// not Project.OwnerRef, are authoritative for permission checks.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

// DocumentType distinguishes the two editor surfaces.
type DocumentType string

const (
	DocumentText    DocumentType = "text"
	DocumentDrawing DocumentType = "drawing"
)

// ValidDocumentType reports whether t is a known document type.
func ValidDocumentType(t DocumentType) bool {
	return t == DocumentText || t == DocumentDrawing
}

// Project is a container for documents. Exactly one of OwnerRef and GuestRef
// is set at any time: a project starts out scoped to either an account or a
// device guest identity, and a claim flips GuestRef to OwnerRef atomically.
// OwnerRef records provenance only; it never grants access by itself.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerRef  *string   `json:"owner_ref,omitempty"`
	GuestRef  *string   `json:"guest_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CheckOwnership verifies the exactly-one-ref rule. A record that fails it is
// corrupt and must be treated as inaccessible.
func (p *Project) CheckOwnership() error {
	if (p.OwnerRef != nil) == (p.GuestRef != nil) {
		return ErrOwnershipInvariant
	}
	return nil
}

// Document belongs to exactly one project. DocumentNumber is allocated
// monotonically within the project and is the stable external reference.
// An open document is readable by any identity that knows the project,
// regardless of membership; openness never widens write access.
type Document struct {
	ID             string       `json:"id"`
	ProjectID      string       `json:"project_id"`
	DocumentNumber int64        `json:"document_number"`
	Type           DocumentType `json:"type"`
	IsOpen         bool         `json:"is_open"`
	Content        string       `json:"content,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Membership grants an account a role on a project. At most one row exists
// per (project, account).
type Membership struct {
	ProjectID string    `json:"project_id"`
	AccountID string    `json:"account_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
