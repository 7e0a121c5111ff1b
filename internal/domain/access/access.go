package access

import (
	"errors"

	"github.com/draftroom/draftroom/internal/domain/project"
)

// ErrAccessDenied is the typed denial returned by every failed check. It is
// expected and user-facing, never an unexpected failure.
var ErrAccessDenied = errors.New("access denied")

// Capability is a single gated operation on a project or its documents.
type Capability string

const (
	// CapReadDocument reads document content. Open documents bypass the
	// role table for this capability only (see Evaluator.AuthorizeDocument).
	CapReadDocument Capability = "read_document"
	// CapWriteText writes text document content.
	CapWriteText Capability = "write_text"
	// CapWriteDrawing writes drawing document content.
	CapWriteDrawing Capability = "write_drawing"
	// CapCreateDocument creates a document in a project.
	CapCreateDocument Capability = "create_document"
	// CapDeleteDocument deletes a document.
	CapDeleteDocument Capability = "delete_document"
	// CapManageMembers adds, removes, or re-roles project members.
	CapManageMembers Capability = "manage_members"
	// CapManageProject renames or deletes the project and toggles
	// document visibility.
	CapManageProject Capability = "manage_project"
)

// Can reports whether a role grants a capability. Viewers hold no standing
// capability of their own: their reads go through the open-document bypass,
// and the membership row keeps the project on their list.
func Can(role project.Role, cap Capability) bool {
	switch role {
	case project.RoleOwner:
		return true
	case project.RoleEditor:
		return cap == CapReadDocument || cap == CapWriteText || cap == CapCreateDocument
	case project.RoleViewer:
		return false
	default:
		return false
	}
}

// IdentityKind distinguishes authenticated accounts from device guests.
type IdentityKind string

const (
	KindAccount IdentityKind = "account"
	KindGuest   IdentityKind = "guest"
)

// Identity is the explicit caller identity passed to every check. It is
// supplied by the session coordinator or transport layer, never read from
// ambient state.
type Identity struct {
	Kind IdentityKind
	ID   string
}

// AccountIdentity returns an identity for an authenticated account.
func AccountIdentity(accountID string) Identity {
	return Identity{Kind: KindAccount, ID: accountID}
}

// GuestIdentity returns an identity for a device guest.
func GuestIdentity(guestID string) Identity {
	return Identity{Kind: KindGuest, ID: guestID}
}
