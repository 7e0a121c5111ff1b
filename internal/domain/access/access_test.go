package access_test

import (
	"context"
	"testing"

	"github.com/draftroom/draftroom/internal/domain/access"
	"github.com/draftroom/draftroom/internal/domain/project"
	"github.com/draftroom/draftroom/internal/repository"
	"github.com/draftroom/draftroom/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestCan_CapabilityTable(t *testing.T) {
	tests := []struct {
		role project.Role
		cap  access.Capability
		want bool
	}{
		{project.RoleOwner, access.CapReadDocument, true},
		{project.RoleOwner, access.CapWriteText, true},
		{project.RoleOwner, access.CapWriteDrawing, true},
		{project.RoleOwner, access.CapCreateDocument, true},
		{project.RoleOwner, access.CapDeleteDocument, true},
		{project.RoleOwner, access.CapManageMembers, true},
		{project.RoleOwner, access.CapManageProject, true},

		{project.RoleEditor, access.CapReadDocument, true},
		{project.RoleEditor, access.CapWriteText, true},
		{project.RoleEditor, access.CapWriteDrawing, false},
		{project.RoleEditor, access.CapCreateDocument, true},
		{project.RoleEditor, access.CapDeleteDocument, false},
		{project.RoleEditor, access.CapManageMembers, false},
		{project.RoleEditor, access.CapManageProject, false},

		{project.RoleViewer, access.CapReadDocument, false},
		{project.RoleViewer, access.CapWriteText, false},
		{project.RoleViewer, access.CapWriteDrawing, false},
		{project.RoleViewer, access.CapCreateDocument, false},
		{project.RoleViewer, access.CapDeleteDocument, false},
		{project.RoleViewer, access.CapManageMembers, false},
		{project.RoleViewer, access.CapManageProject, false},
	}

	for _, tt := range tests {
		got := access.Can(tt.role, tt.cap)
		require.Equal(t, tt.want, got, "Can(%s, %s)", tt.role, tt.cap)
	}

	require.False(t, access.Can(project.Role("admin"), access.CapReadDocument), "unknown role grants nothing")
}

func newEvaluator(projects *mocks.ProjectRepository, memberships *mocks.MembershipRepository, documents *mocks.DocumentRepository) *access.Evaluator {
	return access.NewEvaluator(projects, memberships, documents, nil)
}

func TestResolveRole_GuestOwnProject(t *testing.T) {
	ctx := context.Background()
	guestRef := "g1"

	projects := &mocks.ProjectRepository{}
	projects.On("Get", ctx, "p1").Return(&project.Project{ID: "p1", GuestRef: &guestRef}, nil)

	eval := newEvaluator(projects, &mocks.MembershipRepository{}, &mocks.DocumentRepository{})

	role, err := eval.ResolveRole(ctx, access.GuestIdentity("g1"), "p1")
	require.NoError(t, err)
	require.Equal(t, project.RoleOwner, role)

	_, err = eval.ResolveRole(ctx, access.GuestIdentity("g2"), "p1")
	require.ErrorIs(t, err, access.ErrAccessDenied)
}

func TestResolveRole_AccountNeedsMembership(t *testing.T) {
	ctx := context.Background()
	ownerRef := "acct-1"

	projects := &mocks.ProjectRepository{}
	projects.On("Get", ctx, "p1").Return(&project.Project{ID: "p1", OwnerRef: &ownerRef}, nil)

	memberships := &mocks.MembershipRepository{}
	memberships.On("Get", ctx, "p1", "acct-1").Return(nil, repository.ErrNotFound)
	memberships.On("Get", ctx, "p1", "acct-2").Return(&project.Membership{ProjectID: "p1", AccountID: "acct-2", Role: project.RoleEditor}, nil)

	eval := newEvaluator(projects, memberships, &mocks.DocumentRepository{})

	// owner_ref alone never grants access
	_, err := eval.ResolveRole(ctx, access.AccountIdentity("acct-1"), "p1")
	require.ErrorIs(t, err, access.ErrAccessDenied)

	role, err := eval.ResolveRole(ctx, access.AccountIdentity("acct-2"), "p1")
	require.NoError(t, err)
	require.Equal(t, project.RoleEditor, role)
}

func TestResolveRole_UnknownProjectDenied(t *testing.T) {
	ctx := context.Background()

	projects := &mocks.ProjectRepository{}
	projects.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)

	eval := newEvaluator(projects, &mocks.MembershipRepository{}, &mocks.DocumentRepository{})

	_, err := eval.ResolveRole(ctx, access.AccountIdentity("acct-1"), "missing")
	require.ErrorIs(t, err, access.ErrAccessDenied)
}

func TestResolveRole_InvariantViolationDenied(t *testing.T) {
	ctx := context.Background()
	ownerRef := "acct-1"
	guestRef := "g1"

	// A corrupt record with both refs set is inaccessible to everyone,
	// including identities that would otherwise match.
	projects := &mocks.ProjectRepository{}
	projects.On("Get", ctx, "p1").Return(&project.Project{ID: "p1", OwnerRef: &ownerRef, GuestRef: &guestRef}, nil)

	eval := newEvaluator(projects, &mocks.MembershipRepository{}, &mocks.DocumentRepository{})

	_, err := eval.ResolveRole(ctx, access.GuestIdentity("g1"), "p1")
	require.ErrorIs(t, err, access.ErrAccessDenied)
	_, err = eval.ResolveRole(ctx, access.AccountIdentity("acct-1"), "p1")
	require.ErrorIs(t, err, access.ErrAccessDenied)
}

func TestAuthorize_DeniesMissingCapability(t *testing.T) {
	ctx := context.Background()
	ownerRef := "acct-1"

	projects := &mocks.ProjectRepository{}
	projects.On("Get", ctx, "p1").Return(&project.Project{ID: "p1", OwnerRef: &ownerRef}, nil)

	memberships := &mocks.MembershipRepository{}
	memberships.On("Get", ctx, "p1", "acct-2").Return(&project.Membership{ProjectID: "p1", AccountID: "acct-2", Role: project.RoleEditor}, nil)

	eval := newEvaluator(projects, memberships, &mocks.DocumentRepository{})

	ident := access.AccountIdentity("acct-2")
	require.NoError(t, eval.Authorize(ctx, ident, "p1", access.CapWriteText))
	require.ErrorIs(t, eval.Authorize(ctx, ident, "p1", access.CapWriteDrawing), access.ErrAccessDenied)
	require.ErrorIs(t, eval.Authorize(ctx, ident, "p1", access.CapManageMembers), access.ErrAccessDenied)
}

func TestAuthorizeDocument_OpenReadBypass(t *testing.T) {
	ctx := context.Background()
	ownerRef := "acct-1"

	projects := &mocks.ProjectRepository{}
	projects.On("Get", ctx, "p1").Return(&project.Project{ID: "p1", OwnerRef: &ownerRef}, nil)

	memberships := &mocks.MembershipRepository{}
	memberships.On("Get", ctx, "p1", "stranger").Return(nil, repository.ErrNotFound)

	documents := &mocks.DocumentRepository{}
	documents.On("Get", ctx, "d-open").Return(&project.Document{ID: "d-open", ProjectID: "p1", Type: project.DocumentText, IsOpen: true}, nil)
	documents.On("Get", ctx, "d-closed").Return(&project.Document{ID: "d-closed", ProjectID: "p1", Type: project.DocumentText, IsOpen: false}, nil)

	eval := newEvaluator(projects, memberships, documents)
	stranger := access.AccountIdentity("stranger")

	// Open documents are readable without any membership
	require.NoError(t, eval.AuthorizeDocument(ctx, stranger, "d-open", access.CapReadDocument))

	// Closed documents are not
	require.ErrorIs(t, eval.AuthorizeDocument(ctx, stranger, "d-closed", access.CapReadDocument), access.ErrAccessDenied)

	// Openness never widens write access
	require.ErrorIs(t, eval.AuthorizeDocument(ctx, stranger, "d-open", access.CapWriteText), access.ErrAccessDenied)
}

func TestAuthorizeDocument_ViewerReadsOpenOnly(t *testing.T) {
	ctx := context.Background()
	ownerRef := "acct-1"

	projects := &mocks.ProjectRepository{}
	projects.On("Get", ctx, "p1").Return(&project.Project{ID: "p1", OwnerRef: &ownerRef}, nil)

	memberships := &mocks.MembershipRepository{}
	memberships.On("Get", ctx, "p1", "viewer-acct").Return(&project.Membership{ProjectID: "p1", AccountID: "viewer-acct", Role: project.RoleViewer}, nil)

	documents := &mocks.DocumentRepository{}
	documents.On("Get", ctx, "d1").Return(&project.Document{ID: "d1", ProjectID: "p1", Type: project.DocumentText, IsOpen: false}, nil).Once()

	eval := newEvaluator(projects, memberships, documents)
	viewer := access.AccountIdentity("viewer-acct")

	require.ErrorIs(t, eval.AuthorizeDocument(ctx, viewer, "d1", access.CapReadDocument), access.ErrAccessDenied)

	// Same document, now open
	documents.On("Get", ctx, "d1").Return(&project.Document{ID: "d1", ProjectID: "p1", Type: project.DocumentText, IsOpen: true}, nil)
	require.NoError(t, eval.AuthorizeDocument(ctx, viewer, "d1", access.CapReadDocument))
}

func TestAuthorizeDocument_UnknownDocumentDenied(t *testing.T) {
	ctx := context.Background()

	documents := &mocks.DocumentRepository{}
	documents.On("Get", ctx, "missing").Return(nil, repository.ErrNotFound)

	eval := newEvaluator(&mocks.ProjectRepository{}, &mocks.MembershipRepository{}, documents)

	err := eval.AuthorizeDocument(ctx, access.AccountIdentity("acct-1"), "missing", access.CapReadDocument)
	require.ErrorIs(t, err, access.ErrAccessDenied)
}
