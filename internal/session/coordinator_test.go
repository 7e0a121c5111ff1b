package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/draftroom/draftroom/internal/auth"
	"github.com/draftroom/draftroom/internal/domain/claim"
	"github.com/draftroom/draftroom/internal/domain/identity"
	"github.com/draftroom/draftroom/internal/session"
	"github.com/stretchr/testify/require"
)

type stubClaimer struct {
	mu    sync.Mutex
	calls []claimCall
	err   error
}

type claimCall struct {
	accountID  string
	guestID    string
	remembered *string
}

func (s *stubClaimer) Claim(ctx context.Context, accountID, guestID string, remembered *string) (claim.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, claimCall{accountID: accountID, guestID: guestID, remembered: remembered})
	return claim.Result{ClaimedCount: 1}, s.err
}

func (s *stubClaimer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubIdentity struct {
	mu          sync.Mutex
	guestID     string
	retired     bool
	lastVisited *identity.Pointer
}

func (s *stubIdentity) GetOrCreateGuestID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.retired {
		return "", identity.ErrGuestIdentityRetired
	}
	return s.guestID, nil
}

func (s *stubIdentity) Retire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retired = true
	return nil
}

func (s *stubIdentity) LastVisited(ctx context.Context) (*identity.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastVisited, nil
}

func TestResume_FreshDeviceIsGuest(t *testing.T) {
	ids := &stubIdentity{guestID: "g1"}
	coord := session.NewCoordinator(ids, &stubClaimer{}, nil)

	require.NoError(t, coord.Resume(context.Background()))

	snap := coord.Snapshot()
	require.Equal(t, session.StateAnonymous, snap.State)
	require.Equal(t, "g1", snap.GuestID)
	require.Nil(t, snap.Account)
}

func TestResume_RetiredDeviceHasNoGuestID(t *testing.T) {
	ids := &stubIdentity{retired: true}
	coord := session.NewCoordinator(ids, &stubClaimer{}, nil)

	require.NoError(t, coord.Resume(context.Background()))

	snap := coord.Snapshot()
	require.Equal(t, session.StateAnonymous, snap.State)
	require.Empty(t, snap.GuestID)
}

func TestSignIn_DispatchesOneClaim(t *testing.T) {
	ids := &stubIdentity{guestID: "g1"}
	claimer := &stubClaimer{}
	coord := session.NewCoordinator(ids, claimer, nil)
	ctx := context.Background()

	require.NoError(t, coord.Resume(ctx))
	coord.BeginAuthentication()
	require.Equal(t, session.StateAuthenticating, coord.Snapshot().State)

	coord.HandleEvent(ctx, auth.Event{Type: auth.EventSignedIn, Account: &auth.Account{ID: "acct-1"}})
	coord.Wait()

	snap := coord.Snapshot()
	require.Equal(t, session.StateAuthenticated, snap.State)
	require.Equal(t, "acct-1", snap.Account.ID)
	require.Empty(t, snap.GuestID, "guest scoping ends at sign-in")

	require.Equal(t, 1, claimer.callCount())
	require.Equal(t, "acct-1", claimer.calls[0].accountID)
	require.Equal(t, "g1", claimer.calls[0].guestID)
	require.True(t, ids.retired, "guest identity retires at sign-in")
}

func TestCancelAuthentication_ReturnsToAnonymous(t *testing.T) {
	ids := &stubIdentity{guestID: "g1"}
	coord := session.NewCoordinator(ids, &stubClaimer{}, nil)
	ctx := context.Background()

	require.NoError(t, coord.Resume(ctx))
	coord.BeginAuthentication()
	require.Equal(t, session.StateAuthenticating, coord.Snapshot().State)

	coord.CancelAuthentication()
	snap := coord.Snapshot()
	require.Equal(t, session.StateAnonymous, snap.State)
	require.Equal(t, "g1", snap.GuestID, "an abandoned hand-off keeps guest scoping")
}

func TestCancelAuthentication_NoOpWhenAuthenticated(t *testing.T) {
	ids := &stubIdentity{guestID: "g1"}
	coord := session.NewCoordinator(ids, &stubClaimer{}, nil)
	ctx := context.Background()

	require.NoError(t, coord.Resume(ctx))
	coord.HandleEvent(ctx, auth.Event{Type: auth.EventSignedIn, Account: &auth.Account{ID: "acct-1"}})
	coord.Wait()

	coord.CancelAuthentication()
	require.Equal(t, session.StateAuthenticated, coord.Snapshot().State)
}

func TestSignIn_DuplicateEventsDeduplicated(t *testing.T) {
	ids := &stubIdentity{guestID: "g1"}
	claimer := &stubClaimer{}
	coord := session.NewCoordinator(ids, claimer, nil)
	ctx := context.Background()

	require.NoError(t, coord.Resume(ctx))

	ev := auth.Event{Type: auth.EventSignedIn, Account: &auth.Account{ID: "acct-1"}}
	coord.HandleEvent(ctx, ev)
	coord.HandleEvent(ctx, ev)
	coord.HandleEvent(ctx, ev)
	coord.Wait()

	require.Equal(t, 1, claimer.callCount(), "duplicate signed-in events must not re-claim")
}

func TestTokenRefresh_IsNotASignIn(t *testing.T) {
	ids := &stubIdentity{guestID: "g1"}
	claimer := &stubClaimer{}
	coord := session.NewCoordinator(ids, claimer, nil)
	ctx := context.Background()

	require.NoError(t, coord.Resume(ctx))
	coord.HandleEvent(ctx, auth.Event{Type: auth.EventSignedIn, Account: &auth.Account{ID: "acct-1"}})
	coord.Wait()

	coord.HandleEvent(ctx, auth.Event{Type: auth.EventTokenRefreshed, Account: &auth.Account{ID: "acct-1"}})
	coord.Wait()

	require.Equal(t, 1, claimer.callCount())
	require.Equal(t, session.StateAuthenticated, coord.Snapshot().State)
}

func TestSignOut_ThenSignInClaimsAgain(t *testing.T) {
	ids := &stubIdentity{guestID: "g1", lastVisited: &identity.Pointer{ProjectID: "p1"}}
	claimer := &stubClaimer{}
	coord := session.NewCoordinator(ids, claimer, nil)
	ctx := context.Background()

	require.NoError(t, coord.Resume(ctx))
	coord.HandleEvent(ctx, auth.Event{Type: auth.EventSignedIn, Account: &auth.Account{ID: "acct-1"}})
	coord.Wait()

	coord.HandleEvent(ctx, auth.Event{Type: auth.EventSignedOut})
	snap := coord.Snapshot()
	require.Equal(t, session.StateSignedOut, snap.State)
	require.Nil(t, snap.Account)

	// A fresh sign-in after sign-out is a genuine sign-in, but the guest
	// identity is gone. The claim still runs for the remembered pointer.
	coord.HandleEvent(ctx, auth.Event{Type: auth.EventSignedIn, Account: &auth.Account{ID: "acct-1"}})
	coord.Wait()

	require.Equal(t, 2, claimer.callCount())
	second := claimer.calls[1]
	require.Empty(t, second.guestID)
	require.NotNil(t, second.remembered)
	require.Equal(t, "p1", *second.remembered)
}

func TestSignIn_NothingToClaimSkipsDispatch(t *testing.T) {
	// No guest identity and no remembered pointer: there is no claim to run.
	ids := &stubIdentity{retired: true}
	claimer := &stubClaimer{}
	coord := session.NewCoordinator(ids, claimer, nil)
	ctx := context.Background()

	require.NoError(t, coord.Resume(ctx))
	coord.HandleEvent(ctx, auth.Event{Type: auth.EventSignedIn, Account: &auth.Account{ID: "acct-1"}})
	coord.Wait()

	require.Equal(t, 0, claimer.callCount())
	require.Equal(t, session.StateAuthenticated, coord.Snapshot().State)
}

func TestSignIn_ClaimFailureDoesNotBlockSession(t *testing.T) {
	ids := &stubIdentity{guestID: "g1"}
	claimer := &stubClaimer{err: errors.New("store unavailable")}
	coord := session.NewCoordinator(ids, claimer, nil)
	ctx := context.Background()

	require.NoError(t, coord.Resume(ctx))
	coord.HandleEvent(ctx, auth.Event{Type: auth.EventSignedIn, Account: &auth.Account{ID: "acct-1"}})
	coord.Wait()

	require.Equal(t, session.StateAuthenticated, coord.Snapshot().State)
}

func TestSignIn_WithoutAccountIgnored(t *testing.T) {
	ids := &stubIdentity{guestID: "g1"}
	claimer := &stubClaimer{}
	coord := session.NewCoordinator(ids, claimer, nil)
	ctx := context.Background()

	require.NoError(t, coord.Resume(ctx))
	coord.HandleEvent(ctx, auth.Event{Type: auth.EventSignedIn})
	coord.Wait()

	require.Equal(t, 0, claimer.callCount())
	require.Equal(t, session.StateAnonymous, coord.Snapshot().State)
}
