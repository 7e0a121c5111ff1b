package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/draftroom/draftroom/internal/auth"
	"github.com/draftroom/draftroom/internal/domain/claim"
	"github.com/draftroom/draftroom/internal/domain/identity"
)

// State is the session lifecycle state of this device.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
	StateSignedOut      State = "signed_out"
)

// Snapshot is the explicit session state pushed to collaborators. Services
// take it (or the identity derived from it) as a parameter instead of
// reading ambient globals.
type Snapshot struct {
	State   State
	Account *auth.Account
	GuestID string
}

// Claimer transfers guest-scoped projects to an account.
type Claimer interface {
	Claim(ctx context.Context, accountID, guestID string, remembered *string) (claim.Result, error)
}

// IdentityStore is the device-local identity surface the coordinator needs.
type IdentityStore interface {
	GetOrCreateGuestID(ctx context.Context) (string, error)
	Retire(ctx context.Context) error
	LastVisited(ctx context.Context) (*identity.Pointer, error)
}

const claimTimeout = 30 * time.Second

// Coordinator owns the single source of truth for session state. It reacts
// to provider events and dispatches exactly one claim per genuine sign-in:
// duplicate authenticated notifications and token refreshes are deduplicated
// by account, and the claim runs in the background so sign-in never blocks
// or fails on it.
type Coordinator struct {
	identity IdentityStore
	claimer  Claimer
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	account *auth.Account
	guestID string

	wg sync.WaitGroup
}

// NewCoordinator creates a coordinator in the anonymous state.
func NewCoordinator(ids IdentityStore, claimer Claimer, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		identity: ids,
		claimer:  claimer,
		logger:   logger,
		state:    StateAnonymous,
	}
}

// Resume establishes the anonymous session on load. A fresh device mints a
// guest identity; a device that has ever authenticated stays account-only
// and gets no guest scoping back.
func (c *Coordinator) Resume(ctx context.Context) error {
	guestID, err := c.identity.GetOrCreateGuestID(ctx)
	if err != nil {
		if !errors.Is(err, identity.ErrGuestIdentityRetired) {
			return err
		}
		guestID = ""
	}

	c.mu.Lock()
	c.state = StateAnonymous
	c.account = nil
	c.guestID = guestID
	c.mu.Unlock()
	return nil
}

// BeginAuthentication marks the hand-off to the identity provider.
func (c *Coordinator) BeginAuthentication() {
	c.mu.Lock()
	if c.state == StateAnonymous || c.state == StateSignedOut {
		c.state = StateAuthenticating
	}
	c.mu.Unlock()
}

// CancelAuthentication returns to the anonymous state after a failed or
// abandoned provider hand-off. The guest identity is untouched.
func (c *Coordinator) CancelAuthentication() {
	c.mu.Lock()
	if c.state == StateAuthenticating {
		c.state = StateAnonymous
	}
	c.mu.Unlock()
}

// HandleEvent consumes a provider session event.
func (c *Coordinator) HandleEvent(ctx context.Context, ev auth.Event) {
	switch ev.Type {
	case auth.EventSignedIn:
		c.signIn(ctx, ev.Account)
	case auth.EventTokenRefreshed:
		// Refresh keeps the session alive; it is never a new sign-in.
	case auth.EventSignedOut:
		c.signOut()
	default:
		c.logger.Warn("ignoring unknown session event", "type", ev.Type)
	}
}

func (c *Coordinator) signIn(ctx context.Context, acct *auth.Account) {
	if acct == nil || acct.ID == "" {
		c.logger.Warn("ignoring sign-in event without account")
		return
	}

	c.mu.Lock()
	if c.state == StateAuthenticated && c.account != nil && c.account.ID == acct.ID {
		// Duplicate notification for the current sign-in.
		c.mu.Unlock()
		return
	}
	guestID := c.guestID
	c.state = StateAuthenticated
	c.account = acct
	c.guestID = ""
	c.mu.Unlock()

	if err := c.identity.Retire(ctx); err != nil {
		c.logger.Error("could not retire guest identity", "error", err)
	}

	var remembered *string
	ptr, err := c.identity.LastVisited(ctx)
	if err != nil {
		c.logger.Warn("could not read last-visited pointer", "error", err)
	} else if ptr != nil {
		remembered = &ptr.ProjectID
	}

	if guestID == "" && remembered == nil {
		return
	}

	// Fire and forget: sign-in is complete regardless of the claim outcome.
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), claimTimeout)
		defer cancel()

		res, err := c.claimer.Claim(ctx, acct.ID, guestID, remembered)
		var partial *claim.PartialFailureError
		switch {
		case errors.As(err, &partial):
			c.logger.Warn("claim completed with failures",
				"account_id", acct.ID,
				"claimed", res.ClaimedCount,
				"failed", len(partial.Failures),
				"error", partial)
		case err != nil:
			c.logger.Error("claim failed", "account_id", acct.ID, "error", err)
		case res.ClaimedCount > 0:
			c.logger.Info("claimed guest projects",
				"account_id", acct.ID, "claimed", res.ClaimedCount)
		}
	}()
}

func (c *Coordinator) signOut() {
	c.mu.Lock()
	c.state = StateSignedOut
	c.account = nil
	c.guestID = ""
	c.mu.Unlock()
}

// Snapshot returns the current session state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{State: c.state, Account: c.account, GuestID: c.guestID}
}

// Wait blocks until in-flight claims finish. Used on shutdown and in tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
