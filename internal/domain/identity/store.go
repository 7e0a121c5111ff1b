package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/draftroom/draftroom/internal/repository"
	"github.com/google/uuid"
)

// ErrGuestIdentityRetired indicates guest scoping was requested after the
// device permanently transitioned to account scoping. This is a programming
// error in the integration, not a user-facing condition.
var ErrGuestIdentityRetired = errors.New("guest identity retired")

const (
	keyGuestID     = "guest_id"
	keyRetired     = "guest_retired"
	keyLastVisited = "last_visited"
)

// Pointer is the remembered last-visited project/document reference kept on
// the device. The claim engine consults it for its narrow stale-pointer
// exception.
type Pointer struct {
	ProjectID  string `json:"project_id"`
	DocumentID string `json:"document_id,omitempty"`
}

// Store issues and persists the device guest identity. A device holds at
// most one guest identity for the life of its local storage, and once the
// device completes an authenticated sign-in the identity is retired for
// good: guest scoping never resumes for this install.
type Store struct {
	device repository.DeviceStateRepository
	logger *slog.Logger

	mu sync.Mutex
}

// NewStore creates an identity store over device key-value storage.
func NewStore(device repository.DeviceStateRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{device: device, logger: logger}
}

// GetOrCreateGuestID returns the device guest identifier, minting and
// persisting one on first use. It is idempotent and returns
// ErrGuestIdentityRetired once the device has ever authenticated.
func (s *Store) GetOrCreateGuestID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	retired, err := s.retired(ctx)
	if err != nil {
		return "", err
	}
	if retired {
		return "", ErrGuestIdentityRetired
	}

	id, err := s.device.Get(ctx, keyGuestID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("reading guest identity: %w", err)
	}

	id = uuid.NewString()
	if err := s.device.Set(ctx, keyGuestID, id); err != nil {
		return "", fmt.Errorf("persisting guest identity: %w", err)
	}
	s.logger.Info("guest identity created", "guest_id", id)
	return id, nil
}

// CurrentGuestID returns the persisted guest identifier without minting one.
func (s *Store) CurrentGuestID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.device.Get(ctx, keyGuestID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading guest identity: %w", err)
	}
	return id, nil
}

// Retire records the permanent transition to account scoping. Idempotent.
func (s *Store) Retire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.device.Set(ctx, keyRetired, "1"); err != nil {
		return fmt.Errorf("retiring guest identity: %w", err)
	}
	return nil
}

// Retired reports whether the device has ever completed a sign-in.
func (s *Store) Retired(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retired(ctx)
}

func (s *Store) retired(ctx context.Context) (bool, error) {
	_, err := s.device.Get(ctx, keyRetired)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("reading retirement flag: %w", err)
}

// ClearGuestID drops the persisted guest identifier, as when the user clears
// local storage. The retirement flag is untouched: clearing storage on a
// retired device does not resurrect guest scoping.
func (s *Store) ClearGuestID(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.device.Delete(ctx, keyGuestID); err != nil {
		return fmt.Errorf("clearing guest identity: %w", err)
	}
	return nil
}

// LastVisited returns the remembered pointer, or nil when none is stored.
func (s *Store) LastVisited(ctx context.Context) (*Pointer, error) {
	raw, err := s.device.Get(ctx, keyLastVisited)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading last-visited pointer: %w", err)
	}

	var p Pointer
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// A malformed pointer is dropped, not guessed at.
		s.logger.Warn("discarding malformed last-visited pointer", "error", err)
		return nil, nil
	}
	if p.ProjectID == "" {
		return nil, nil
	}
	return &p, nil
}

// SetLastVisited persists the remembered pointer.
func (s *Store) SetLastVisited(ctx context.Context, p Pointer) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding last-visited pointer: %w", err)
	}
	if err := s.device.Set(ctx, keyLastVisited, string(raw)); err != nil {
		return fmt.Errorf("persisting last-visited pointer: %w", err)
	}
	return nil
}
