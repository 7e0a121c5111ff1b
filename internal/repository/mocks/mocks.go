package mocks

import (
	"context"

	"github.com/draftroom/draftroom/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	args := m.Called(ctx, proj)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListByGuest(ctx context.Context, guestID string) ([]project.Project, error) {
	args := m.Called(ctx, guestID)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) ListByAccount(ctx context.Context, accountID string) ([]project.Project, error) {
	args := m.Called(ctx, accountID)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Rename(ctx context.Context, id, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *ProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ProjectRepository) TransferOwnership(ctx context.Context, projectID, accountID string) error {
	args := m.Called(ctx, projectID, accountID)
	return args.Error(0)
}

// DocumentRepository is a mock for repository.DocumentRepository.
type DocumentRepository struct {
	mock.Mock
}

func (m *DocumentRepository) Create(ctx context.Context, doc *project.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *DocumentRepository) Get(ctx context.Context, id string) (*project.Document, error) {
	args := m.Called(ctx, id)
	if doc, ok := args.Get(0).(*project.Document); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) ListByProject(ctx context.Context, projectID string) ([]project.Document, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.Document); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DocumentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *DocumentRepository) SetOpen(ctx context.Context, id string, open bool) error {
	args := m.Called(ctx, id, open)
	return args.Error(0)
}

func (m *DocumentRepository) SetContent(ctx context.Context, id, content string) error {
	args := m.Called(ctx, id, content)
	return args.Error(0)
}

// MembershipRepository is a mock for repository.MembershipRepository.
type MembershipRepository struct {
	mock.Mock
}

func (m *MembershipRepository) Ensure(ctx context.Context, membership *project.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MembershipRepository) Get(ctx context.Context, projectID, accountID string) (*project.Membership, error) {
	args := m.Called(ctx, projectID, accountID)
	if membership, ok := args.Get(0).(*project.Membership); ok {
		return membership, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MembershipRepository) ListByProject(ctx context.Context, projectID string) ([]project.Membership, error) {
	args := m.Called(ctx, projectID)
	if list, ok := args.Get(0).([]project.Membership); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MembershipRepository) SetRole(ctx context.Context, projectID, accountID string, role project.Role) error {
	args := m.Called(ctx, projectID, accountID, role)
	return args.Error(0)
}

func (m *MembershipRepository) Remove(ctx context.Context, projectID, accountID string) error {
	args := m.Called(ctx, projectID, accountID)
	return args.Error(0)
}

func (m *MembershipRepository) CountOwners(ctx context.Context, projectID string) (int, error) {
	args := m.Called(ctx, projectID)
	return args.Int(0), args.Error(1)
}

// DeviceStateRepository is a mock for repository.DeviceStateRepository.
type DeviceStateRepository struct {
	mock.Mock
}

func (m *DeviceStateRepository) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *DeviceStateRepository) Set(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *DeviceStateRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
