package sqlite

import (
	"context"
	"testing"

	"github.com/draftroom/draftroom/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestDeviceStateRepository_SetAndGet(t *testing.T) {
	db := NewTestDeviceDB(t)
	repo := NewDeviceStateRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "guest_id")
	require.Equal(t, repository.ErrNotFound, err)

	require.NoError(t, repo.Set(ctx, "guest_id", "g1"))

	value, err := repo.Get(ctx, "guest_id")
	require.NoError(t, err)
	require.Equal(t, "g1", value)
}

func TestDeviceStateRepository_SetOverwrites(t *testing.T) {
	db := NewTestDeviceDB(t)
	repo := NewDeviceStateRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "last_visited", "a"))
	require.NoError(t, repo.Set(ctx, "last_visited", "b"))

	value, err := repo.Get(ctx, "last_visited")
	require.NoError(t, err)
	require.Equal(t, "b", value)
}

func TestDeviceStateRepository_Delete(t *testing.T) {
	db := NewTestDeviceDB(t)
	repo := NewDeviceStateRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "key", "value"))
	require.NoError(t, repo.Delete(ctx, "key"))

	_, err := repo.Get(ctx, "key")
	require.Equal(t, repository.ErrNotFound, err)

	// Deleting a missing key is fine
	require.NoError(t, repo.Delete(ctx, "key"))
}
