package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/village-api/internal/models"
	"github.com/noah-isme/village-api/pkg/storage"
)

func newFileRepo(t *testing.T) *FileSnapshotRepository {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewFileSnapshotRepository(files)
}

func TestFileSnapshotRepositoryRoundTrip(t *testing.T) {
	repo := newFileRepo(t)
	ctx := context.Background()

	missing, err := repo.Load(ctx, "7a")
	require.NoError(t, err)
	assert.Nil(t, missing)

	snap := models.NewSnapshot(nil)
	snap.Students = append(snap.Students, models.Student{ID: "s1", Name: "Ada", Group: "B"})
	snap.UpdatedAt = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, "7a", snap))

	loaded, err := repo.Load(ctx, "7a")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Ada", loaded.Students[0].Name)
	assert.Equal(t, snap.Settings.Rates, loaded.Settings.Rates)

	infos, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "7a", infos[0].ClassID)
	assert.True(t, snap.UpdatedAt.Equal(infos[0].UpdatedAt))
}

func TestFileSnapshotRepositoryRejectsUnsafeIDs(t *testing.T) {
	repo := newFileRepo(t)
	for _, id := range []string{"", "../etc", "a/b", ".hidden"} {
		_, err := repo.Load(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidClassID, id)
	}
}
