package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgsuite/taskengine/internal/task"
	"github.com/orgsuite/taskengine/pkg/cerr"
	"github.com/orgsuite/taskengine/pkg/storage"
)

func newRepo(t *testing.T) *YAMLRepository {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewYAMLRepository(store)
}

func newTask(organizationID, title string) *task.Task {
	now := time.Now().UTC().Truncate(time.Second)
	return &task.Task{
		ID:                "ID-" + ulid.Make().String(),
		OrganizationID:    organizationID,
		Title:             title,
		StartTime:         now,
		DueTime:           now.Add(48 * time.Hour),
		AssignedMemberIDs: []string{"m1"},
		Status:            task.StatusStarted,
		CreatedBy:         "Ada Lovelace",
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestYAMLRepositoryCreateAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	want := newTask("org1", "Prepare venue")
	require.NoError(t, repo.Create(ctx, want))

	got, err := repo.Get(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Status, got.Status)
	assert.True(t, want.DueTime.Equal(got.DueTime))
}

func TestYAMLRepositoryCreateDuplicate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	ta := newTask("org1", "Prepare venue")
	require.NoError(t, repo.Create(ctx, ta))

	err := repo.Create(ctx, ta)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.AlreadyExists))
}

func TestYAMLRepositoryGetMissing(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryListByOrganization(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := newTask("org1", "First")
	second := newTask("org1", "Second")
	foreign := newTask("org2", "Foreign")
	for _, ta := range []*task.Task{first, second, foreign} {
		require.NoError(t, repo.Create(ctx, ta))
	}

	got, err := repo.ListByOrganization(ctx, "org1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// ULID filenames keep creation order.
	assert.Equal(t, "First", got[0].Title)
	assert.Equal(t, "Second", got[1].Title)
}

func TestYAMLRepositoryListEmpty(t *testing.T) {
	repo := newRepo(t)

	got, err := repo.ListByOrganization(context.Background(), "org1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestYAMLRepositoryUpdate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	ta := newTask("org1", "Prepare venue")
	require.NoError(t, repo.Create(ctx, ta))

	ta.Status = task.StatusInProgress
	ta.Title = "Prepare venue and signage"
	require.NoError(t, repo.Update(ctx, ta))

	got, err := repo.Get(ctx, ta.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, got.Status)
	assert.Equal(t, "Prepare venue and signage", got.Title)
}

func TestYAMLRepositoryUpdateMissing(t *testing.T) {
	repo := newRepo(t)

	err := repo.Update(context.Background(), newTask("org1", "Ghost"))
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepositoryDelete(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	ta := newTask("org1", "Prepare venue")
	require.NoError(t, repo.Create(ctx, ta))
	require.NoError(t, repo.Delete(ctx, ta.ID))

	_, err := repo.Get(ctx, ta.ID)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	err = repo.Delete(ctx, ta.ID)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}
