package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zacmb/contentsched/internal/models"
)

func testRepo(t *testing.T) ScheduledPostRepository {
	t.Helper()
	repo, err := OpenInit(filepath.Join(t.TempDir(), "scheduled_post.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func post(id, caption string) *models.ScheduledPost {
	return &models.ScheduledPost{
		PostID:        id,
		FileLocation:  "/media/reels/" + id + ".mp4",
		Caption:       caption,
		PostMusic:     "song",
		PostType:      "reels",
		PostLocation:  "",
		ScheduledDate: "2025-03-21 14:30",
		Date:          "2025-03-20 09:00",
		IsPublished:   0,
	}
}

func TestOpenRequiresExistingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not found")
}

func TestCreateAndGetByCaption(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, post("p1", "sunset vibes")))

	got, err := repo.GetByCaption(ctx, "sunset vibes")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p1", got.PostID)
	assert.Equal(t, "/media/reels/p1.mp4", got.FileLocation)
	assert.Equal(t, "2025-03-21 14:30", got.ScheduledDate)
	assert.Equal(t, 0, got.IsPublished)
}

func TestGetByCaptionMissReturnsNil(t *testing.T) {
	repo := testRepo(t)

	got, err := repo.GetByCaption(context.Background(), "never stored")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemove(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, post("p1", "going away")))
	require.NoError(t, repo.Remove(ctx, nil, "p1"))

	got, err := repo.GetByCaption(ctx, "going away")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRollbackRestoresReplacedRow(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, post("old", "keep me")))

	tx, err := repo.DB().BeginTx(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, tx, "old"))
	require.NoError(t, repo.Create(ctx, tx, post("new", "keep me")))
	require.NoError(t, tx.Rollback())

	got, err := repo.GetByCaption(ctx, "keep me")
	require.NoError(t, err)
	require.NotNil(t, got, "the original row survives an aborted replace")
	assert.Equal(t, "old", got.PostID)
}

func TestCommitReplacesAtomically(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, post("old", "swap")))

	tx, err := repo.DB().BeginTx(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, tx, "old"))
	require.NoError(t, repo.Create(ctx, tx, post("new", "swap")))
	require.NoError(t, tx.Commit())

	got, err := repo.GetByCaption(ctx, "swap")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got.PostID)

	var n int
	require.NoError(t, repo.DB().QueryRow("SELECT COUNT(*) FROM scheduled_post WHERE caption = ?", "swap").Scan(&n))
	assert.Equal(t, 1, n)
}
