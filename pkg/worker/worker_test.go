package worker

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/config"
	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/migrations"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/mindnestapp/mindnest/pkg/stories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

type noopSender struct{}

func (noopSender) SendOTP(context.Context, *models.User, string) error { return nil }

func TestWorkerRunOnce_CleansUp(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	cfg := &config.Config{UploadSessionTTLHours: 24}
	authService := auth.NewService(db, "secret", 10*time.Minute, noopSender{})
	storyService := stories.NewService(db, nil)

	user, err := authService.Register(ctx, auth.RegisterParams{
		Email:    "worker@example.com",
		Name:     "Worker Test",
		Password: "password123",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)

	// An OTP that expired an hour ago.
	expired := &models.OTP{
		UserID:    user.ID,
		CodeHash:  "x",
		ExpiresAt: time.Now().Add(-time.Hour),
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	_, err = db.NewInsert().Model(expired).Exec(ctx)
	require.NoError(t, err)

	// An upload session idle for two days.
	stale, err := storyService.SubmitChunk(ctx, user.ID, stories.SubmitChunkParams{
		IsChunk:     true,
		ChunkIndex:  0,
		TotalChunks: 3,
		Content:     "abandoned",
	})
	require.NoError(t, err)

	_, err = db.NewUpdate().
		Model((*models.StoryChunkTracker)(nil)).
		Set("updated_at = ?", time.Now().Add(-48*time.Hour)).
		Where("story_id = ?", stale.Story.ID).
		Exec(ctx)
	require.NoError(t, err)

	w := New(cfg, authService, storyService)
	w.RunOnce()

	count, err := db.NewSelect().Model((*models.OTP)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = storyService.RetrieveTracker(ctx, stale.Story.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Chunk tracking information"))
}

func TestWorkerStartShutdown(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	cfg := &config.Config{UploadSessionTTLHours: 24, WorkerProcesses: 1}
	authService := auth.NewService(db, "secret", 10*time.Minute, noopSender{})
	storyService := stories.NewService(db, nil)

	w := New(cfg, authService, storyService)
	w.Start()
	w.Shutdown()
}
