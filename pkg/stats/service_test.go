package stats

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/mindnestapp/mindnest/pkg/migrations"
	"github.com/mindnestapp/mindnest/pkg/models"
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

func createUserWithRole(ctx context.Context, t *testing.T, db *bun.DB, email, roleName string) *models.User {
	t.Helper()

	role := new(models.Role)
	err := db.NewSelect().
		Model(role).
		Where("name = ?", roleName).
		Scan(ctx)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "x",
		RoleID:       role.ID,
		IsActive:     true,
	}
	_, err = db.NewInsert().Model(user).Exec(ctx)
	require.NoError(t, err)

	return user
}

func TestServiceDashboard(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	student := createUserWithRole(ctx, t, db, "student@example.com", models.RoleStudent)
	createUserWithRole(ctx, t, db, "parent@example.com", models.RoleParent)
	now := time.Now()

	published := &models.Story{
		AuthorID:   student.ID,
		Content:    "done",
		IsComplete: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := db.NewInsert().Model(published).Exec(ctx)
	require.NoError(t, err)

	draft := &models.Story{
		AuthorID:  student.ID,
		Content:   "wip",
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = db.NewInsert().Model(draft).Exec(ctx)
	require.NoError(t, err)

	tracker := &models.StoryChunkTracker{
		StoryID:        draft.ID,
		Content:        "wip",
		ReceivedChunks: 1,
		TotalChunks:    3,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err = db.NewInsert().Model(tracker).Exec(ctx)
	require.NoError(t, err)

	paid := &models.Donation{
		AmountMinor:    50000,
		Currency:       "INR",
		GatewayOrderID: "order_paid",
		Status:         models.DonationStatusPaid,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err = db.NewInsert().Model(paid).Exec(ctx)
	require.NoError(t, err)

	pending := &models.Donation{
		AmountMinor:    10000,
		Currency:       "INR",
		GatewayOrderID: "order_pending",
		Status:         models.DonationStatusCreated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err = db.NewInsert().Model(pending).Exec(ctx)
	require.NoError(t, err)

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, d.UsersByRole[models.RoleStudent])
	assert.Equal(t, 1, d.UsersByRole[models.RoleParent])
	assert.Equal(t, 2, d.ActiveUsers)
	assert.Equal(t, 1, d.Stories)
	assert.Equal(t, 1, d.StoriesInFlight)
	assert.Equal(t, 1, d.DonationsPaid)
	assert.EqualValues(t, 50000, d.DonatedMinor)
}
