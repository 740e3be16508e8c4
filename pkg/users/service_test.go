package users

import (
	"context"
	"database/sql"
	"testing"

	"github.com/mindnestapp/mindnest/pkg/errcodes"
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

func TestServiceRetrieve_LoadsRoleAndPermissions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	created := createUserWithRole(ctx, t, db, "retrieve@example.com", models.RoleTherapist)

	user, err := svc.Retrieve(ctx, created.ID)
	require.NoError(t, err)

	require.NotNil(t, user.Role)
	assert.Equal(t, models.RoleTherapist, user.Role.Name)
	assert.NotEmpty(t, user.Role.Permissions)
	assert.True(t, user.HasPermission(models.ResourceStories, models.OperationWrite))
}

func TestServiceRetrieve_NotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.Retrieve(context.Background(), 9999)
	assert.ErrorIs(t, err, errcodes.NotFound("User"))
}

func TestServiceListWithTotal_FiltersByRole(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createUserWithRole(ctx, t, db, "s1@example.com", models.RoleStudent)
	createUserWithRole(ctx, t, db, "s2@example.com", models.RoleStudent)
	createUserWithRole(ctx, t, db, "p1@example.com", models.RoleParent)

	roleName := models.RoleStudent
	users, total, err := svc.ListWithTotal(ctx, ListUsersOptions{Role: &roleName})
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	for _, u := range users {
		assert.Equal(t, models.RoleStudent, u.Role.Name)
	}
}

func TestServiceUpdate_ChangesRoleByName(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	created := createUserWithRole(ctx, t, db, "promote@example.com", models.RoleStudent)

	roleName := models.RoleTherapist
	updated, err := svc.Update(ctx, created.ID, UpdateUserOptions{Role: &roleName})
	require.NoError(t, err)

	assert.Equal(t, models.RoleTherapist, updated.Role.Name)
}

func TestServiceUpdate_UnknownRole(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	created := createUserWithRole(ctx, t, db, "badrole@example.com", models.RoleStudent)

	roleName := "wizard"
	_, err := svc.Update(ctx, created.ID, UpdateUserOptions{Role: &roleName})
	assert.ErrorIs(t, err, errcodes.NotFound("Role"))
}

func TestServiceDeactivate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	created := createUserWithRole(ctx, t, db, "deactivate@example.com", models.RoleParent)

	err := svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)

	user, err := svc.Retrieve(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}
