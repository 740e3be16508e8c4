package testutils

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type handler struct {
	db *bun.DB
}

// createUserRequest is the request body for creating a test user.
type createUserRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" default:"admin" validate:"role"`
}

// createUserResponse is the response body for creating a test user.
type createUserResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// createUser creates a test user with any role, including admin.
// POST /test/users.
func (h *handler) createUser(c echo.Context) error {
	ctx := c.Request().Context()

	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	role := &models.Role{}
	err := h.db.NewSelect().
		Model(role).
		Where("name = ?", req.Role).
		Scan(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get role")
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Email:        req.Email,
		Name:         "Test User",
		PasswordHash: hashedPassword,
		RoleID:       role.ID,
		IsActive:     true,
	}

	_, err = h.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to create user")
	}

	return c.JSON(http.StatusCreated, createUserResponse{
		ID:    user.ID,
		Email: user.Email,
	})
}

// resetResponse is the response body for resetting test data.
type resetResponse struct {
	Deleted map[string]int `json:"deleted"`
}

// reset wipes all user-generated data so each e2e run starts clean.
// DELETE /test/data.
func (h *handler) reset(c echo.Context) error {
	ctx := c.Request().Context()

	deleted := map[string]int{}

	// Child tables first; SQLite enforces the remaining references.
	targets := []struct {
		name  string
		model interface{}
	}{
		{"likes", (*models.Like)(nil)},
		{"comments", (*models.Comment)(nil)},
		{"story_chunk_trackers", (*models.StoryChunkTracker)(nil)},
		{"stories", (*models.Story)(nil)},
		{"quiz_attempts", (*models.QuizAttempt)(nil)},
		{"quiz_questions", (*models.QuizQuestion)(nil)},
		{"quizzes", (*models.Quiz)(nil)},
		{"blogs", (*models.Blog)(nil)},
		{"donations", (*models.Donation)(nil)},
		{"otps", (*models.OTP)(nil)},
		{"users", (*models.User)(nil)},
	}

	for _, target := range targets {
		result, err := h.db.NewDelete().
			Model(target.model).
			Where("1=1").
			Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to delete %s", target.name)
		}
		n, _ := result.RowsAffected()
		deleted[target.name] = int(n)
	}

	return c.JSON(http.StatusOK, resetResponse{Deleted: deleted})
}
