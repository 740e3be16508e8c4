package quizzes

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

func createTestUser(ctx context.Context, t *testing.T, db *bun.DB, email string) *models.User {
	t.Helper()

	role := new(models.Role)
	err := db.NewSelect().
		Model(role).
		Where("name = ?", models.RoleStudent).
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

func newMoodQuiz(ctx context.Context, t *testing.T, svc *Service, createdBy int) *models.Quiz {
	t.Helper()

	quiz, err := svc.Create(ctx, CreateQuizOptions{
		CreatedBy: createdBy,
		Title:     "Mood Check",
		Questions: []CreateQuestionOptions{
			{Prompt: "How do you feel?", Options: []string{"Great", "Okay", "Down"}, CorrectOption: 0},
			{Prompt: "Did you sleep well?", Options: []string{"Yes", "No"}, CorrectOption: 0},
			{Prompt: "Pick a color", Options: []string{"Red", "Blue", "Green"}, CorrectOption: 2},
		},
	})
	require.NoError(t, err)
	return quiz
}

func TestServiceCreate_OrdersQuestions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := createTestUser(ctx, t, db, "create@example.com")

	quiz := newMoodQuiz(ctx, t, svc, user.ID)

	got, err := svc.Retrieve(ctx, quiz.ID)
	require.NoError(t, err)

	require.Len(t, got.Questions, 3)
	for i, q := range got.Questions {
		assert.Equal(t, i+1, q.Sequence)
		assert.NotEmpty(t, q.OptionsParsed)
	}
	assert.Equal(t, []string{"Great", "Okay", "Down"}, got.Questions[0].OptionsParsed)
}

func TestServiceCreate_RejectsOutOfRangeAnswer(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := createTestUser(ctx, t, db, "badanswer@example.com")

	_, err := svc.Create(ctx, CreateQuizOptions{
		CreatedBy: user.ID,
		Title:     "Broken",
		Questions: []CreateQuestionOptions{
			{Prompt: "Pick", Options: []string{"A", "B"}, CorrectOption: 5},
		},
	})
	assert.ErrorIs(t, err, errcodes.ValidationError(`"correct_option" must index one of the question's options`))
}

func TestServiceSubmitAttempt_Scores(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	creator := createTestUser(ctx, t, db, "qcreator@example.com")
	taker := createTestUser(ctx, t, db, "qtaker@example.com")

	quiz := newMoodQuiz(ctx, t, svc, creator.ID)

	result, err := svc.SubmitAttempt(ctx, taker.ID, quiz.ID, []int{0, 1, 2})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Attempt.Score)
	assert.Equal(t, 3, result.Attempt.Total)
	assert.Equal(t, []int{0, 0, 2}, result.Correct)

	attempts, err := svc.ListAttempts(ctx, taker.ID, &quiz.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 2, attempts[0].Score)
}

func TestServiceSubmitAttempt_AnswerCountMismatch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := createTestUser(ctx, t, db, "mismatch@example.com")

	quiz := newMoodQuiz(ctx, t, svc, user.ID)

	_, err := svc.SubmitAttempt(ctx, user.ID, quiz.ID, []int{0})
	assert.ErrorIs(t, err, errcodes.ValidationError(`"answers" must contain one entry per question`))
}

func TestServiceDelete_CascadesQuestionsAndAttempts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := createTestUser(ctx, t, db, "qdelete@example.com")

	quiz := newMoodQuiz(ctx, t, svc, user.ID)

	_, err := svc.SubmitAttempt(ctx, user.ID, quiz.ID, []int{0, 0, 2})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID, quiz.ID))

	count, err := db.NewSelect().
		Model((*models.QuizQuestion)(nil)).
		Where("quiz_id = ?", quiz.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = db.NewSelect().
		Model((*models.QuizAttempt)(nil)).
		Where("quiz_id = ?", quiz.ID).
		Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
