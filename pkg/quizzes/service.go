package quizzes

import (
	"context"
	"database/sql"
	"time"

	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type CreateQuestionOptions struct {
	Prompt        string
	Options       []string
	CorrectOption int
}

type CreateQuizOptions struct {
	CreatedBy   int
	Title       string
	Description *string
	Questions   []CreateQuestionOptions
}

type ListQuizzesOptions struct {
	Limit  *int
	Offset *int
}

type AttemptResult struct {
	Attempt *models.QuizAttempt
	// Correct holds the right option index per question, revealed only after
	// an attempt is submitted.
	Correct []int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// Create inserts a quiz with its questions in one transaction. Question
// options are stored JSON-encoded.
func (svc *Service) Create(ctx context.Context, opts CreateQuizOptions) (*models.Quiz, error) {
	for _, q := range opts.Questions {
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return nil, errcodes.ValidationError(`"correct_option" must index one of the question's options`)
		}
	}

	now := time.Now()
	quiz := &models.Quiz{
		CreatedBy:   opts.CreatedBy,
		Title:       opts.Title,
		Description: opts.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(quiz).Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		for i, q := range opts.Questions {
			encoded, err := json.Marshal(q.Options)
			if err != nil {
				return errors.WithStack(err)
			}
			question := &models.QuizQuestion{
				QuizID:        quiz.ID,
				Sequence:      i + 1,
				Prompt:        q.Prompt,
				Options:       string(encoded),
				CorrectOption: q.CorrectOption,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			_, err = tx.NewInsert().Model(question).Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			quiz.Questions = append(quiz.Questions, question)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, q := range quiz.Questions {
		if err := q.UnmarshalOptions(); err != nil {
			return nil, err
		}
	}

	return quiz, nil
}

// Retrieve fetches a quiz with its questions in order. Correct answers stay
// server-side.
func (svc *Service) Retrieve(ctx context.Context, id int) (*models.Quiz, error) {
	quiz := &models.Quiz{}
	err := svc.db.NewSelect().
		Model(quiz).
		Relation("Questions", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("qq.sequence ASC")
		}).
		Where("q.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Quiz")
		}
		return nil, errors.WithStack(err)
	}

	for _, q := range quiz.Questions {
		if err := q.UnmarshalOptions(); err != nil {
			return nil, err
		}
	}

	return quiz, nil
}

func (svc *Service) ListWithTotal(ctx context.Context, opts ListQuizzesOptions) ([]*models.Quiz, int, error) {
	quizzes := []*models.Quiz{}

	q := svc.db.NewSelect().
		Model(&quizzes).
		Order("q.created_at DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return quizzes, total, nil
}

// SubmitAttempt scores the given answers against the quiz and records the
// attempt. Answers are positional, one per question in sequence order; -1
// marks a skipped question.
func (svc *Service) SubmitAttempt(ctx context.Context, userID, quizID int, answers []int) (*AttemptResult, error) {
	quiz, err := svc.Retrieve(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if len(answers) != len(quiz.Questions) {
		return nil, errcodes.ValidationError(`"answers" must contain one entry per question`)
	}

	score := 0
	correct := make([]int, len(quiz.Questions))
	for i, q := range quiz.Questions {
		correct[i] = q.CorrectOption
		if answers[i] == q.CorrectOption {
			score++
		}
	}

	attempt := &models.QuizAttempt{
		QuizID:    quizID,
		UserID:    userID,
		Score:     score,
		Total:     len(quiz.Questions),
		CreatedAt: time.Now(),
	}
	_, err = svc.db.NewInsert().Model(attempt).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &AttemptResult{
		Attempt: attempt,
		Correct: correct,
	}, nil
}

// ListAttempts returns the user's attempts, most recent first.
func (svc *Service) ListAttempts(ctx context.Context, userID int, quizID *int) ([]*models.QuizAttempt, error) {
	attempts := []*models.QuizAttempt{}

	q := svc.db.NewSelect().
		Model(&attempts).
		Where("qa.user_id = ?", userID).
		Order("qa.created_at DESC")

	if quizID != nil {
		q = q.Where("qa.quiz_id = ?", *quizID)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return attempts, nil
}

// Delete removes a quiz created by the given user, along with its questions
// and attempts.
func (svc *Service) Delete(ctx context.Context, createdBy, id int) error {
	result, err := svc.db.NewDelete().
		Model((*models.Quiz)(nil)).
		Where("id = ?", id).
		Where("created_by = ?", createdBy).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errcodes.NotFound("Quiz")
	}
	return nil
}
