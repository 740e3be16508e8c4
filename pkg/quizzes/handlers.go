package quizzes

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/pkg/errors"
)

type handler struct {
	svc *Service
}

func paramID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, errcodes.ValidationError(`"id" must be a positive integer`)
	}
	return id, nil
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	payload := CreateQuizPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	questions := make([]CreateQuestionOptions, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		questions = append(questions, CreateQuestionOptions{
			Prompt:        q.Prompt,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
		})
	}

	quiz, err := h.svc.Create(ctx, CreateQuizOptions{
		CreatedBy:   user.ID,
		Title:       payload.Title,
		Description: payload.Description,
		Questions:   questions,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, quiz)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	query := ListQuizzesQuery{}
	if err := c.Bind(&query); err != nil {
		return errors.WithStack(err)
	}

	quizzes, total, err := h.svc.ListWithTotal(ctx, ListQuizzesOptions{
		Limit:  &query.Limit,
		Offset: &query.Offset,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"quizzes": quizzes,
		"total":   total,
	})
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return err
	}

	quiz, err := h.svc.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, quiz)
}

func (h *handler) submitAttempt(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := paramID(c)
	if err != nil {
		return err
	}

	payload := SubmitAttemptPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.svc.SubmitAttempt(ctx, user.ID, id, payload.Answers)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"attempt": result.Attempt,
		"correct": result.Correct,
	})
}

func (h *handler) listAttempts(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	query := ListAttemptsQuery{}
	if err := c.Bind(&query); err != nil {
		return errors.WithStack(err)
	}

	attempts, err := h.svc.ListAttempts(ctx, user.ID, query.QuizID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"attempts": attempts})
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := paramID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(ctx, user.ID, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
