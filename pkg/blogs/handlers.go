package blogs

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

	payload := CreateBlogPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	blog, err := h.svc.Create(ctx, CreateBlogOptions{
		AuthorID:    user.ID,
		Title:       payload.Title,
		Body:        payload.Body,
		IsPublished: payload.IsPublished,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, blog)
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	query := ListBlogsQuery{}
	if err := c.Bind(&query); err != nil {
		return errors.WithStack(err)
	}

	blogs, total, err := h.svc.ListWithTotal(ctx, ListBlogsOptions{
		Limit:    &query.Limit,
		Offset:   &query.Offset,
		AuthorID: query.AuthorID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"blogs": blogs,
		"total": total,
	})
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return err
	}

	var viewerID *int
	if user, ok := auth.UserFromContext(c); ok {
		viewerID = &user.ID
	}

	blog, err := h.svc.Retrieve(ctx, id, viewerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, blog)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	user, ok := auth.UserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	id, err := paramID(c)
	if err != nil {
		return err
	}

	payload := UpdateBlogPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	blog, err := h.svc.Update(ctx, user.ID, id, UpdateBlogOptions{
		Title:       payload.Title,
		Body:        payload.Body,
		IsPublished: payload.IsPublished,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, blog)
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
