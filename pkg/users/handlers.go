package users

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/pkg/errors"
)

type handler struct {
	userService *Service
}

func paramID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, errcodes.ValidationError(`"id" must be a positive integer`)
	}
	return id, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	query := ListUsersQuery{}
	if err := c.Bind(&query); err != nil {
		return errors.WithStack(err)
	}

	users, total, err := h.userService.ListWithTotal(ctx, ListUsersOptions{
		Limit:    &query.Limit,
		Offset:   &query.Offset,
		Role:     query.Role,
		IsActive: query.IsActive,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"users": users,
		"total": total,
	})
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.Retrieve(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return err
	}

	payload := UpdateUserPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.userService.Update(ctx, id, UpdateUserOptions{
		Name:     payload.Name,
		Role:     payload.Role,
		IsActive: payload.IsActive,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

func (h *handler) deactivate(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := paramID(c)
	if err != nil {
		return err
	}

	if err := h.userService.Deactivate(ctx, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"success": true})
}
