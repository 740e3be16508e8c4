package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type handler struct {
	svc *Service
}

func (h *handler) dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	d, err := h.svc.Dashboard(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, d)
}
