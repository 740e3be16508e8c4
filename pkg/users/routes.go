package users

import (
	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the admin user-management routes.
func RegisterRoutes(e *echo.Echo, db *bun.DB, mw *auth.Middleware) {
	h := &handler{
		userService: NewService(db),
	}

	g := e.Group("/users", mw.Authenticate)

	read := mw.RequirePermission(models.ResourceUsers, models.OperationRead)
	write := mw.RequirePermission(models.ResourceUsers, models.OperationWrite)

	g.GET("", h.list, read)
	g.GET("/:id", h.retrieve, read)
	g.PATCH("/:id", h.update, write)
	g.DELETE("/:id", h.deactivate, write)
}
