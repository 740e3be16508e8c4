package stats

import (
	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the admin stats dashboard.
func RegisterRoutes(e *echo.Echo, db *bun.DB, mw *auth.Middleware) {
	h := &handler{
		svc: NewService(db),
	}

	read := mw.RequirePermission(models.ResourceStats, models.OperationRead)
	e.GET("/stats/dashboard", h.dashboard, mw.Authenticate, read)
}
