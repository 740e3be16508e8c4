package donations

import (
	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the donation routes. Creating and verifying are
// open to anonymous donors; the ledger is admin-only.
func RegisterRoutes(e *echo.Echo, db *bun.DB, gateway Gateway, secret string, mw *auth.Middleware) {
	h := &handler{
		svc: NewService(db, gateway, secret),
	}

	g := e.Group("/donations")

	g.POST("", h.create, mw.AuthenticateOptional)
	g.POST("/verify", h.verify)

	read := mw.RequirePermission(models.ResourceDonations, models.OperationRead)
	g.GET("", h.list, mw.Authenticate, read)
}
