package blogs

import (
	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the blog routes. Writing is gated by permission,
// which in practice means therapists and admins.
func RegisterRoutes(e *echo.Echo, db *bun.DB, mw *auth.Middleware) {
	h := &handler{
		svc: NewService(db),
	}

	g := e.Group("/blogs")

	g.GET("", h.list, mw.AuthenticateOptional)
	g.GET("/:id", h.retrieve, mw.AuthenticateOptional)

	write := mw.RequirePermission(models.ResourceBlogs, models.OperationWrite)
	g.POST("", h.create, mw.Authenticate, write)
	g.PATCH("/:id", h.update, mw.Authenticate, write)
	g.DELETE("/:id", h.delete, mw.Authenticate, write)
}
