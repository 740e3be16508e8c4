package stories

import (
	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/mindnestapp/mindnest/pkg/storage"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers all story routes and returns the service so the
// cleanup worker can share it.
func RegisterRoutes(e *echo.Echo, db *bun.DB, store storage.ObjectStore, mw *auth.Middleware) *Service {
	svc := NewService(db, store)

	h := &handler{
		svc:   svc,
		store: store,
	}

	g := e.Group("/stories")

	g.GET("", h.list, mw.AuthenticateOptional)
	g.GET("/:id", h.retrieve, mw.AuthenticateOptional)

	write := mw.RequirePermission(models.ResourceStories, models.OperationWrite)
	g.POST("", h.submit, mw.Authenticate, write)
	g.PUT("/:id", h.edit, mw.Authenticate, write)
	g.DELETE("/:id", h.delete, mw.Authenticate, write)
	g.POST("/uploads", h.requestUpload, mw.Authenticate, write)

	g.POST("/:id/comments", h.createComment, mw.Authenticate)
	g.POST("/:id/likes", h.like, mw.Authenticate)

	return svc
}
