package quizzes

import (
	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutes registers the quiz routes. Every role can read and attempt
// quizzes; creating and deleting them is a write on the quizzes resource.
func RegisterRoutes(e *echo.Echo, db *bun.DB, mw *auth.Middleware) {
	h := &handler{
		svc: NewService(db),
	}

	g := e.Group("/quizzes", mw.Authenticate)

	read := mw.RequirePermission(models.ResourceQuizzes, models.OperationRead)
	write := mw.RequirePermission(models.ResourceQuizzes, models.OperationWrite)

	g.GET("", h.list, read)
	g.GET("/:id", h.retrieve, read)
	g.GET("/attempts", h.listAttempts, read)
	g.POST("/:id/attempts", h.submitAttempt, read)

	g.POST("", h.create, write)
	g.DELETE("/:id", h.delete, write)
}
