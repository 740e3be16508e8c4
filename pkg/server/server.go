package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mindnestapp/mindnest/pkg/auth"
	"github.com/mindnestapp/mindnest/pkg/binder"
	"github.com/mindnestapp/mindnest/pkg/blogs"
	"github.com/mindnestapp/mindnest/pkg/config"
	"github.com/mindnestapp/mindnest/pkg/donations"
	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/quizzes"
	"github.com/mindnestapp/mindnest/pkg/stats"
	"github.com/mindnestapp/mindnest/pkg/storage"
	"github.com/mindnestapp/mindnest/pkg/stories"
	"github.com/mindnestapp/mindnest/pkg/testutils"
	"github.com/mindnestapp/mindnest/pkg/users"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// Services bundles the long-lived services built during server construction
// so the caller can share them with the cleanup worker.
type Services struct {
	Auth    *auth.Service
	Stories *stories.Service
}

func New(cfg *config.Config, db *bun.DB, store storage.ObjectStore) (*http.Server, *Services, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     corsOrigins(cfg),
		AllowCredentials: true,
	}))

	health.RegisterRoutes(e)

	authService := auth.RegisterRoutes(e, db, cfg.JWTSecret, cfg.OTPTTL(), auth.NewLogSender())
	authMiddleware := auth.NewMiddleware(authService)

	storyService := stories.RegisterRoutes(e, db, store, authMiddleware)
	users.RegisterRoutes(e, db, authMiddleware)
	blogs.RegisterRoutes(e, db, authMiddleware)
	quizzes.RegisterRoutes(e, db, authMiddleware)
	donations.RegisterRoutes(e, db, donations.LocalGateway{}, cfg.PaymentGatewaySecret, authMiddleware)
	stats.RegisterRoutes(e, db, authMiddleware)

	if cfg.Environment == "test" {
		testutils.RegisterRoutes(e, db)
	}

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, &Services{Auth: authService, Stories: storyService}, nil
}

func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
