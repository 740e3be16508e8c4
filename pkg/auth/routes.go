package auth

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

// LogSender is the default OTP sender; real delivery is wired in elsewhere.
type LogSender struct {
	log logger.Logger
}

func NewLogSender() *LogSender {
	return &LogSender{log: logger.New()}
}

func (s *LogSender) SendOTP(_ context.Context, user *models.User, _ string) error {
	// The code itself is never logged.
	s.log.Info("otp issued", logger.Data{"user_id": user.ID})
	return nil
}

// RegisterRoutes registers all auth routes and returns the auth service so the
// server can build middleware from it.
func RegisterRoutes(e *echo.Echo, db *bun.DB, jwtSecret string, otpTTL time.Duration, sender Sender) *Service {
	authService := NewService(db, jwtSecret, otpTTL, sender)

	h := &handler{
		authService: authService,
	}

	auth := e.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/otp/request", h.otpRequest)
	auth.POST("/otp/verify", h.otpVerify)
	auth.POST("/logout", h.logout)
	auth.GET("/me", h.me)

	return authService
}
