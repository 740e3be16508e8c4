package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mindnestapp/mindnest/pkg/errcodes"
	"github.com/mindnestapp/mindnest/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing.
	BcryptCost = 12
	// TokenExpiry is how long JWT tokens are valid.
	TokenExpiry = 7 * 24 * time.Hour // 7 days
)

// Sender delivers OTP codes to users. Email/SMS delivery is an external
// collaborator; the default implementation just logs.
type Sender interface {
	SendOTP(ctx context.Context, user *models.User, code string) error
}

// JWTClaims represents the claims in a JWT token.
type JWTClaims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service handles authentication operations.
type Service struct {
	db        *bun.DB
	jwtSecret []byte
	otpTTL    time.Duration
	sender    Sender
}

// NewService creates a new auth service.
func NewService(db *bun.DB, jwtSecret string, otpTTL time.Duration, sender Sender) *Service {
	return &Service{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		otpTTL:    otpTTL,
		sender:    sender,
	}
}

type RegisterParams struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// Register creates a new user account with one of the self-assignable roles.
// The admin role can't be claimed at registration.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	if params.Role == models.RoleAdmin {
		return nil, errcodes.Forbidden("Registering as admin")
	}

	role := &models.Role{}
	err := s.db.NewSelect().
		Model(role).
		Where("name = ?", params.Role).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Role")
		}
		return nil, errors.WithStack(err)
	}

	count, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("email = ? COLLATE NOCASE", params.Email).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if count > 0 {
		return nil, errcodes.Conflict("An account with this email already exists.")
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: hashedPassword,
		RoleID:       role.ID,
		IsActive:     true,
	}

	_, err = s.db.NewInsert().Model(user).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s.GetUserByID(ctx, user.ID)
}

// Authenticate validates credentials and returns the user if valid.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.getActiveUserByEmail(ctx, email)
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid email or password")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid email or password")
	}

	return user, nil
}

// RequestOTP issues a fresh single-use login code for the account and hands it
// to the sender. Previous unconsumed codes for the user are invalidated.
func (s *Service) RequestOTP(ctx context.Context, email string) error {
	user, err := s.getActiveUserByEmail(ctx, email)
	if err != nil {
		// Don't reveal whether the account exists.
		return nil
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), BcryptCost)
	if err != nil {
		return errors.WithStack(err)
	}

	now := time.Now()
	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// Invalidate any outstanding codes first.
		_, err := tx.NewUpdate().
			Model((*models.OTP)(nil)).
			Set("consumed_at = ?", now).
			Where("user_id = ?", user.ID).
			Where("consumed_at IS NULL").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		otp := &models.OTP{
			UserID:    user.ID,
			CodeHash:  string(codeHash),
			ExpiresAt: now.Add(s.otpTTL),
			CreatedAt: now,
		}
		_, err = tx.NewInsert().Model(otp).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return err
	}

	return s.sender.SendOTP(ctx, user, code)
}

// VerifyOTP consumes a login code and returns the user it belongs to.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*models.User, error) {
	user, err := s.getActiveUserByEmail(ctx, email)
	if err != nil {
		return nil, errcodes.OTPInvalid()
	}

	otp := &models.OTP{}
	err = s.db.NewSelect().
		Model(otp).
		Where("user_id = ?", user.ID).
		Where("consumed_at IS NULL").
		Where("expires_at > ?", time.Now()).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, errcodes.OTPInvalid()
	}

	err = bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code))
	if err != nil {
		return nil, errcodes.OTPInvalid()
	}

	now := time.Now()
	_, err = s.db.NewUpdate().
		Model((*models.OTP)(nil)).
		Set("consumed_at = ?", now).
		Where("id = ?", otp.ID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return user, nil
}

// DeleteExpiredOTPs removes dead codes. Called by the cleanup worker.
func (s *Service) DeleteExpiredOTPs(ctx context.Context) (int64, error) {
	result, err := s.db.NewDelete().
		Model((*models.OTP)(nil)).
		WhereOr("expires_at <= ?", time.Now()).
		WhereOr("consumed_at IS NOT NULL").
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// GenerateToken creates a new JWT token for the user.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID with relations.
func (s *Service) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions").
		Where("u.id = ?", id).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

func (s *Service) getActiveUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Relation("Role").
		Relation("Role.Permissions").
		Where("u.email = ? COLLATE NOCASE", email).
		Where("u.is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", errors.WithStack(err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(hashedPassword), nil
}

// CheckPassword compares a password with a hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
