package auth

import (
	"context"
	"errors"
	"time"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-settlement/internal/pkg/logging"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrTokenExpired       = errors.New("auth: token expired")
)

const tokenTTL = 12 * time.Hour

type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type Service struct {
	users  domain.Repository
	secret []byte
}

func NewService(users domain.Repository, secret string) *Service {
	return &Service{users: users, secret: []byte(secret)}
}

// Login verifies the password and issues a signed token carrying the
// user's role.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "auth_service"))

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logger.Warn("login_rejected", zap.String("email", email))
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}

	logger.Info("login_success", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return token, u, nil
}

// Verify parses and validates a token, returning its claims.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// EnsureAdmin creates or refreshes the bootstrap admin account. Every
// order and admin route sits behind authentication, so a deployment with
// no stored user is unreachable; main calls this once at startup when
// admin credentials are configured.
func (s *Service) EnsureAdmin(ctx context.Context, id, email, password string) (*domain.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		u.PasswordHash = hash
		u.UpdatedAt = now
	case errors.Is(err, domain.ErrNotFound):
		u = &domain.User{
			ID:           id,
			UserName:     "admin",
			Email:        email,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	default:
		return nil, err
	}
	u.Role = domain.RoleAdmin

	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("admin_seeded", zap.String("user_id", u.ID), zap.String("email", email))
	return u, nil
}

// HashPassword produces a bcrypt hash for seeding and user creation.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
