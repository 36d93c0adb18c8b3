package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-settlement/internal/infrastructure/memory"
)

func seedUser(t *testing.T, repo *memory.UserRepository, role domain.Role) *domain.User {
	t.Helper()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	u := &domain.User{
		ID:           "u1",
		UserName:     "sam",
		Email:        "sam@example.com",
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, repo.Save(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	repo := memory.NewUserRepository()
	seedUser(t, repo, domain.RoleAdmin)
	svc := NewService(repo, "test-secret")

	token, u, err := svc.Login(context.Background(), "sam@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "u1", u.ID)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "sam@example.com", claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestLogin_Rejections(t *testing.T) {
	repo := memory.NewUserRepository()
	seedUser(t, repo, domain.RoleUser)
	svc := NewService(repo, "test-secret")

	_, _, err := svc.Login(context.Background(), "sam@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerify_Rejections(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewService(repo, "test-secret")

	_, err := svc.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Signed with a different secret.
	other := NewService(repo, "other-secret")
	seedUser(t, repo, domain.RoleUser)
	token, _, lerr := other.Login(context.Background(), "sam@example.com", "s3cret")
	require.NoError(t, lerr)
	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestEnsureAdmin_CreatesLoginableAccount(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewService(repo, "test-secret")

	u, err := svc.EnsureAdmin(context.Background(), "admin-1", "root@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", u.ID)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	token, _, err := svc.Login(context.Background(), "root@example.com", "hunter2")
	require.NoError(t, err)
	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestEnsureAdmin_RefreshesExistingAccount(t *testing.T) {
	repo := memory.NewUserRepository()
	svc := NewService(repo, "test-secret")
	seeded := seedUser(t, repo, domain.RoleUser)

	u, err := svc.EnsureAdmin(context.Background(), "ignored-id", seeded.Email, "newpass")
	require.NoError(t, err)
	// The existing record is promoted in place, not duplicated.
	assert.Equal(t, seeded.ID, u.ID)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, _, err = svc.Login(context.Background(), seeded.Email, "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, logged, err := svc.Login(context.Background(), seeded.Email, "newpass")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, logged.Role)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestVerify_Expired(t *testing.T) {
	svc := NewService(memory.NewUserRepository(), "test-secret")

	past := time.Now().Add(-time.Hour)
	claims := Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(past),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
