package httptransport

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appauth "github.com/Zhima-Mochi/minishop-settlement/internal/application/auth"
	domainUser "github.com/Zhima-Mochi/minishop-settlement/internal/domain/user"
	"github.com/Zhima-Mochi/minishop-settlement/internal/pkg/logging"
)

const claimsKey = "auth_claims"

// RequestLogger injects a request-scoped logger into the context and emits
// an access log line per request.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		logger := base.With(
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)
		c.Request = c.Request.WithContext(logging.ContextWithLogger(c.Request.Context(), logger))
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.Info("http_request_done",
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// token looks in the cookie first (browser clients), then the
// Authorization header (API clients).
func token(c *gin.Context) string {
	if cookie, err := c.Cookie("token"); err == nil && cookie != "" {
		return cookie
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (h *Handler) requireAuth(c *gin.Context) {
	t := token(c)
	if t == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized: no token provided"})
		return
	}
	claims, err := h.auth.Verify(t)
	if err != nil {
		msg := "unauthorized: invalid token"
		if err == appauth.ErrTokenExpired {
			msg = "unauthorized: token expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
		return
	}
	c.Set(claimsKey, claims)
	c.Next()
}

func (h *Handler) requireAdmin(c *gin.Context) {
	h.requireAuth(c)
	if c.IsAborted() {
		return
	}
	claims := c.MustGet(claimsKey).(*appauth.Claims)
	if claims.Role != domainUser.RoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "forbidden: admin access required"})
		return
	}
	c.Next()
}
