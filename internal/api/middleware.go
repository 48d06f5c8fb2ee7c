package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mvmaia/contas/internal/auth"
)

// userIDKey is the gin context key holding the authenticated user id.
const userIDKey = "user_id"

// currentUserID returns the authenticated user id set by requireAuth.
func currentUserID(c *gin.Context) int64 {
	id, _ := c.Get(userIDKey)
	userID, _ := id.(int64)
	return userID
}

// requireAuth verifies the bearer token before handler dispatch and injects
// the resolved user id into the request context. On failure it aborts with
// 401 and the handler never runs.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token required"})
			return
		}

		// Fields tolerates extra whitespace between the scheme and token.
		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		userID, err := s.tokens.Verify(parts[1])
		if err != nil {
			message := "invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				message = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// requestLogger logs every request with a generated request id, the
// authenticated user when present, and the outcome.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)

		c.Next()

		attrs := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if userID := currentUserID(c); userID != 0 {
			attrs = append(attrs, "user_id", userID)
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.Last().Err)
			slog.Warn("request failed", attrs...)
		} else {
			slog.Info("request completed", attrs...)
		}
	}
}
