package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Context keys for the authenticated user
const (
	contextKeyUsername = "auth.username"
	contextKeyUserID   = "auth.user_id"
)

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

// RequireAuth rejects requests without a valid bearer token and stores the
// token's user in the context.
func RequireAuth(tokens *TokenService, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			logger.Warn().Str("path", c.FullPath()).Msg("unauthorized access - missing token")
			unauthorized(c, "Missing or invalid Authorization header")
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			logger.Warn().Err(err).Str("path", c.FullPath()).Msg("unauthorized access - invalid token")
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(contextKeyUsername, claims.Subject)
		if id, err := uuid.Parse(claims.UserID); err == nil {
			c.Set(contextKeyUserID, id)
		}
		c.Next()
	}
}

// Username returns the authenticated username, or "" outside RequireAuth.
func Username(c *gin.Context) string {
	return c.GetString(contextKeyUsername)
}

// UserID returns the authenticated user's ID.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(contextKeyUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
