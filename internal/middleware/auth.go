package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kamal-Wagle/recondition/internal/models"
	"github.com/Kamal-Wagle/recondition/internal/security"
)

const (
	ctxCurrentUser  = "current_user"
	ctxAccessClaims = "access_claims"
)

type SessionLookup interface {
	GetByID(ctx context.Context, id string) (models.Session, error)
	Touch(ctx context.Context, sessionID string, ip string, userAgent string) error
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Auth resolves the bearer token to a live session and an active user.
func Auth(accessSecret string, users UserLookup, sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := security.ParseAccessToken(tokenStr, accessSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		ctx := c.Request.Context()
		session, err := sessions.GetByID(ctx, claims.SessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_not_found"})
			return
		}

		if session.UserID != claims.UserID || session.DeviceID != claims.DeviceID {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session_mismatch"})
			return
		}

		user, err := users.GetByID(ctx, claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user_not_found"})
			return
		}

		if user.Status != models.UserStatusActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
			return
		}

		_ = sessions.Touch(ctx, session.ID, c.ClientIP(), c.GetHeader("User-Agent"))

		c.Set(ctxAccessClaims, *claims)
		c.Set(ctxCurrentUser, user)

		c.Next()
	}
}

// CurrentUser returns the principal stored by Auth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	val, ok := c.Get(ctxCurrentUser)
	if !ok {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}

func AccessClaims(c *gin.Context) (security.AccessClaims, bool) {
	val, ok := c.Get(ctxAccessClaims)
	if !ok {
		return security.AccessClaims{}, false
	}
	claims, ok := val.(security.AccessClaims)
	return claims, ok
}

// SetCurrentUser stores a principal the way Auth does.
func SetCurrentUser(c *gin.Context, user models.User) {
	c.Set(ctxCurrentUser, user)
}
