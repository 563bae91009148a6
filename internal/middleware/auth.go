package middleware

import (
	"errors"
	"strings"

	"github.com/decode-reader/core/internal/pkg/jwt"
	"github.com/decode-reader/core/internal/pkg/response"
	sessionpkg "github.com/decode-reader/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	ContextKeyUserID = "user_id"
	ContextKeySID    = "session_id"
)

// Auth enforces JWT authentication backed by a live session row.
func Auth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authenticate(db, c)
		if err != nil {
			response.Unauthorized(c)
			return
		}
		bindClaims(db, c, claims)
		c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present but never
// blocks the request. Anonymous explanation requests stay allowed; they just
// hit the anonymous rate limit.
func OptionalAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := authenticate(db, c); err == nil && claims.UserID != "" {
			bindClaims(db, c, claims)
		}
		c.Next()
	}
}

func bindClaims(db *gorm.DB, c *gin.Context, claims *jwt.Claims) {
	c.Set(ContextKeyUserID, claims.UserID)
	if claims.SessionID != "" {
		c.Set(ContextKeySID, claims.SessionID)
		sessionpkg.Touch(db, claims.UserID, claims.SessionID)
	}
}

func authenticate(db *gorm.DB, c *gin.Context) (*jwt.Claims, error) {
	token := NormalizeToken(c.GetHeader("Authorization"))
	if token == "" {
		// EventSource cannot set headers, so SSE clients may pass ?token=.
		token = NormalizeToken(c.Query("token"))
	}
	if token == "" {
		return nil, errors.New("token is required")
	}

	claims, err := jwt.Parse(token)
	if err != nil {
		return nil, err
	}
	active, err := sessionpkg.IsActive(db, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, errors.New("session expired or revoked")
	}
	return claims, nil
}

// CurrentUserID extracts the authenticated user ID from context.
func CurrentUserID(c *gin.Context) string {
	v, _ := c.Get(ContextKeyUserID)
	id, _ := v.(string)
	return id
}

// CurrentSessionID extracts the authenticated session ID from context.
func CurrentSessionID(c *gin.Context) string {
	v, _ := c.Get(ContextKeySID)
	id, _ := v.(string)
	return id
}

// IsAuthenticated reports whether the request carried a valid token.
func IsAuthenticated(c *gin.Context) bool {
	return CurrentUserID(c) != ""
}

// NormalizeToken trims spaces and strips an optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
