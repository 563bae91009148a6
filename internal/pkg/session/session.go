package session

import (
	"strings"
	"time"

	"github.com/decode-reader/core/internal/models"
	jwtpkg "github.com/decode-reader/core/internal/pkg/jwt"
	"gorm.io/gorm"
)

const DefaultTTL = 30 * 24 * time.Hour

// Issue creates a session row and signs a JWT bound to it.
func Issue(db *gorm.DB, userID, ip, ua string, ttl time.Duration) (string, *models.UserSession, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &models.UserSession{
		UserID:    userID,
		IP:        strings.TrimSpace(ip),
		UA:        strings.TrimSpace(ua),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := db.Create(s).Error; err != nil {
		return "", nil, err
	}

	token, err := jwtpkg.SignWithOptions(userID, ttl, jwtpkg.SignOptions{SessionID: s.ID})
	if err != nil {
		_ = db.Delete(s).Error
		return "", nil, err
	}
	return token, s, nil
}

// activeScope narrows to the caller's session row if it is unrevoked and unexpired.
func activeScope(db *gorm.DB, userID, sessionID string) *gorm.DB {
	return db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?",
			sessionID, userID, time.Now())
}

// IsActive reports whether the session a token is bound to is still valid.
// Tokens issued without a session id are accepted as-is.
func IsActive(db *gorm.DB, userID, sessionID string) (bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return true, nil
	}

	var count int64
	if err := activeScope(db, userID, sessionID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Touch records session activity. Failures are ignored; activity tracking
// never blocks a request.
func Touch(db *gorm.DB, userID, sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	_ = activeScope(db, userID, sessionID).
		Update("last_seen_at", time.Now()).Error
}

// Revoke marks a session as signed out. Returns gorm.ErrRecordNotFound when
// the session does not exist or is already revoked.
func Revoke(db *gorm.DB, userID, sessionID string) error {
	now := time.Now()
	res := db.Model(&models.UserSession{}).
		Where("id = ? AND user_id = ? AND revoked_at IS NULL", sessionID, userID).
		Update("revoked_at", &now)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
