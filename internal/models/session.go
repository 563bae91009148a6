package models

import "time"

// UserSession is the server-side row a JWT is bound to. Revoking the row
// invalidates the token without any client cooperation.
type UserSession struct {
	Base
	UserID     string     `json:"user_id"      gorm:"index;not null"`
	IP         string     `json:"ip"`
	UA         string     `json:"ua"           gorm:"type:text"`
	ExpiresAt  time.Time  `json:"expires_at"   gorm:"index;not null"`
	LastSeenAt *time.Time `json:"last_seen_at"`
	RevokedAt  *time.Time `json:"revoked_at"   gorm:"index"`
}

func (UserSession) TableName() string { return "user_sessions" }
