package model

import "time"

// Session is the server-side record behind a session cookie
type Session struct {
	ID        string     `gorm:"primaryKey;type:varchar(64)"`
	UserID    uint       `gorm:"index;not null"`
	ExpiresAt time.Time  `gorm:"index;not null"`
	RevokedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
}

// Active reports whether the session may still authenticate requests
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
