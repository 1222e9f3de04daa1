package model

import "time"

// Session links a client token to a user. Token is only populated when the
// session is created; stores keep TokenHash.
type Session struct {
	Token     string    `json:"-"`
	TokenHash string    `json:"-"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
