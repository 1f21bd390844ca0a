package models

import "time"

// RefreshToken is the single active refresh token of a user.
type RefreshToken struct {
	UserID    int64
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
