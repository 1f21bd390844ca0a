package models

import "time"

const DefaultRole = "user"

type User struct {
	ID           int64     `json:"id"`
	UserName     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserPatch holds the optional fields of a user update. A nil field is left
// unchanged; PasswordHash is already hashed.
type UserPatch struct {
	UserName     *string
	PasswordHash *string
	Role         *string
}
