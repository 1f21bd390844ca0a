// Package refreshtokens declares the session store: the single active refresh
// token of every user, and its PostgreSQL, Redis and in-memory implementations.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
)

// Repository holds at most one refresh token per user.
type Repository interface {
	// Set stores token as the user's refresh token, replacing any previous one.
	Set(ctx context.Context, userID int64, token string, validity time.Duration) error

	// Find looks a token up by value. It returns common.ErrorNotFound when no
	// user currently holds it.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Rotate replaces oldToken with newToken only if oldToken is still the
	// user's current token; otherwise it returns common.ErrRotationConflict.
	// Concurrent calls with the same oldToken succeed at most once.
	Rotate(ctx context.Context, userID int64, oldToken, newToken string, validity time.Duration) error

	// Delete clears the user's refresh token. Clearing an empty slot is not
	// an error.
	Delete(ctx context.Context, userID int64) error
}
