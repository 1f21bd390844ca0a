package refreshtokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/staffkeeper/internal/common"
	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
)

// MemoryRepository is a process-local store for development and tests.
type MemoryRepository struct {
	mu      sync.Mutex
	byUser  map[int64]models.RefreshToken
	byToken map[string]int64
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byUser:  make(map[int64]models.RefreshToken),
		byToken: make(map[string]int64),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Set(_ context.Context, userID int64, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.put(userID, token, validity)
	return nil
}

func (r *MemoryRepository) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.byToken[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	rt := r.byUser[userID]
	return &rt, nil
}

func (r *MemoryRepository) Rotate(_ context.Context, userID int64, oldToken, newToken string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byUser[userID]
	if !ok || current.Token != oldToken {
		return common.ErrRotationConflict
	}
	r.put(userID, newToken, validity)
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.byUser[userID]; ok {
		delete(r.byToken, current.Token)
		delete(r.byUser, userID)
	}
	return nil
}

// put must be called with mu held.
func (r *MemoryRepository) put(userID int64, token string, validity time.Duration) {
	if previous, ok := r.byUser[userID]; ok {
		delete(r.byToken, previous.Token)
	}
	now := r.now()
	r.byUser[userID] = models.RefreshToken{
		UserID:    userID,
		Token:     token,
		Expires:   now.Add(validity),
		CreatedAt: now,
	}
	r.byToken[token] = userID
}
