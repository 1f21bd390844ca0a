package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/staffkeeper/internal/common"
	"github.com/dmitrijs2005/staffkeeper/internal/dbx"
	"github.com/dmitrijs2005/staffkeeper/internal/server/auth"
	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/positions"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/staffkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testTokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

// fakeUsers is an in-memory users.Repository.
type fakeUsers struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]models.User
	err     error
	lookups int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[int64]models.User)}
}

// seed stores a user with a bcrypt hash of password.
func (f *fakeUsers) seed(t *testing.T, name, password, role string) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u, err := f.Create(context.Background(), &models.User{UserName: name, PasswordHash: hash, Role: role})
	require.NoError(t, err)
	return *u
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.UserName == user.UserName {
			return nil, common.ErrAlreadyExists
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.byID[user.ID] = *user
	out := *user
	return &out, nil
}

func (f *fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.UserName == login {
			out := u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (f *fakeUsers) List(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.User, 0, len(f.byID))
	for _, u := range f.byID {
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) Update(_ context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if patch.UserName != nil {
		u.UserName = *patch.UserName
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	f.byID[id] = u
	return &u, nil
}

func (f *fakeUsers) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakePositions is an in-memory positions.Repository.
type fakePositions struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]models.Position
	err    error
}

func newFakePositions() *fakePositions {
	return &fakePositions{byID: make(map[int64]models.Position)}
}

func (f *fakePositions) List(context.Context) ([]*models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.Position, 0, len(f.byID))
	for _, p := range f.byID {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PositionID < out[j].PositionID })
	return out, nil
}

func (f *fakePositions) GetByID(_ context.Context, id int64) (*models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}

func (f *fakePositions) Create(_ context.Context, p *models.Position) (*models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	p.PositionID = f.nextID
	f.byID[p.PositionID] = *p
	return p, nil
}

func (f *fakePositions) Update(_ context.Context, id int64, patch models.PositionPatch) (*models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if patch.PositionCode != nil {
		p.PositionCode = *patch.PositionCode
	}
	if patch.PositionName != nil {
		p.PositionName = *patch.PositionName
	}
	f.byID[id] = p
	return &p, nil
}

func (f *fakePositions) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.byID, id)
	return nil
}

// failingSessions is a session store whose every call fails.
type failingSessions struct{}

func (failingSessions) Set(context.Context, int64, string, time.Duration) error { return errBoom }
func (failingSessions) Find(context.Context, string) (*models.RefreshToken, error) {
	return nil, errBoom
}
func (failingSessions) Rotate(context.Context, int64, string, string, time.Duration) error {
	return errBoom
}
func (failingSessions) Delete(context.Context, int64) error { return errBoom }

type fakeRepoManager struct {
	users     *fakeUsers
	positions *fakePositions
	sessions  refreshtokens.Repository
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository             { return m.users }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.sessions }
func (m *fakeRepoManager) Positions(dbx.DBTX) positions.Repository         { return m.positions }
