package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/staffkeeper/internal/common"
	"github.com/dmitrijs2005/staffkeeper/internal/dbx"
	"github.com/dmitrijs2005/staffkeeper/internal/logging"
	"github.com/dmitrijs2005/staffkeeper/internal/server/auth"
	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/repomanager"
)

// UserUpdate carries the optional fields of a user update. Password is plain
// text and gets hashed before it is stored.
type UserUpdate struct {
	UserName *string
	Password *string
	Role     *string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sessions    refreshtokens.Repository
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, sessions refreshtokens.Repository, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		sessions:    sessions,
		logger:      logger.With("module", "users"),
	}
}

func userNotFound(id int64) error {
	return fmt.Errorf("user with id %d: %w", id, common.ErrorNotFound)
}

// Create registers a user. The username check and the insert share one
// transaction; the unique index catches whatever races past the check.
func (s *UserService) Create(ctx context.Context, username, password, role string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}
	if role == "" {
		role = models.DefaultRole
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return nil, err
		}
		s.logger.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetUserByLogin(ctx, username)
		switch {
		case err == nil:
			return common.ErrAlreadyExists
		case !errors.Is(err, common.ErrorNotFound):
			return err
		}

		created, err = repo.Create(ctx, &models.User{UserName: username, PasswordHash: hash, Role: role})
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, fmt.Errorf("username %q: %w", username, common.ErrAlreadyExists)
		}
		s.logger.Error(ctx, "user create failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user created", "user_id", created.ID)
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, userNotFound(id)
		}
		s.logger.Error(ctx, "user get failed", "user_id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		s.logger.Error(ctx, "user list failed", "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

// Update applies the non-nil fields of upd. A password change revokes the
// user's refresh token.
func (s *UserService) Update(ctx context.Context, id int64, upd UserUpdate) (*models.User, error) {
	patch := models.UserPatch{UserName: upd.UserName, Role: upd.Role}

	if upd.UserName != nil && *upd.UserName == "" {
		return nil, fmt.Errorf("%w: username must not be empty", common.ErrValidation)
	}
	if upd.Role != nil && *upd.Role == "" {
		return nil, fmt.Errorf("%w: role must not be empty", common.ErrValidation)
	}
	if upd.Password != nil {
		if *upd.Password == "" {
			return nil, fmt.Errorf("%w: password must not be empty", common.ErrValidation)
		}
		hash, err := auth.HashPassword(*upd.Password)
		if err != nil {
			if errors.Is(err, common.ErrValidation) {
				return nil, err
			}
			s.logger.Error(ctx, "password hashing failed", "error", err)
			return nil, common.ErrorInternal
		}
		patch.PasswordHash = &hash
	}

	u, err := s.repomanager.Users(s.db).Update(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, userNotFound(id)
		case errors.Is(err, common.ErrAlreadyExists):
			return nil, fmt.Errorf("username is taken: %w", common.ErrAlreadyExists)
		}
		s.logger.Error(ctx, "user update failed", "user_id", id, "error", err)
		return nil, common.ErrorInternal
	}

	if patch.PasswordHash != nil {
		if err := s.sessions.Delete(ctx, id); err != nil {
			s.logger.Error(ctx, "session revoke failed", "user_id", id, "error", err)
			return nil, common.ErrorInternal
		}
	}

	return u, nil
}

// Delete removes the user together with their session.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.logger.Error(ctx, "session revoke failed", "user_id", id, "error", err)
		return common.ErrorInternal
	}

	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return userNotFound(id)
		}
		s.logger.Error(ctx, "user delete failed", "user_id", id, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}
