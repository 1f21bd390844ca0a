// Package services contains the server-side business logic. AuthService owns
// the login, refresh and logout lifecycle of the access/refresh token pair.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/staffkeeper/internal/common"
	"github.com/dmitrijs2005/staffkeeper/internal/logging"
	"github.com/dmitrijs2005/staffkeeper/internal/server/auth"
	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/repomanager"
)

// RefreshFailureReason tells operators why a refresh was refused. It is
// logged, never returned to clients.
type RefreshFailureReason string

const (
	ReasonMalformed        RefreshFailureReason = "malformed"
	ReasonBadSignature     RefreshFailureReason = "bad_signature"
	ReasonExpired          RefreshFailureReason = "expired"
	ReasonIdentityNotFound RefreshFailureReason = "identity_not_found"
	ReasonStale            RefreshFailureReason = "stale"
	ReasonInternal         RefreshFailureReason = "internal"
)

// RefreshFailure is returned by AuthService.RefreshTokens for every refused
// token. It matches common.ErrRefreshFailed and unwraps to the cause.
type RefreshFailure struct {
	Reason RefreshFailureReason
	Err    error
}

func (f *RefreshFailure) Error() string {
	return fmt.Sprintf("%s (%s)", common.ErrRefreshFailed, f.Reason)
}

func (f *RefreshFailure) Is(target error) bool {
	return target == common.ErrRefreshFailed
}

func (f *RefreshFailure) Unwrap() error {
	return f.Err
}

func refreshFailure(reason RefreshFailureReason, err error) *RefreshFailure {
	return &RefreshFailure{Reason: reason, Err: err}
}

// dummyHash is compared against when the user does not exist so that unknown
// usernames cost the same bcrypt round as wrong passwords.
var dummyHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword("staffkeeper:no-such-user")
	if err != nil {
		return ""
	}
	return h
})

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       *UserService
	sessions    refreshtokens.Repository
	issuer      *auth.Issuer
	logger      logging.Logger
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, users *UserService,
	sessions refreshtokens.Repository, issuer *auth.Issuer, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		users:       users,
		sessions:    sessions,
		issuer:      issuer,
		logger:      logger.With("module", "auth"),
	}
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{
		Subject:  strconv.FormatInt(u.ID, 10),
		Username: u.UserName,
		Role:     u.Role,
	}
}

// Register creates an account. Role defaults to models.DefaultRole.
func (s *AuthService) Register(ctx context.Context, username, password, role string) (*models.User, error) {
	return s.users.Create(ctx, username, password, role)
}

// Login checks credentials and starts a new session, replacing any refresh
// token the user already had.
func (s *AuthService) Login(ctx context.Context, username, password string) (*auth.TokenPair, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(password, dummyHash())
			return nil, common.ErrInvalidCredentials
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(identityOf(user))
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "error", err)
		return nil, common.ErrorInternal
	}

	if err := s.sessions.Set(ctx, user.ID, pair.RefreshToken, s.issuer.RefreshTTL()); err != nil {
		s.logger.Error(ctx, "session store failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// Logout drops the user's refresh token. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if userID == 0 {
		return common.ErrMissingIdentity
	}
	if err := s.sessions.Delete(ctx, userID); err != nil {
		s.logger.Error(ctx, "session delete failed", "user_id", userID, "error", err)
		return common.ErrorInternal
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// RefreshTokens exchanges a valid, current refresh token for a new pair. The
// old token stops working once this returns successfully.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", common.ErrValidation)
	}

	pair, failure := s.refresh(ctx, refreshToken)
	if failure != nil {
		s.logger.Warn(ctx, "refresh refused", "reason", string(failure.Reason), "error", failure.Err)
		return nil, failure
	}
	return pair, nil
}

func (s *AuthService) refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, *RefreshFailure) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			return nil, refreshFailure(ReasonExpired, err)
		case errors.Is(err, common.ErrBadSignature):
			return nil, refreshFailure(ReasonBadSignature, err)
		default:
			return nil, refreshFailure(ReasonMalformed, err)
		}
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return nil, refreshFailure(ReasonMalformed, fmt.Errorf("%w: bad subject %q", common.ErrMalformedToken, claims.Subject))
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, refreshFailure(ReasonIdentityNotFound, err)
		}
		return nil, refreshFailure(ReasonInternal, err)
	}

	stored, err := s.sessions.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, refreshFailure(ReasonStale, err)
		}
		return nil, refreshFailure(ReasonInternal, err)
	}
	if stored.UserID != user.ID {
		return nil, refreshFailure(ReasonStale, fmt.Errorf("token belongs to user %d", stored.UserID))
	}

	pair, err := s.issuer.IssuePair(identityOf(user))
	if err != nil {
		return nil, refreshFailure(ReasonInternal, err)
	}

	if err := s.sessions.Rotate(ctx, user.ID, refreshToken, pair.RefreshToken, s.issuer.RefreshTTL()); err != nil {
		if errors.Is(err, common.ErrRotationConflict) {
			return nil, refreshFailure(ReasonStale, err)
		}
		return nil, refreshFailure(ReasonInternal, err)
	}

	return pair, nil
}
