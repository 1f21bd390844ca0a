// Package rest is the HTTP transport of staffkeeper: a gorilla/mux router,
// bearer-token middleware and JSON handlers over the services.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/staffkeeper/internal/logging"
	"github.com/dmitrijs2005/staffkeeper/internal/server/auth"
	"github.com/dmitrijs2005/staffkeeper/internal/server/models"
	"github.com/dmitrijs2005/staffkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

type AuthAPI interface {
	Register(ctx context.Context, username, password, role string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*auth.TokenPair, error)
	Logout(ctx context.Context, userID int64) error
	RefreshTokens(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
}

type UserAPI interface {
	Create(ctx context.Context, username, password, role string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, id int64, upd services.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

type PositionAPI interface {
	List(ctx context.Context) ([]*models.Position, error)
	Get(ctx context.Context, id int64) (*models.Position, error)
	Create(ctx context.Context, code, name string, createdBy int64) (*models.Position, error)
	Update(ctx context.Context, id int64, patch models.PositionPatch) (*models.Position, error)
	Delete(ctx context.Context, id int64) error
}

// Pinger reports database health; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HTTPServer struct {
	address   string
	auth      AuthAPI
	users     UserAPI
	positions PositionAPI
	tokens    *auth.Issuer
	db        Pinger
	logger    logging.Logger
}

func NewHTTPServer(address string, l logging.Logger, a AuthAPI, u UserAPI, p PositionAPI,
	tokens *auth.Issuer, db Pinger) *HTTPServer {
	return &HTTPServer{
		address:   address,
		auth:      a,
		users:     u,
		positions: p,
		tokens:    tokens,
		db:        db,
		logger:    l.With("module", "http_server"),
	}
}

// Router builds the route table.
func (s *HTTPServer) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	r.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", s.refresh).Methods(http.MethodPost)

	r.HandleFunc("/users", s.createUser).Methods(http.MethodPost)
	r.Handle("/users", s.requireAccessToken(s.listUsers)).Methods(http.MethodGet)
	r.Handle("/users/{id}", s.requireAccessToken(s.getUser)).Methods(http.MethodGet)
	r.Handle("/users/{id}", s.requireAccessToken(s.updateUser)).Methods(http.MethodPut)
	r.Handle("/users/{id}", s.requireAccessToken(s.deleteUser)).Methods(http.MethodDelete)

	r.Handle("/positions", s.requireAccessToken(s.listPositions)).Methods(http.MethodGet)
	r.Handle("/positions", s.requireAccessToken(s.createPosition)).Methods(http.MethodPost)
	r.Handle("/positions/{id}", s.requireAccessToken(s.getPosition)).Methods(http.MethodGet)
	r.Handle("/positions/{id}", s.requireAccessToken(s.updatePosition)).Methods(http.MethodPut)
	r.Handle("/positions/{id}", s.requireAccessToken(s.deletePosition)).Methods(http.MethodDelete)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error(ctx, "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
