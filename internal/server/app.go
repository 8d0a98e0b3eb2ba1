package server

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hnrobert/ftpmgr/internal/auth"
	"github.com/hnrobert/ftpmgr/internal/deploy"
	"github.com/hnrobert/ftpmgr/internal/discovery"
	"github.com/hnrobert/ftpmgr/internal/logger"
	"github.com/hnrobert/ftpmgr/internal/store"
)

// Authenticator checks operator credentials and admin rights.
type Authenticator interface {
	Login(ctx context.Context, username, password string) error
}

type Options struct {
	Store     *store.Store
	Deployer  *deploy.Controller
	Targets   deploy.Targets
	Discovery *discovery.Service
	Hasher    auth.Hasher
	Operators Authenticator
	// Secret signs session tokens. See ParseSecret.
	Secret     []byte
	SessionTTL time.Duration
}

type App struct {
	secret     []byte
	cookieName string
	ttl        time.Duration

	store     *store.Store
	deployer  *deploy.Controller
	targets   deploy.Targets
	discovery *discovery.Service
	hasher    auth.Hasher
	operators Authenticator
}

func NewApp(o Options) *App {
	ttl := o.SessionTTL
	if ttl <= 0 {
		ttl = auth.DefaultTTL
	}
	return &App{
		secret:     o.Secret,
		cookieName: auth.DefaultCookieName,
		ttl:        ttl,
		store:      o.Store,
		deployer:   o.Deployer,
		targets:    o.Targets,
		discovery:  o.Discovery,
		hasher:     o.Hasher,
		operators:  o.Operators,
	}
}

// ParseSecret turns the configured jwt secret into key bytes. An empty
// value yields an ephemeral random secret, so sessions end on restart.
func ParseSecret(text string) ([]byte, error) {
	if text == "" {
		logger.Warn("jwt_secret is not configured; using an ephemeral secret")
		s, err := auth.NewRandomSecretB64(32)
		if err != nil {
			return nil, err
		}
		text = s
	}
	raw, err := base64.RawURLEncoding.DecodeString(text)
	if err != nil {
		raw = []byte(text)
	}
	if len(raw) < 16 {
		pad := make([]byte, 16)
		copy(pad, raw)
		raw = pad
	}
	return raw, nil
}

func (a *App) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLogging)
	r.Use(a.withAuthContext)

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Post("/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAdmin)

			r.Post("/logout", a.handleLogout)
			r.Get("/dashboard", a.handleDashboard)

			r.Get("/users", a.handleListUsers)
			r.Post("/users", a.handleCreateUser)
			r.Get("/users/{id}", a.handleGetUser)
			r.Put("/users/{id}", a.handleUpdateUser)
			r.Delete("/users/{id}", a.handleDeleteUser)
			r.Put("/users/{id}/access", a.handleReplaceAccess)
			r.Delete("/users/{id}/access/{folderID}", a.handleRevokeAccess)

			r.Get("/folders", a.handleListFolders)
			r.Post("/folders", a.handleCreateFolder)
			r.Get("/folders/{id}", a.handleGetFolder)
			r.Put("/folders/{id}", a.handleUpdateFolder)
			r.Delete("/folders/{id}", a.handleDeleteFolder)

			r.Get("/config/preview", a.handleConfigPreview)
			r.Get("/config/download", a.handleConfigDownload)
			r.Get("/config/download-users", a.handleUsersDownload)
			r.Post("/deploy", a.handleDeploy)

			r.Get("/profile", a.handleGetProfile)
			r.Put("/profile", a.handleUpdateProfile)

			r.Get("/discover/directories", a.handleDiscoverDirectories)
			r.Get("/discover/systemusers", a.handleDiscoverSystemUsers)
		})
	})
	return r
}

func (a *App) issueCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.ttl.Seconds()),
	})
}

func (a *App) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
