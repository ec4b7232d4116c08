package httpx

import (
	"log/slog"
	"net/http"

	"github.com/vrnd369/theubc-admin-api/internal/ports"
	"github.com/vrnd369/theubc-admin-api/internal/service"
)

// RouterServices holds the services needed by the HTTP router.
type RouterServices struct {
	Auth     *service.AuthService
	Identity ports.IdentitySource
	Logger   *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Auth:     services.Auth,
		Identity: services.Identity,
		Logger:   services.Logger,
	}

	mux.HandleFunc("POST /auth/login", authHandlers.Login)
	mux.HandleFunc("POST /auth/logout", authHandlers.Logout)
	mux.HandleFunc("GET /auth/session", authHandlers.Session)
	mux.HandleFunc("POST /auth/activity", authHandlers.Activity)
	mux.HandleFunc("POST /auth/route", authHandlers.Route)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}
