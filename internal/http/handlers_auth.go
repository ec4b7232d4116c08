package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/vrnd369/theubc-admin-api/internal/ports"
	"github.com/vrnd369/theubc-admin-api/internal/service"
)

// Client-safe messages for sign-in failures. Credential failures share one
// message: responses never reveal which of email/password was wrong, nor
// whether the account exists.
const (
	msgInvalidCredentials = "Invalid email or password."
	msgTooManyRequests    = "Too many attempts. Please try again later."
	msgNetworkFailure     = "Network error. Please check your connection and try again."
	msgLoginFailed        = "Login failed. Please try again."
)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Auth     *service.AuthService
	Identity ports.IdentitySource
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login. A successful sign-in triggers an
// identity-change event; resolution completes asynchronously, so clients
// follow up on GET /auth/session.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	if err := h.Identity.SignInWithPassword(r.Context(), req.Email, req.Password); err != nil {
		h.writeSignInError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (h *AuthHandlers) writeSignInError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidCredentials), errors.Is(err, ports.ErrInvalidEmail):
		// Uniform message for every credential-shaped failure.
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_credentials", Message: msgInvalidCredentials})
	case errors.Is(err, ports.ErrTooManyRequests):
		WriteError(w, ErrorParams{Code: http.StatusTooManyRequests, ErrCode: "too_many_requests", Message: msgTooManyRequests})
	case errors.Is(err, ports.ErrNetwork):
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "network_error", Message: msgNetworkFailure})
	default:
		h.logger().ErrorContext(r.Context(), "sign-in failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "login_failed", Message: msgLoginFailed})
	}
}

// Logout handles POST /auth/logout. Local state is always cleared; audit and
// provider failures are absorbed upstream.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Auth.Logout(r.Context())
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Session handles GET /auth/session: the published auth state.
func (h *AuthHandlers) Session(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"user":            h.Auth.User(),
		"isAuthenticated": h.Auth.IsAuthenticated(),
		"loading":         h.Auth.Loading(),
		"basePath":        h.Auth.BasePath(),
	})
}

type activityRequest struct {
	Path string `json:"path"`
}

// Activity handles POST /auth/activity: a user interaction event on the
// given route, feeding idle enforcement.
func (h *AuthHandlers) Activity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	h.Auth.ReportActivity(req.Path)
	w.WriteHeader(http.StatusNoContent)
}

// Route handles POST /auth/route: a client-side navigation report.
func (h *AuthHandlers) Route(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	h.Auth.ReportRoute(req.Path)
	w.WriteHeader(http.StatusNoContent)
}
