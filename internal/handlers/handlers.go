package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/ledger"
	"expense-ledger/internal/models"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// PrincipalContextKey is the context key for the authenticated principal.
	PrincipalContextKey contextKey = "principal"
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "session"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	authn        *auth.Authenticator
	sessions     *auth.SessionManager
	ledger       *ledger.Service
	logger       *slog.Logger
	secureCookie bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authn *auth.Authenticator, sessions *auth.SessionManager, ledgerSvc *ledger.Service, logger *slog.Logger, secureCookie bool) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		authn:        authn,
		sessions:     sessions,
		ledger:       ledgerSvc,
		logger:       logger.With("component", "http"),
		secureCookie: secureCookie,
	}
}

// PrincipalFromContext returns the principal stored by RequireAuth, or
// models.Anonymous.
func PrincipalFromContext(ctx context.Context) models.Principal {
	if p, ok := ctx.Value(PrincipalContextKey).(models.Principal); ok {
		return p
	}
	return models.Anonymous
}

// RequireAuth rejects requests without a valid session before the wrapped
// handler runs. Sessions renewed during the lookup get a refreshed cookie.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if cookie, err := r.Cookie(SessionCookieName); err == nil {
			token = cookie.Value
		}

		res, err := h.sessions.Resolve(r.Context(), token)
		if err != nil {
			if errors.Is(err, models.ErrUnauthenticated) && token != "" {
				h.clearSessionCookie(w)
			}
			h.writeError(w, r, "resolve session", err)
			return
		}

		if res.Renewed {
			h.setSessionCookie(w, token, res.ExpiresAt)
		}

		ctx := context.WithValue(r.Context(), PrincipalContextKey, res.Principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username"`
}

// Register handles account creation.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, "register", &models.ValidationError{Field: "form", Reason: "is malformed"})
		return
	}

	user, err := h.authn.Register(r.Context(), r.FormValue("email"), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		h.writeError(w, r, "register", err)
		return
	}

	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusCreated, userResponse{ID: user.ID, Email: user.Email, Username: user.Username})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, "login", &models.ValidationError{Field: "form", Reason: "is malformed"})
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.writeError(w, r, "login", &models.ValidationError{Field: "credentials", Reason: "username and password are required"})
		return
	}

	principal, err := h.authn.Authenticate(r.Context(), username, password)
	if err != nil {
		h.writeError(w, r, "login", err)
		return
	}

	token, err := h.sessions.Create(r.Context(), principal.UserID)
	if err != nil {
		h.writeError(w, r, "create session", err)
		return
	}

	h.setSessionCookie(w, token, time.Now().Add(h.sessions.TTL()))
	h.logger.InfoContext(r.Context(), "user logged in", "user_id", principal.UserID, "username", principal.Username)
	writeJSON(w, http.StatusOK, userResponse{ID: principal.UserID, Username: principal.Username})
}

// Logout destroys the current session, if any.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to delete session", "error", err)
		}
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
