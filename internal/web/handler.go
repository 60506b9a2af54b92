// Package web binds the session and identity core to the UI layer over a
// localhost HTTP surface. It also receives the OAuth redirect callback,
// which arrives as a plain page load on /auth.
package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"taskmarket-client/internal/auth"
	"taskmarket-client/internal/auth/oauth"
	"taskmarket-client/internal/backend"
	"taskmarket-client/internal/logger"
	"taskmarket-client/internal/session"
	"taskmarket-client/internal/storage"
	"taskmarket-client/internal/tasks"
)

// TaskLister is the slice of the backend the dashboard needs.
type TaskLister interface {
	Tasks(ctx context.Context) ([]tasks.Task, error)
}

type Handler struct {
	flow         *oauth.Flow
	provider     *oauth.GoogleProvider
	orchestrator *auth.Orchestrator
	sessions     *session.Store
	taskAPI      TaskLister
	kv           storage.KV
	defaultLang  string
}

func NewHandler(
	flow *oauth.Flow,
	provider *oauth.GoogleProvider,
	orchestrator *auth.Orchestrator,
	sessions *session.Store,
	taskAPI TaskLister,
	kv storage.KV,
	defaultLang string,
) *Handler {
	return &Handler{
		flow:         flow,
		provider:     provider,
		orchestrator: orchestrator,
		sessions:     sessions,
		taskAPI:      taskAPI,
		kv:           kv,
		defaultLang:  defaultLang,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/auth", h.authEntry)
	r.GET("/auth/google", h.beginGoogleRedirect)
	r.POST("/auth/login", h.login)
	r.POST("/auth/register", h.register)
	r.POST("/auth/google-credential", h.googleCredential)
	r.POST("/auth/logout", h.logout)
	r.GET("/auth/session", h.currentSession)

	r.GET("/settings/language", h.getLanguage)
	r.PUT("/settings/language", h.setLanguage)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := r.Group("/")
	protected.Use(RequireSession(h.sessions))
	protected.GET("/dashboard/tasks", h.dashboardTasks)
	protected.PUT("/profile", h.updateProfile)
}

// authEntry serves the authentication page and doubles as the OAuth
// callback receiver. A page load that does not carry a valid (code, state)
// pair for the pending redirect is just a page load.
func (h *Handler) authEntry(c *gin.Context) {
	out := h.flow.HandleCallback(c.Request.Context(), c.Query("code"), c.Query("state"))

	switch out.Kind {
	case oauth.OutcomeAuthenticated:
		c.Redirect(http.StatusFound, out.RedirectTo)

	case oauth.OutcomeFailed:
		logger.Warn("oauth exchange failed", map[string]any{
			"retryable": out.Retryable,
			"error":     out.Err.Error(),
		})
		// Redirecting drops code/state so a refresh cannot replay them.
		target := "/auth?error=failed"
		if out.Retryable {
			target = "/auth?error=expired"
		}
		c.Redirect(http.StatusFound, target)

	default:
		if out.CleanURL {
			c.Redirect(http.StatusFound, "/auth")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"mode":   c.Query("mode"),
			"error":  c.Query("error"),
		})
	}
}

func (h *Handler) beginGoogleRedirect(c *gin.Context) {
	authURL, err := h.flow.BeginRedirect(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start google login"})
		return
	}
	c.Redirect(http.StatusFound, authURL)
	h.flow.MarkAwaitingCallback()
}

type loginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	identity, err := h.orchestrator.Login(c.Request.Context(), auth.Credentials{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identity})
}

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	identity, err := h.orchestrator.Register(c.Request.Context(), auth.Registration{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": identity})
}

// googleCredential handles the One Tap style path: a provider-issued JWT
// credential decoded locally and reconciled against the backend with the
// login-or-register fallback.
func (h *Handler) googleCredential(c *gin.Context) {
	var req struct {
		Credential string `json:"credential"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Credential == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	external, err := h.provider.Identity(c.Request.Context(), req.Credential)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
		return
	}

	identity, err := h.orchestrator.LoginOrRegisterExternal(c.Request.Context(), external)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": identity})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.orchestrator.Logout(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) currentSession(c *gin.Context) {
	snap := h.sessions.Current()
	if !snap.Authenticated() {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"user":          snap.Identity,
	})
}

// dashboardTasks fetches the task list once and partitions it into the two
// dashboard views.
func (h *Handler) dashboardTasks(c *gin.Context) {
	snap := h.sessions.Current()
	if !snap.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	all, err := h.taskAPI.Tasks(c.Request.Context())
	if err != nil {
		writeBackendError(c, err)
		return
	}

	posted, _ := tasks.Partition(*snap.Identity, all, tasks.PostedBy)
	assigned, _ := tasks.Partition(*snap.Identity, all, tasks.AssignedTo)

	c.JSON(http.StatusOK, gin.H{
		"posted":   posted,
		"assigned": assigned,
	})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var profile session.Identity
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.orchestrator.UpdateProfile(c.Request.Context(), profile)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

func (h *Handler) getLanguage(c *gin.Context) {
	lang, ok, err := h.kv.Get(c.Request.Context(), storage.KeyLanguage)
	if err != nil || !ok {
		lang = h.defaultLang
	}
	c.JSON(http.StatusOK, gin.H{"language": lang})
}

func (h *Handler) setLanguage(c *gin.Context) {
	var req struct {
		Language string `json:"language"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	tag, err := language.Parse(req.Language)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown language tag"})
		return
	}

	if err := h.kv.Set(c.Request.Context(), storage.KeyLanguage, tag.String()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save language"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"language": tag.String()})
}

// writeAuthError maps the error taxonomy onto HTTP statuses for the UI.
func writeAuthError(c *gin.Context, err error) {
	var validation *auth.ValidationError
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.Is(err, auth.ErrAuthenticationFailed):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, session.ErrSuperseded):
		// A logout won the race; the UI just re-renders unauthenticated.
		c.JSON(http.StatusConflict, gin.H{"error": "session ended during login"})
	default:
		writeBackendError(c, err)
	}
}

func writeBackendError(c *gin.Context, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrNetworkUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "backend unreachable"})
	case errors.Is(err, backend.ErrServerContract):
		c.JSON(http.StatusBadGateway, gin.H{"error": "unexpected backend response"})
	case errors.As(err, &apiErr):
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
