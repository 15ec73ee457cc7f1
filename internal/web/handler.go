// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package web exposes the authentication operations over HTTP.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// Options configures the HTTP handler.
type Options struct {
	// CookieSecure marks the session cookie Secure. Disable only for
	// plain-HTTP local development.
	CookieSecure bool
	// SessionTTL sets the session cookie Max-Age. Zero falls back to
	// auth.DefaultSessionTTL.
	SessionTTL time.Duration
	// Metrics is optional; nil disables request metrics.
	Metrics *observability.Metrics
	// Logger defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// Handler serves the authentication HTTP API.
type Handler struct {
	svc          *auth.Service
	guard        *auth.Guard
	metrics      *observability.Metrics
	log          *slog.Logger
	cookieSecure bool
	sessionTTL   time.Duration
}

// NewHandler creates a Handler over the given service and guard.
func NewHandler(svc *auth.Service, guard *auth.Guard, opts Options) (*Handler, error) {
	if svc == nil {
		return nil, oops.Code("WEB_INVALID_DEPS").Errorf("auth service is required")
	}
	if guard == nil {
		return nil, oops.Code("WEB_INVALID_DEPS").Errorf("access guard is required")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = auth.DefaultSessionTTL
	}
	return &Handler{
		svc:          svc,
		guard:        guard,
		metrics:      opts.Metrics,
		log:          log,
		cookieSecure: opts.CookieSecure,
		sessionTTL:   ttl,
	}, nil
}

// Register attaches the API routes to a gin router.
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/signup", h.RequireGuest(), h.Signup)
	r.POST("/login", h.RequireGuest(), h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/userProfile", h.RequireAuth(), h.Profile)
}

// Router builds a gin engine with the API routes attached.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if h.metrics != nil {
		r.Use(h.requestMetrics())
	}
	h.Register(r)
	return r
}

// requestMetrics records per-route request counts and latency.
func (h *Handler) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		h.metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		h.metrics.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(identity auth.Identity) userResponse {
	return userResponse{
		Username: identity.Username,
		Email:    identity.Email,
	}
}

// Signup handles POST /signup. A successful registration also logs the
// new account in: the response carries a live session token and the
// session cookie is set.
func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.countAuth("signup", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	result, err := h.svc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.countAuth("signup", "failure")
		h.respondError(c, err)
		return
	}

	h.countAuth("signup", "success")
	setSessionCookie(c, result.Token, int(h.sessionTTL.Seconds()), h.cookieSecure)
	c.JSON(http.StatusCreated, sessionResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

// Login handles POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.countAuth("login", "bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.countAuth("login", "failure")
		h.respondError(c, err)
		return
	}

	h.countAuth("login", "success")
	setSessionCookie(c, result.Token, int(h.sessionTTL.Seconds()), h.cookieSecure)
	c.JSON(http.StatusOK, sessionResponse{
		Token: result.Token,
		User:  toUserResponse(result.User),
	})
}

// Logout handles POST /logout. Idempotent: logging out without a live
// session still succeeds and still clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), sessionToken(c)); err != nil {
		h.countAuth("logout", "failure")
		h.respondError(c, err)
		return
	}

	h.countAuth("logout", "success")
	clearSessionCookie(c, h.cookieSecure)
	c.Status(http.StatusNoContent)
}

// Profile handles GET /userProfile. RequireAuth has already resolved
// the identity.
func (h *Handler) Profile(c *gin.Context) {
	identity := CurrentIdentity(c)
	if identity == nil {
		// RequireAuth guarantees an identity; reaching here is a wiring bug.
		h.respondError(c, oops.Code("WEB_MISSING_IDENTITY").Errorf("identity missing from context"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(*identity)})
}

// statusForError maps the closed error taxonomy to HTTP statuses.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrRegistrationConflict):
		return http.StatusConflict, auth.ErrRegistrationConflict.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, auth.ErrInvalidCredentials.Error()
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, auth.ErrNoSession):
		return http.StatusUnauthorized, auth.ErrUnauthorized.Error()
	case errors.Is(err, auth.ErrAlreadyAuthenticated):
		return http.StatusForbidden, auth.ErrAlreadyAuthenticated.Error()
	case errors.Is(err, auth.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// respondError maps a domain error to an HTTP response. Internal faults
// are logged with their full context but never leaked to the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	status, message := statusForError(err)
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		h.logError(c, err)
	}
	c.JSON(status, gin.H{"message": message})
}

func (h *Handler) logError(c *gin.Context, err error) {
	errutil.LogError(h.log.With("method", c.Request.Method, "path", c.FullPath()), "request failed", err)
}

func (h *Handler) countAuth(operation, status string) {
	if h.metrics == nil {
		return
	}
	h.metrics.AuthAttemptsTotal.WithLabelValues(operation, status).Inc()
}
