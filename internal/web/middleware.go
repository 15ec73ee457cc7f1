// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// identityKey is the gin context key holding the authenticated identity.
const identityKey = "gatehouse.identity"

// RequireAuth aborts with 401 unless the request carries a live session.
// On success the resolved identity is stored in the gin context for the
// handler to read via CurrentIdentity.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := h.guard.RequireAuthenticated(c.Request.Context(), sessionToken(c))
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireGuest aborts with 403 when the request already carries a live
// session. Signup and login are guest-only.
func (h *Handler) RequireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.guard.RequireAnonymous(c.Request.Context(), sessionToken(c)); err != nil {
			h.abortWithError(c, err)
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by RequireAuth, or nil.
func CurrentIdentity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, ok := v.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

// abortWithError maps a domain error to an HTTP status and aborts.
func (h *Handler) abortWithError(c *gin.Context, err error) {
	status, message := statusForError(err)
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		h.logError(c, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
