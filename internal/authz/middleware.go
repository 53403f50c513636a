// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package authz

import (
	"net/http"

	"github.com/gaiaresources/bdrs-review/internal/logging"
)

// SubjectFunc returns the caller's role, or "" when no user is resolved.
type SubjectFunc func(r *http.Request) string

// DenyFunc writes the response for a refused request. status is 401 for
// anonymous callers and 403 otherwise.
type DenyFunc func(w http.ResponseWriter, r *http.Request, status int)

// Middleware guards routes with the enforcer.
type Middleware struct {
	enforcer *Enforcer
	subject  SubjectFunc
	deny     DenyFunc
}

// NewMiddleware creates the middleware. A nil deny writes a plain status.
func NewMiddleware(enforcer *Enforcer, subject SubjectFunc, deny DenyFunc) *Middleware {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, status int) {
			http.Error(w, http.StatusText(status), status)
		}
	}
	return &Middleware{enforcer: enforcer, subject: subject, deny: deny}
}

// Require lets the request through only when the caller may perform action
// on object.
func (m *Middleware) Require(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := m.subject(r)
			if m.enforcer.Allowed(subject, object, action) {
				next.ServeHTTP(w, r)
				return
			}

			status := http.StatusForbidden
			if subject == "" {
				status = http.StatusUnauthorized
			}
			logging.Ctx(r.Context()).Debug().
				Str("subject", subject).
				Str("object", object).
				Str("action", action).
				Int("status", status).
				Msg("Request denied")
			m.deny(w, r, status)
		})
	}
}
