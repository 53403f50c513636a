// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// Ident sources, checked in this order.
const (
	HeaderIdent = "X-BDRS-Ident"
	ParamIdent  = "ident"
)

// Identity is who a request acts as.
type Identity struct {
	// User is nil for anonymous requests.
	User   *models.User
	Viewer database.Viewer
}

// Role is the casbin subject for the identity. Users without an explicit
// role are plain users.
func (i Identity) Role() string {
	if i.User == nil {
		return ""
	}
	if i.User.Role == "" {
		return models.RoleUser
	}
	return i.User.Role
}

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity ResolveViewer stored, or the
// anonymous identity.
func IdentityFromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{Viewer: database.Anonymous}
}

func roleSubject(r *http.Request) string {
	return IdentityFromContext(r.Context()).Role()
}

func identKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(HeaderIdent)); key != "" {
		return key
	}
	// ParseForm reads urlencoded bodies only, so JSON bodies stay unread.
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return strings.TrimSpace(r.Form.Get(ParamIdent))
}

// ResolveViewer looks up the caller's ident and stores the Identity in the
// request context. Unknown or inactive idents browse anonymously.
func (h *Handler) ResolveViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := identKey(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := h.db.UserByRegistrationKey(r.Context(), key)
		switch {
		case errors.Is(err, database.ErrNotFound):
			logging.Ctx(r.Context()).Debug().Msg("Unknown ident, continuing anonymously")
			next.ServeHTTP(w, r)
			return
		case err != nil:
			respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "A database error occurred", err)
			return
		case !user.Active:
			next.ServeHTTP(w, r)
			return
		}

		id := Identity{User: user}
		id.Viewer = database.Viewer{UserID: &user.ID, SeeAll: h.enforcer.CanSeeAllRecords(id.Role())}

		ctx := withIdentity(r.Context(), id)
		l := logging.Ctx(ctx).With().Int64("user_id", user.ID).Logger()
		ctx = logging.ContextWithLogger(ctx, l)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
