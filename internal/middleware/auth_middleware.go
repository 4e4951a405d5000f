/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"jesstore/internal/apperr"
	"jesstore/internal/entity"

	"github.com/gorilla/sessions"
)

const SessionName = "auth-session"

// Session values
const (
	SessionUserID   = "user_id"
	SessionUsername = "username"
)

type contextKey string

const userKey contextKey = "user"

// AuthMiddleware lets the request through only with a valid session, putting the session user in the request context
func AuthMiddleware(store sessions.Store, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := store.Get(r, SessionName)
		if err != nil { // Tampered or expired cookie, same as no session
			unauthorized(w)
			return
		}
		userID, ok1 := session.Values[SessionUserID].(string)
		username, ok2 := session.Values[SessionUsername].(string)

		if !(ok1 && ok2) || userID == "" {
			unauthorized(w)
			return
		}

		user := entity.User{
			ID:       userID,
			Username: username,
		}
		next(w, r.WithContext(WithUser(r.Context(), user)))
	}
}

// WithUser stores the logged user in ctx
func WithUser(ctx context.Context, user entity.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the user AuthMiddleware stored, ok=false outside of it
func CurrentUser(ctx context.Context) (entity.User, bool) {
	user, ok := ctx.Value(userKey).(entity.User)
	return user, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": apperr.PublicMessage(apperr.ErrNotLoggedIn)})
}
