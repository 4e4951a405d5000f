/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package handler

import (
	"net/http"

	"jesstore/internal/middleware"
	"jesstore/internal/service"

	"github.com/gorilla/sessions"
)

type authReqFields struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

// AuthHandler helps in managing user registration and authentication
type AuthHandler struct {
	authService service.AuthService
	cookieStore *sessions.CookieStore
}

func NewAuthHandler(authService service.AuthService, cookieStore *sessions.CookieStore) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookieStore: cookieStore,
	}
}

// Registers a user, answering with the new profile
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request authReqFields
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authService.Register(r.Context(), request.Username, request.DisplayName, request.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Authenticates a user, storing its id and username in the session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request authReqFields
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authService.Login(r.Context(), request.Username, request.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// A stale or forged cookie still yields a fresh session
	session, _ := h.cookieStore.Get(r, middleware.SessionName)
	session.Values[middleware.SessionUserID] = user.ID
	session.Values[middleware.SessionUsername] = user.Username
	if err := sessions.Save(r, w); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Logs a user out, expiring its session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.cookieStore.Get(r, middleware.SessionName)
	session.Values = map[any]any{}
	session.Options.MaxAge = -1
	sessions.Save(r, w)
	w.WriteHeader(http.StatusNoContent)
}
