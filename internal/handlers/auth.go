package handlers

import (
	"net/http"

	"inquill/internal/api"
	"inquill/internal/auth"
	"inquill/internal/middleware"
)

func (h API) Register(w http.ResponseWriter, r *http.Request) {
	var p registerPayload
	if !bind(w, r, &p) {
		return
	}
	sess, err := h.Auth.Register(r.Context(), p.RegisterRequest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.SetAuthCookie(w, h.Cookies, sess.Response.Token, sess.TTL)
	writeJSON(w, http.StatusCreated, sess.Response)
}

func (h API) Login(w http.ResponseWriter, r *http.Request) {
	var p loginPayload
	if !bind(w, r, &p) {
		return
	}
	sess, err := h.Auth.Login(r.Context(), p.LoginRequest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.SetAuthCookie(w, h.Cookies, sess.Response.Token, sess.TTL)
	writeJSON(w, http.StatusOK, sess.Response)
}

// Logout always clears the cookie, signed in or not.
func (h API) Logout(w http.ResponseWriter, r *http.Request) {
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		h.Auth.Logout(r.Context(), claims)
	}
	middleware.ClearAuthCookie(w, h.Cookies)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h API) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	u, err := h.Auth.Me(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.MeResponse{User: u})
}

func (h API) Refresh(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	sess, err := h.Auth.Refresh(r.Context(), claims, user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.SetAuthCookie(w, h.Cookies, sess.Response.Token, sess.TTL)
	writeJSON(w, http.StatusOK, api.RefreshResponse{Token: sess.Response.Token, ExpiresAt: sess.Response.ExpiresAt})
}
