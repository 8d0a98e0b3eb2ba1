package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hnrobert/ftpmgr/internal/auth"
	"github.com/hnrobert/ftpmgr/internal/logger"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "username and password are required"})
		return
	}

	if err := a.operators.Login(r.Context(), req.Username, req.Password); err != nil {
		logger.Warn("login failed for %s from %s: %v", req.Username, r.RemoteAddr, err)
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrNotAdmin) {
			status = http.StatusForbidden
		}
		writeJSON(w, status, errorBody{Error: auth.HumanAuthError(err)})
		return
	}

	token, err := auth.IssueSession(a.secret, req.Username, true, a.ttl)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a.issueCookie(w, token)
	logger.Info("operator %s logged in", req.Username)
	writeJSON(w, http.StatusOK, loginResponse{Username: req.Username, Token: token})
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	a.clearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	st, err := a.store.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
