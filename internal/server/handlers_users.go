package server

import (
	"fmt"
	"net/http"

	"github.com/hnrobert/ftpmgr/internal/logger"
	"github.com/hnrobert/ftpmgr/internal/model"
	"github.com/hnrobert/ftpmgr/internal/store"
)

type userRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	SystemUser string `json:"systemuser"`
	Active     *bool  `json:"is_active"`
}

type userResponse struct {
	model.User
	HasPassword bool           `json:"has_password"`
	Access      []model.Access `json:"access,omitempty"`
}

// changes hashes the password when one is given. An omitted password
// leaves PasswordHash empty, which the store treats as "keep".
func (a *App) changes(req userRequest, activeDefault bool) (store.UserChanges, error) {
	c := store.UserChanges{Username: req.Username, SystemUser: req.SystemUser, Active: activeDefault}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if req.Password != "" {
		h, err := a.hasher.Hash(req.Password)
		if err != nil {
			return c, err
		}
		c.PasswordHash = h
	}
	return c, nil
}

func (a *App) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.store.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{User: u, HasPassword: u.HasPassword()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := a.changes(req, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := a.store.CreateUser(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("operator %s created ftp user %s", usernameFrom(r), u.Username)
	writeJSON(w, http.StatusCreated, userResponse{User: u, HasPassword: u.HasPassword()})
}

func (a *App) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := a.store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	access, err := a.store.AccessForUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u, HasPassword: u.HasPassword(), Access: access})
}

func (a *App) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cur, err := a.store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Username == "" {
		req.Username = cur.Username
	}
	if req.SystemUser == "" {
		req.SystemUser = cur.SystemUser
	}
	c, err := a.changes(req, cur.Active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	u, err := a.store.UpdateUser(r.Context(), id, c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("operator %s updated ftp user %s", usernameFrom(r), u.Username)
	writeJSON(w, http.StatusOK, userResponse{User: u, HasPassword: u.HasPassword()})
}

func (a *App) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.store.DeleteUser(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("operator %s deleted ftp user %d", usernameFrom(r), id)
	w.WriteHeader(http.StatusNoContent)
}

type accessRequest struct {
	// Access maps folder ids to "read", "write" or "none".
	Access map[int64]string `json:"access"`
}

func (a *App) handleReplaceAccess(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req accessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rules := map[int64]model.Permission{}
	for folderID, v := range req.Access {
		if v == "" || v == "none" {
			continue
		}
		p, err := model.ParsePermission(v)
		if err != nil {
			writeError(w, r, fmt.Errorf("folder %d: %w", folderID, err))
			return
		}
		rules[folderID] = p
	}
	if err := a.store.ReplaceAccess(r.Context(), id, rules); err != nil {
		writeError(w, r, err)
		return
	}
	access, err := a.store.AccessForUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, access)
}

func (a *App) handleRevokeAccess(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	folderID, err := int64Param(r, "folderID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.store.RevokeAccess(r.Context(), id, folderID); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("operator %s revoked access of ftp user %d on folder %d", usernameFrom(r), id, folderID)
	w.WriteHeader(http.StatusNoContent)
}
