package server

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/hnrobert/ftpmgr/internal/model"
)

type profileRequest struct {
	BaseDir          string `json:"basedir"`
	ExcludeDirs      string `json:"exclude_dirs"`
	SystemUserRegexp string `json:"systemuser_regexp"`
}

func (a *App) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.Preferences(r.Context(), usernameFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *App) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := regexp.Compile(req.SystemUserRegexp); err != nil {
		writeError(w, r, fmt.Errorf("%w: systemuser_regexp: %v", errBadRequest, err))
		return
	}
	p, err := a.store.UpdatePreferences(r.Context(), model.Preferences{
		Operator:         usernameFrom(r),
		BaseDir:          req.BaseDir,
		ExcludeDirs:      req.ExcludeDirs,
		SystemUserRegexp: req.SystemUserRegexp,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type directoriesResponse struct {
	Directories []string `json:"directories"`
	Error       string   `json:"error,omitempty"`
}

type systemUsersResponse struct {
	Users []string `json:"users"`
	Error string   `json:"error,omitempty"`
}

// Discovery failures are reported in the body with status 200 so the
// picker can show them inline.
func (a *App) handleDiscoverDirectories(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.Preferences(r.Context(), usernameFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	dirs, err := a.discovery.Directories(p)
	resp := directoriesResponse{Directories: dirs}
	if resp.Directories == nil {
		resp.Directories = []string{}
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleDiscoverSystemUsers(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.Preferences(r.Context(), usernameFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	users, err := a.discovery.SystemUsers(p)
	resp := systemUsersResponse{Users: users}
	if resp.Users == nil {
		resp.Users = []string{}
	}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}
