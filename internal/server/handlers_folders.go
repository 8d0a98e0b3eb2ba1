package server

import (
	"net/http"

	"github.com/hnrobert/ftpmgr/internal/logger"
	"github.com/hnrobert/ftpmgr/internal/model"
)

type folderRequest struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

type folderResponse struct {
	model.Folder
	DescriptionHTML string `json:"description_html"`
}

func newFolderResponse(f model.Folder) folderResponse {
	return folderResponse{Folder: f, DescriptionHTML: renderMarkdown(f.Description)}
}

func (a *App) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := a.store.ListFolders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]folderResponse, 0, len(folders))
	for _, f := range folders {
		out = append(out, newFolderResponse(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req folderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := a.store.CreateFolder(r.Context(), model.Folder{Name: req.Name, Path: req.Path, Description: req.Description})
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("operator %s created folder %s", usernameFrom(r), f.Path)
	writeJSON(w, http.StatusCreated, newFolderResponse(f))
}

func (a *App) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := a.store.GetFolder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newFolderResponse(f))
}

func (a *App) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req folderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	f, err := a.store.UpdateFolder(r.Context(), model.Folder{ID: id, Name: req.Name, Path: req.Path, Description: req.Description})
	if err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("operator %s updated folder %s", usernameFrom(r), f.Path)
	writeJSON(w, http.StatusOK, newFolderResponse(f))
}

func (a *App) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.store.DeleteFolder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	logger.Info("operator %s deleted folder %d", usernameFrom(r), id)
	w.WriteHeader(http.StatusNoContent)
}
