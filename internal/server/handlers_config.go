package server

import (
	"errors"
	"net/http"

	"github.com/hnrobert/ftpmgr/internal/deploy"
	"github.com/hnrobert/ftpmgr/internal/logger"
	"github.com/hnrobert/ftpmgr/internal/render"
)

type previewResponse struct {
	Targets deploy.Targets `json:"targets"`
	render.Documents
}

func (a *App) handleConfigPreview(w http.ResponseWriter, r *http.Request) {
	docs, err := a.deployer.Documents(r.Context(), a.targets)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{Targets: a.targets, Documents: docs})
}

func (a *App) handleConfigDownload(w http.ResponseWriter, r *http.Request) {
	a.download(w, r, "proftpd.conf", func(d render.Documents) string { return d.Config })
}

func (a *App) handleUsersDownload(w http.ResponseWriter, r *http.Request) {
	a.download(w, r, "ftpd.passwd", func(d render.Documents) string { return d.Credentials })
}

func (a *App) download(w http.ResponseWriter, r *http.Request, name string, pick func(render.Documents) string) {
	docs, err := a.deployer.Documents(r.Context(), a.targets)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(pick(docs)))
}

type deployResponse struct {
	Result *deploy.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (a *App) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var opts deploy.Options
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &opts); err != nil {
			writeError(w, r, err)
			return
		}
	}

	res, err := a.deployer.Deploy(r.Context(), a.targets, opts)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, deploy.ErrValidationFailed):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, deploy.ErrRestartFailed):
			status = http.StatusBadGateway
		case errors.Is(err, deploy.ErrLocked):
			status = http.StatusConflict
		}
		logger.Error("deploy by %s failed: %v", usernameFrom(r), err)
		writeJSON(w, status, deployResponse{Result: res, Error: err.Error()})
		return
	}
	logger.Info("deploy %s by %s: changed=%t restart=%s", res.ID, usernameFrom(r), res.Changed, res.Restart.Status)
	writeJSON(w, http.StatusOK, deployResponse{Result: res})
}
