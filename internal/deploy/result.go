package deploy

import (
	"os"
	"time"

	"github.com/hnrobert/ftpmgr/internal/render"
)

type TargetKind string

const (
	KindConfig      TargetKind = "config"
	KindCredentials TargetKind = "credentials"
)

const (
	ConfigMode      os.FileMode = 0o644
	CredentialsMode os.FileMode = 0o600
	DirMode         os.FileMode = 0o755
)

type RestartStatus string

const (
	RestartNotRequested RestartStatus = "not-requested"
	RestartSkipped      RestartStatus = "skipped"
	RestartSucceeded    RestartStatus = "succeeded"
	RestartFailed       RestartStatus = "failed"
)

// TargetResult reports one artifact. ModeDrift is set when an unchanged
// file had other permissions than Mode; they are reset unless the run is a
// dry run.
type TargetResult struct {
	Kind      TargetKind  `json:"kind"`
	Path      string      `json:"path"`
	Existed   bool        `json:"existed"`
	Changed   bool        `json:"changed"`
	Written   bool        `json:"written"`
	Mode      os.FileMode `json:"mode"`
	ModeDrift bool        `json:"mode_drift,omitempty"`
	Err       error       `json:"-"`
	Error     string      `json:"error,omitempty"`
}

type Validation struct {
	Requested bool   `json:"requested"`
	Skipped   bool   `json:"skipped,omitempty"`
	Passed    bool   `json:"passed"`
	Output    string `json:"output,omitempty"`
}

type Restart struct {
	Status RestartStatus `json:"status"`
	Output string        `json:"output,omitempty"`
}

type Result struct {
	ID         string            `json:"id"`
	StartedAt  time.Time         `json:"started_at"`
	DryRun     bool              `json:"dry_run"`
	Targets    []TargetResult    `json:"targets"`
	Changed    bool              `json:"changed"`
	Validation Validation        `json:"validation"`
	Restart    Restart           `json:"restart"`
	Documents  *render.Documents `json:"documents,omitempty"`
}

func (r *Result) setTargetError(i int, err error) {
	r.Targets[i].Err = err
	r.Targets[i].Error = err.Error()
}
