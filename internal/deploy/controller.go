// Package deploy writes rendered ProFTPD artifacts to disk and activates
// them.
//
// A deployment renders both documents from one snapshot, rewrites only the
// files whose content differs (or every file when forced), optionally runs
// the daemon's config check, and restarts the daemon only when something
// was written.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hnrobert/ftpmgr/internal/daemonctl"
	"github.com/hnrobert/ftpmgr/internal/hostfs"
	"github.com/hnrobert/ftpmgr/internal/logger"
	"github.com/hnrobert/ftpmgr/internal/model"
	"github.com/hnrobert/ftpmgr/internal/render"
	"github.com/hnrobert/ftpmgr/internal/usermgr"
)

type SnapshotSource interface {
	Snapshot(ctx context.Context) (model.Snapshot, error)
}

type CommandRunner interface {
	Run(ctx context.Context, argv []string) (string, error)
}

// Targets are host paths of the two artifacts.
type Targets struct {
	ConfigPath string `json:"config_path"`
	PasswdPath string `json:"passwd_path"`
}

// NewTargets joins relative file names onto configDir. Absolute file names
// are used as given.
func NewTargets(configDir, configFile, passwdFile string) Targets {
	join := func(name string) string {
		if path.IsAbs(name) {
			return path.Clean(name)
		}
		return path.Join(configDir, name)
	}
	return Targets{ConfigPath: join(configFile), PasswdPath: join(passwdFile)}
}

type Options struct {
	DryRun   bool `json:"dry_run"`
	Force    bool `json:"force"`
	Validate bool `json:"validate"`
	Restart  bool `json:"restart"`
}

type Controller struct {
	Source SnapshotSource
	Runner CommandRunner
	// Render carries the static render options. PasswdPath and Owners are
	// filled per deployment.
	Render render.Options
	// IdentityFile is the host passwd database used to resolve system
	// account names to uid/gid.
	IdentityFile string
	ValidateCmd  []string
	RestartCmd   []string
	// LockFile, when set, serializes deployments across processes.
	LockFile string
}

func New(src SnapshotSource, runner CommandRunner, opts render.Options) *Controller {
	return &Controller{
		Source:       src,
		Runner:       runner,
		Render:       opts,
		IdentityFile: "/" + hostfs.EtcPasswdRel,
		ValidateCmd:  daemonctl.Split(daemonctl.DefaultValidateCmd),
		RestartCmd:   daemonctl.Split(daemonctl.DefaultRestartCmd),
	}
}

var pathLocks sync.Map

// lockPaths serializes deployments per target path. Paths are locked in
// sorted order so overlapping target pairs cannot deadlock.
func lockPaths(t Targets) func() {
	paths := []string{path.Clean(t.ConfigPath), path.Clean(t.PasswdPath)}
	sort.Strings(paths)
	if paths[0] == paths[1] {
		paths = paths[:1]
	}
	held := make([]*sync.Mutex, 0, len(paths))
	for _, p := range paths {
		v, _ := pathLocks.LoadOrStore(p, &sync.Mutex{})
		m := v.(*sync.Mutex)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Documents renders both artifacts for targets without touching them.
func (c *Controller) Documents(ctx context.Context, t Targets) (render.Documents, error) {
	snap, err := c.Source.Snapshot(ctx)
	if err != nil {
		return render.Documents{}, fmt.Errorf("snapshot: %w", err)
	}
	return c.renderer(t, snap).Render(snap), nil
}

func (c *Controller) renderer(t Targets, snap model.Snapshot) *render.Renderer {
	opts := c.Render
	opts.PasswdPath = t.PasswdPath
	opts.Owners = c.owners(snap)
	return render.New(opts)
}

// owners resolves non-numeric system users through the identity file.
// Unknown names fall back to the default ids.
func (c *Controller) owners(snap model.Snapshot) map[string]render.Owner {
	out := map[string]render.Owner{}
	if c.IdentityFile == "" {
		return out
	}
	local, err := hostfs.Abs(c.IdentityFile)
	if err != nil {
		return out
	}
	var pf *usermgr.PasswdFile
	for _, u := range snap.Users {
		if _, done := out[u.SystemUser]; done || u.SystemUser == "" {
			continue
		}
		if pf == nil {
			pf, err = usermgr.LoadPasswd(local)
			if err != nil {
				logger.Warn("deploy: cannot read identity file %s: %v", c.IdentityFile, err)
				return out
			}
		}
		if uid, gid, ok := pf.Owner(u.SystemUser); ok {
			out[u.SystemUser] = render.Owner{UID: uid, GID: gid}
		} else {
			logger.Warn("deploy: system user %q not found, using default ids", u.SystemUser)
		}
	}
	return out
}

// Deploy renders, compares and writes both artifacts, then validates and
// restarts as requested. The returned Result is populated even when an
// error is returned.
func (c *Controller) Deploy(ctx context.Context, t Targets, opts Options) (*Result, error) {
	unlock := lockPaths(t)
	defer unlock()

	if c.LockFile != "" && !opts.DryRun {
		release, err := acquireFileLock(ctx, c.LockFile)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	res := &Result{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		DryRun:    opts.DryRun,
		Restart:   Restart{Status: RestartNotRequested},
	}

	snap, err := c.Source.Snapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("snapshot: %w", err)
	}
	docs := c.renderer(t, snap).Render(snap)

	plan := []struct {
		kind    TargetKind
		path    string
		content string
		mode    fs.FileMode
	}{
		{KindConfig, t.ConfigPath, docs.Config, ConfigMode},
		{KindCredentials, t.PasswdPath, docs.Credentials, CredentialsMode},
	}

	var errs []error
	for i, p := range plan {
		res.Targets = append(res.Targets, TargetResult{Kind: p.kind, Path: p.path, Mode: p.mode})
		if err := c.applyTarget(res, i, p.content, opts); err != nil {
			res.setTargetError(i, err)
			errs = append(errs, err)
			logger.Error("deploy %s: %v", res.ID, err)
		}
		if res.Targets[i].Changed {
			res.Changed = true
		}
	}

	if opts.DryRun {
		res.Documents = &docs
		if opts.Validate {
			res.Validation = Validation{Requested: true, Skipped: true, Output: "dry run"}
		}
		if opts.Restart {
			res.Restart = Restart{Status: RestartSkipped, Output: "dry run"}
		}
		return res, errors.Join(errs...)
	}

	if len(errs) > 0 {
		if opts.Restart {
			res.Restart = Restart{Status: RestartSkipped, Output: "blocked by target failure"}
		}
		return res, errors.Join(errs...)
	}

	if opts.Validate {
		res.Validation.Requested = true
		out, err := c.Runner.Run(ctx, c.ValidateCmd)
		res.Validation.Output = out
		if err != nil {
			if opts.Restart {
				res.Restart = Restart{Status: RestartSkipped, Output: "blocked by failed validation"}
			}
			logger.Error("deploy %s: validation failed: %s", res.ID, out)
			return res, &CommandError{Op: OpValidate, Argv: c.ValidateCmd, Output: out, Err: err}
		}
		res.Validation.Passed = true
	}

	if opts.Restart {
		if !res.Changed {
			res.Restart = Restart{Status: RestartSkipped, Output: "no files changed"}
			logger.Info("deploy %s: restart skipped, no files changed", res.ID)
			return res, nil
		}
		out, err := c.Runner.Run(ctx, c.RestartCmd)
		if err != nil {
			res.Restart = Restart{Status: RestartFailed, Output: out}
			logger.Error("deploy %s: restart failed: %s", res.ID, out)
			return res, &CommandError{Op: OpRestart, Argv: c.RestartCmd, Output: out, Err: err}
		}
		res.Restart = Restart{Status: RestartSucceeded, Output: out}
		logger.Info("deploy %s: daemon restarted", res.ID)
	}
	return res, nil
}

func (c *Controller) applyTarget(res *Result, i int, content string, opts Options) error {
	tr := &res.Targets[i]
	local, err := hostfs.Abs(tr.Path)
	if err != nil {
		return &TargetError{Path: tr.Path, Op: "resolve", Err: err}
	}

	existing, err := hostfs.ReadFile(local)
	switch {
	case err == nil:
		tr.Existed = true
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		// A non-directory parent is reported by the mkdir below.
	default:
		return &TargetError{Path: tr.Path, Op: "read", Err: err}
	}

	tr.Changed = opts.Force || !tr.Existed || string(existing) != content
	if !tr.Changed {
		logger.Debug("deploy %s: %s unchanged", res.ID, tr.Path)
		return c.repairMode(res, tr, local, opts)
	}
	if opts.DryRun {
		return nil
	}

	if err := hostfs.EnsureDir(filepath.Dir(local), DirMode); err != nil {
		return &TargetError{Path: tr.Path, Op: "mkdir", Err: err}
	}
	if err := hostfs.WriteFileAtomic(local, []byte(content), tr.Mode); err != nil {
		return &TargetError{Path: tr.Path, Op: "write", Err: err}
	}
	tr.Written = true
	logger.Info("deploy %s: wrote %s (%s)", res.ID, tr.Path, tr.Kind)
	return nil
}

// repairMode resets the permissions of an unchanged target whose on-disk
// mode drifted from the required one. It never counts as a change.
func (c *Controller) repairMode(res *Result, tr *TargetResult, local string, opts Options) error {
	mode, err := hostfs.Mode(local)
	if err != nil {
		return &TargetError{Path: tr.Path, Op: "stat", Err: err}
	}
	if mode == tr.Mode {
		return nil
	}
	tr.ModeDrift = true
	if opts.DryRun {
		return nil
	}
	if err := hostfs.Chmod(local, tr.Mode); err != nil {
		return &TargetError{Path: tr.Path, Op: "chmod", Err: err}
	}
	logger.Warn("deploy %s: reset mode of %s from %#o to %#o", res.ID, tr.Path, mode, tr.Mode)
	return nil
}
