// Package daemonctl runs the external commands that check and reload the
// FTP daemon.
package daemonctl

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultValidateCmd = "proftpd -t"
	DefaultRestartCmd  = "systemctl restart proftpd"
)

var ErrEmptyCommand = errors.New("empty command")

type Runner struct {
	// Timeout bounds a single command. Zero means no limit.
	Timeout time.Duration
}

func New(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Run executes argv and returns its combined stdout and stderr, trimmed.
// The output is returned even when the command fails.
func (r *Runner) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", ErrEmptyCommand
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return strings.TrimSpace(out.String()), err
}

// Split turns a configured command line into argv. Quoting is not
// interpreted.
func Split(cmdline string) []string {
	return strings.Fields(cmdline)
}
