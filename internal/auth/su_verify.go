package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/creack/pty"
)

var ErrAuthBackend = errors.New("auth backend error")

const suTimeout = 6 * time.Second

// suCommand builds the su(1) invocation. Tests replace it.
var suCommand = func(ctx context.Context, username string) *exec.Cmd {
	return exec.CommandContext(ctx, "su", "-s", "/bin/sh", "-c", "true", username)
}

// promptAnswerer collects terminal output and writes the password once a
// password prompt shows up.
type promptAnswerer struct {
	mu       sync.Mutex
	seen     bytes.Buffer
	answered bool
	password string
	tty      io.Writer
}

func (p *promptAnswerer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen.Write(b)
	if !p.answered && strings.Contains(strings.ToLower(p.seen.String()), "password") {
		p.answered = true
		if _, err := io.WriteString(p.tty, p.password+"\n"); err != nil {
			return len(b), err
		}
	}
	return len(b), nil
}

// verifyWithSu checks a password by running su(1) for username on a pty.
// A non-zero exit means the password was rejected.
func verifyWithSu(ctx context.Context, username, password string) (bool, error) {
	if strings.TrimSpace(username) == "" || strings.HasPrefix(username, "-") {
		return false, ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, suTimeout)
	defer cancel()

	cmd := suCommand(ctx, username)
	tty, err := pty.Start(cmd)
	if err != nil {
		return false, fmt.Errorf("%w: start su: %v", ErrAuthBackend, err)
	}
	defer func() { _ = tty.Close() }()

	copied := make(chan struct{})
	go func() {
		defer close(copied)
		// Reading the pty fails with EIO once su exits.
		_, _ = io.Copy(&promptAnswerer{password: password, tty: tty}, tty)
	}()

	waitErr := cmd.Wait()
	_ = tty.Close()
	<-copied

	switch {
	case waitErr == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, fmt.Errorf("%w: su timed out", ErrAuthBackend)
	default:
		return false, nil
	}
}
