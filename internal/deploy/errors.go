package deploy

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidationFailed = errors.New("configuration validation failed")
	ErrRestartFailed    = errors.New("service restart failed")
	ErrLocked           = errors.New("another deployment holds the lock")
)

const (
	OpValidate = "validate"
	OpRestart  = "restart"
)

// CommandError describes a failed external command, with its combined
// output.
type CommandError struct {
	Op     string
	Argv   []string
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %s: %v", e.Op, strings.Join(e.Argv, " "), e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

func (e *CommandError) Is(target error) bool {
	switch target {
	case ErrValidationFailed:
		return e.Op == OpValidate
	case ErrRestartFailed:
		return e.Op == OpRestart
	}
	return false
}

// TargetError is a failure to read or write one artifact.
type TargetError struct {
	Path string
	Op   string
	Err  error
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *TargetError) Unwrap() error { return e.Err }
