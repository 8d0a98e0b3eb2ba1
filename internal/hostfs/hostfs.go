package hostfs

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultRoot maps host paths onto themselves.
const DefaultRoot = "/"

var ErrInvalidPath = errors.New("invalid host path")

var (
	rootMu sync.RWMutex
	root   = DefaultRoot
)

// SetRoot changes the mount point of the host filesystem. An empty value
// resets it to DefaultRoot.
func SetRoot(r string) {
	rootMu.Lock()
	defer rootMu.Unlock()
	if strings.TrimSpace(r) == "" {
		root = DefaultRoot
		return
	}
	root = filepath.Clean(r)
}

func Root() string {
	rootMu.RLock()
	defer rootMu.RUnlock()
	return root
}

// Path joins the root with a relative path (no leading slash).
// Example with root /host: Path("etc/passwd") -> /host/etc/passwd
func Path(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	clean := filepath.Clean(rel)
	if clean == "." || clean == "" {
		return "", ErrInvalidPath
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return filepath.Join(Root(), clean), nil
}

// Abs maps an absolute host path into the local view of it.
func Abs(abs string) (string, error) {
	if abs == "" || !strings.HasPrefix(abs, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.Clean(abs)
	return filepath.Join(Root(), strings.TrimPrefix(clean, "/")), nil
}

// ToHost is the inverse of Abs: it strips the root from a local path so the
// result can be shown to operators and written into daemon configuration.
func ToHost(local string) string {
	r := Root()
	clean := filepath.Clean(local)
	if r == DefaultRoot {
		return clean
	}
	if clean == r {
		return "/"
	}
	if strings.HasPrefix(clean, r+"/") {
		return strings.TrimPrefix(clean, r)
	}
	return clean
}
