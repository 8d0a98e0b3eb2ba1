// Package discovery answers the two lookup questions of the admin panel:
// which directories exist below the configured base, and which system
// accounts match the operator's filter.
package discovery

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/hnrobert/ftpmgr/internal/hostfs"
	"github.com/hnrobert/ftpmgr/internal/model"
	"github.com/hnrobert/ftpmgr/internal/usermgr"
)

const DefaultMaxDepth = 4

type Service struct {
	MaxDepth     int
	IdentityFile string
}

func New(maxDepth int, identityFile string) *Service {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if identityFile == "" {
		identityFile = "/" + hostfs.EtcPasswdRel
	}
	return &Service{MaxDepth: maxDepth, IdentityFile: identityFile}
}

// Directories lists directories below the operator's base dir.
func (s *Service) Directories(p model.Preferences) ([]string, error) {
	return ListDirectories(p.BaseDir, p.ExcludeList(), s.MaxDepth)
}

// SystemUsers lists identity names matching the operator's pattern.
func (s *Service) SystemUsers(p model.Preferences) ([]string, error) {
	return ListIdentities(s.IdentityFile, p.SystemUserRegexp)
}

type frame struct {
	dir   string
	depth int
}

// ListDirectories walks base (a host path) up to maxDepth levels deep and
// returns every directory found, base itself excluded, in depth-first
// order with siblings sorted by name. A directory whose path contains any
// of excludes is skipped together with its subtree. Symlinks are not
// followed and unreadable subdirectories are reported but not entered.
func ListDirectories(base string, excludes []string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	local, err := hostfs.Abs(base)
	if err != nil {
		return []string{}, &Error{Kind: KindNotFound, Path: base, Err: err}
	}
	st, err := os.Stat(local)
	if err != nil || !st.IsDir() {
		if err != nil && errors.Is(err, fs.ErrPermission) {
			return []string{}, &Error{Kind: KindPermissionDenied, Path: base, Err: err}
		}
		return []string{}, &Error{Kind: KindNotFound, Path: base, Err: err}
	}
	if _, err := os.ReadDir(local); err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return []string{}, &Error{Kind: KindPermissionDenied, Path: base, Err: err}
		}
		return []string{}, &Error{Kind: KindNotFound, Path: base, Err: err}
	}

	out := []string{}
	stack := []frame{{dir: local, depth: 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(cur.dir)
		if err != nil {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		var next []frame
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			full := filepath.Join(cur.dir, e.Name())
			host := hostfs.ToHost(full)
			if excluded(host, excludes) {
				continue
			}
			out = append(out, host)
			if cur.depth+1 < maxDepth {
				next = append(next, frame{dir: full, depth: cur.depth + 1})
			}
		}
		// Push in reverse so the smallest name is visited first.
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}
	return out, nil
}

func excluded(path string, excludes []string) bool {
	for _, ex := range excludes {
		if ex != "" && strings.Contains(path, ex) {
			return true
		}
	}
	return false
}

// ListIdentities returns the first field of every record in the
// colon-delimited file at path (a host path) that fully matches pattern,
// in file order.
func ListIdentities(path, pattern string) ([]string, error) {
	local, err := hostfs.Abs(path)
	if err != nil {
		return []string{}, &Error{Kind: KindNotFound, Path: path, Err: err}
	}
	b, err := hostfs.ReadFile(local)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return []string{}, &Error{Kind: KindPermissionDenied, Path: path, Err: err}
		}
		return []string{}, &Error{Kind: KindNotFound, Path: path, Err: err}
	}

	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return []string{}, &Error{Kind: KindInvalidPattern, Path: path, Err: err}
	}

	records, err := usermgr.ReadRecords(bytes.NewReader(b))
	if err != nil {
		return []string{}, &Error{Kind: KindNotFound, Path: path, Err: err}
	}
	out := []string{}
	for _, rec := range records {
		name := strings.TrimSpace(rec[0])
		if name != "" && re.MatchString(name) {
			out = append(out, name)
		}
	}
	return out, nil
}
