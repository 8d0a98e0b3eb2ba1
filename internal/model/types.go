package model

import (
	"errors"
	"strings"
	"time"
)

type Permission string

const (
	PermRead  Permission = "read"
	PermWrite Permission = "write"
)

var ErrInvalidPermission = errors.New("invalid permission")

// ParsePermission accepts the stored values plus the "readwrite" alias.
func ParsePermission(s string) (Permission, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return PermRead, nil
	case "write", "readwrite", "rw":
		return PermWrite, nil
	default:
		return "", ErrInvalidPermission
	}
}

func (p Permission) CanWrite() bool {
	return p == PermWrite
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	SystemUser   string    `json:"systemuser"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether a secret was ever set for the user.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

type Folder struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Access struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	FolderID   int64      `json:"folder_id"`
	Permission Permission `json:"permission"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Snapshot is a consistent read of the whole access model.
type Snapshot struct {
	Users   []User
	Folders []Folder
	Access  []Access
}

const (
	DefaultBaseDir          = "/main/"
	DefaultExcludeDirs      = "/keys/,.ssh"
	DefaultSystemUserRegexp = `.*\..*`
	DefaultSystemUser       = "1001"
)

// Preferences holds one operator's discovery settings.
type Preferences struct {
	Operator         string `json:"operator"`
	BaseDir          string `json:"basedir"`
	ExcludeDirs      string `json:"exclude_dirs"`
	SystemUserRegexp string `json:"systemuser_regexp"`
}

func DefaultPreferences(operator string) Preferences {
	return Preferences{
		Operator:         operator,
		BaseDir:          DefaultBaseDir,
		ExcludeDirs:      DefaultExcludeDirs,
		SystemUserRegexp: DefaultSystemUserRegexp,
	}
}

// ExcludeList splits ExcludeDirs on commas, trimming blanks and dropping empty items.
func (p Preferences) ExcludeList() []string {
	out := []string{}
	for _, part := range strings.Split(p.ExcludeDirs, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
