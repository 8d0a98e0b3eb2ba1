package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/hnrobert/ftpmgr/internal/model"
)

type userRow struct {
	bun.BaseModel `bun:"table:ftp_users"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Username      string    `bun:"username"`
	PasswordHash  string    `bun:"password_hash"`
	SystemUser    string    `bun:"systemuser"`
	IsActive      bool      `bun:"is_active"`
	CreatedAt     time.Time `bun:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at"`
}

func (r userRow) toModel() model.User {
	return model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		SystemUser:   r.SystemUser,
		Active:       r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type folderRow struct {
	bun.BaseModel `bun:"table:folders"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name"`
	Path          string    `bun:"path"`
	Description   string    `bun:"description"`
	CreatedAt     time.Time `bun:"created_at"`
}

func (r folderRow) toModel() model.Folder {
	return model.Folder{ID: r.ID, Name: r.Name, Path: r.Path, Description: r.Description, CreatedAt: r.CreatedAt}
}

type accessRow struct {
	bun.BaseModel `bun:"table:folder_access"`
	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id"`
	FolderID      int64     `bun:"folder_id"`
	Permission    string    `bun:"permission"`
	CreatedAt     time.Time `bun:"created_at"`
}

func (r accessRow) toModel() model.Access {
	return model.Access{
		ID:         r.ID,
		UserID:     r.UserID,
		FolderID:   r.FolderID,
		Permission: model.Permission(r.Permission),
		CreatedAt:  r.CreatedAt,
	}
}

type prefsRow struct {
	bun.BaseModel    `bun:"table:operator_preferences"`
	Operator         string `bun:"operator,pk"`
	BaseDir          string `bun:"basedir"`
	ExcludeDirs      string `bun:"exclude_dirs"`
	SystemUserRegexp string `bun:"systemuser_regexp"`
}

func (r prefsRow) toModel() model.Preferences {
	return model.Preferences{
		Operator:         r.Operator,
		BaseDir:          r.BaseDir,
		ExcludeDirs:      r.ExcludeDirs,
		SystemUserRegexp: r.SystemUserRegexp,
	}
}

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
