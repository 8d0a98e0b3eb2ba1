package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"

	"github.com/hnrobert/ftpmgr/internal/model"
	"github.com/hnrobert/ftpmgr/internal/usermgr"
)

// UserChanges carries the editable fields of an FTP user. An empty
// PasswordHash leaves the stored hash untouched.
type UserChanges struct {
	Username     string
	SystemUser   string
	Active       bool
	PasswordHash string
}

func (c *UserChanges) normalize() error {
	c.Username = strings.TrimSpace(c.Username)
	c.SystemUser = strings.TrimSpace(c.SystemUser)
	if !usermgr.ValidUsername(c.Username) {
		return fmt.Errorf("%w: %q", ErrInvalidUsername, c.Username)
	}
	if c.SystemUser == "" {
		c.SystemUser = model.DefaultSystemUser
	}
	if strings.ContainsAny(c.SystemUser, ":\n") {
		return fmt.Errorf("%w: system user %q", ErrInvalidUsername, c.SystemUser)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return listUsers(ctx, s.db)
}

func listUsers(ctx context.Context, db bun.IDB) ([]model.User, error) {
	var rows []userRow
	if err := db.NewSelect().Model(&rows).Order("username ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", MapDBError(err))
	}
	out := make([]model.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.User{}, fmt.Errorf("get user %d: %w", id, MapDBError(err))
	}
	return row.toModel(), nil
}

func (s *Store) GetUserByName(ctx context.Context, username string) (model.User, error) {
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where("username = ?", username).Limit(1).Scan(ctx); err != nil {
		return model.User{}, fmt.Errorf("get user %q: %w", username, MapDBError(err))
	}
	return row.toModel(), nil
}

// CreateUser inserts a new FTP user. The hash is stored as given and may be
// empty until a secret is set.
func (s *Store) CreateUser(ctx context.Context, c UserChanges) (model.User, error) {
	if err := c.normalize(); err != nil {
		return model.User{}, err
	}
	ts := now()
	row := &userRow{
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		SystemUser:   c.SystemUser,
		IsActive:     c.Active,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return model.User{}, fmt.Errorf("create user %q: %w", c.Username, MapDBError(err))
	}
	return row.toModel(), nil
}

// UpdateUser rewrites the editable fields of user id. The password hash is
// only replaced when c.PasswordHash is non-empty.
func (s *Store) UpdateUser(ctx context.Context, id int64, c UserChanges) (model.User, error) {
	if err := c.normalize(); err != nil {
		return model.User{}, err
	}
	row := &userRow{
		ID:           id,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		SystemUser:   c.SystemUser,
		IsActive:     c.Active,
		UpdatedAt:    now(),
	}
	cols := []string{"username", "systemuser", "is_active", "updated_at"}
	if c.PasswordHash != "" {
		cols = append(cols, "password_hash")
	}
	res, err := s.db.NewUpdate().Model(row).Column(cols...).WherePK().Exec(ctx)
	if err != nil {
		return model.User{}, fmt.Errorf("update user %d: %w", id, MapDBError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.User{}, fmt.Errorf("update user %d: %w", id, ErrNotFound)
	}
	return s.GetUser(ctx, id)
}

// SetPassword replaces the stored hash of the named user.
func (s *Store) SetPassword(ctx context.Context, username, hash string) error {
	if hash == "" {
		return fmt.Errorf("set password for %q: empty hash", username)
	}
	res, err := s.db.NewUpdate().Model((*userRow)(nil)).
		Set("password_hash = ?", hash).
		Set("updated_at = ?", now()).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set password for %q: %w", username, MapDBError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set password for %q: %w", username, ErrNotFound)
	}
	return nil
}

// DeleteUser removes the user together with its access rules.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*accessRow)(nil)).Where("user_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete access of user %d: %w", id, MapDBError(err))
		}
		res, err := tx.NewDelete().Model((*userRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete user %d: %w", id, MapDBError(err))
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("delete user %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
