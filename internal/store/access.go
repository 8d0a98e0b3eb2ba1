package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/uptrace/bun"

	"github.com/hnrobert/ftpmgr/internal/model"
)

func (s *Store) ListAccess(ctx context.Context) ([]model.Access, error) {
	return listAccess(ctx, s.db)
}

func listAccess(ctx context.Context, db bun.IDB) ([]model.Access, error) {
	var rows []accessRow
	if err := db.NewSelect().Model(&rows).Order("user_id ASC", "folder_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list access: %w", MapDBError(err))
	}
	out := make([]model.Access, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *Store) AccessForUser(ctx context.Context, userID int64) ([]model.Access, error) {
	var rows []accessRow
	if err := s.db.NewSelect().Model(&rows).Where("user_id = ?", userID).Order("folder_id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list access of user %d: %w", userID, MapDBError(err))
	}
	out := make([]model.Access, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

// SetAccess grants perm on a folder, replacing any existing rule for the
// same user and folder.
func (s *Store) SetAccess(ctx context.Context, userID, folderID int64, perm model.Permission) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := deleteRule(ctx, tx, userID, folderID); err != nil {
			return err
		}
		return insertRule(ctx, tx, userID, folderID, perm)
	})
}

// RevokeAccess removes the rule of one user on one folder. ErrNotFound
// means there was no such rule.
func (s *Store) RevokeAccess(ctx context.Context, userID, folderID int64) error {
	res, err := s.db.NewDelete().Model((*accessRow)(nil)).
		Where("user_id = ?", userID).
		Where("folder_id = ?", folderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("revoke access: %w", MapDBError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("revoke access of user %d on folder %d: %w", userID, folderID, ErrNotFound)
	}
	return nil
}

// ReplaceAccess clears every rule of the user and installs rules. A folder
// absent from rules ends up with no access.
func (s *Store) ReplaceAccess(ctx context.Context, userID int64, rules map[int64]model.Permission) error {
	folderIDs := make([]int64, 0, len(rules))
	for id := range rules {
		folderIDs = append(folderIDs, id)
	}
	sort.Slice(folderIDs, func(i, j int) bool { return folderIDs[i] < folderIDs[j] })

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		n, err := tx.NewSelect().Model((*userRow)(nil)).Where("id = ?", userID).Count(ctx)
		if err != nil {
			return fmt.Errorf("replace access of user %d: %w", userID, MapDBError(err))
		}
		if n == 0 {
			return fmt.Errorf("replace access of user %d: %w", userID, ErrNotFound)
		}
		if _, err := tx.NewDelete().Model((*accessRow)(nil)).Where("user_id = ?", userID).Exec(ctx); err != nil {
			return fmt.Errorf("replace access of user %d: %w", userID, MapDBError(err))
		}
		for _, fid := range folderIDs {
			if err := insertRule(ctx, tx, userID, fid, rules[fid]); err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteRule(ctx context.Context, db bun.IDB, userID, folderID int64) error {
	_, err := db.NewDelete().Model((*accessRow)(nil)).
		Where("user_id = ?", userID).
		Where("folder_id = ?", folderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("revoke access %d/%d: %w", userID, folderID, MapDBError(err))
	}
	return nil
}

func insertRule(ctx context.Context, db bun.IDB, userID, folderID int64, perm model.Permission) error {
	perm, err := model.ParsePermission(string(perm))
	if err != nil {
		return fmt.Errorf("grant access %d/%d: %w", userID, folderID, err)
	}
	row := &accessRow{UserID: userID, FolderID: folderID, Permission: string(perm), CreatedAt: now()}
	if _, err := db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return fmt.Errorf("grant access %d/%d: %w", userID, folderID, MapDBError(err))
	}
	return nil
}
