package store

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/uptrace/bun"

	"github.com/hnrobert/ftpmgr/internal/model"
)

func normalizeFolder(f *model.Folder) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Path = strings.TrimSpace(f.Path)
	if !strings.HasPrefix(f.Path, "/") || strings.ContainsAny(f.Path, "\n\r<>") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, f.Path)
	}
	f.Path = path.Clean(f.Path)
	if f.Name == "" {
		f.Name = path.Base(f.Path)
	}
	return nil
}

func (s *Store) ListFolders(ctx context.Context) ([]model.Folder, error) {
	return listFolders(ctx, s.db)
}

func listFolders(ctx context.Context, db bun.IDB) ([]model.Folder, error) {
	var rows []folderRow
	if err := db.NewSelect().Model(&rows).Order("path ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list folders: %w", MapDBError(err))
	}
	out := make([]model.Folder, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *Store) GetFolder(ctx context.Context, id int64) (model.Folder, error) {
	var row folderRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx); err != nil {
		return model.Folder{}, fmt.Errorf("get folder %d: %w", id, MapDBError(err))
	}
	return row.toModel(), nil
}

func (s *Store) CreateFolder(ctx context.Context, f model.Folder) (model.Folder, error) {
	if err := normalizeFolder(&f); err != nil {
		return model.Folder{}, err
	}
	row := &folderRow{Name: f.Name, Path: f.Path, Description: f.Description, CreatedAt: now()}
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return model.Folder{}, fmt.Errorf("create folder %q: %w", f.Path, MapDBError(err))
	}
	return row.toModel(), nil
}

func (s *Store) UpdateFolder(ctx context.Context, f model.Folder) (model.Folder, error) {
	if err := normalizeFolder(&f); err != nil {
		return model.Folder{}, err
	}
	row := &folderRow{ID: f.ID, Name: f.Name, Path: f.Path, Description: f.Description}
	res, err := s.db.NewUpdate().Model(row).Column("name", "path", "description").WherePK().Exec(ctx)
	if err != nil {
		return model.Folder{}, fmt.Errorf("update folder %d: %w", f.ID, MapDBError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports zero affected rows for a no-op update.
		if _, gerr := s.GetFolder(ctx, f.ID); gerr != nil {
			return model.Folder{}, gerr
		}
	}
	return s.GetFolder(ctx, f.ID)
}

// DeleteFolder removes the folder together with every access rule on it.
func (s *Store) DeleteFolder(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*accessRow)(nil)).Where("folder_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete access of folder %d: %w", id, MapDBError(err))
		}
		res, err := tx.NewDelete().Model((*folderRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete folder %d: %w", id, MapDBError(err))
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("delete folder %d: %w", id, ErrNotFound)
		}
		return nil
	})
}
