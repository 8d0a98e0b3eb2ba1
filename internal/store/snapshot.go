package store

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/hnrobert/ftpmgr/internal/model"
)

// Snapshot reads users, folders and access rules inside one transaction.
func (s *Store) Snapshot(ctx context.Context) (model.Snapshot, error) {
	var snap model.Snapshot
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if snap.Users, err = listUsers(ctx, tx); err != nil {
			return err
		}
		if snap.Folders, err = listFolders(ctx, tx); err != nil {
			return err
		}
		snap.Access, err = listAccess(ctx, tx)
		return err
	})
	if err != nil {
		return model.Snapshot{}, err
	}
	return snap, nil
}

type Stats struct {
	Users       int `json:"users"`
	ActiveUsers int `json:"active_users"`
	Folders     int `json:"folders"`
	AccessRules int `json:"access_rules"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var err error
	if st.Users, err = s.db.NewSelect().Model((*userRow)(nil)).Count(ctx); err != nil {
		return Stats{}, MapDBError(err)
	}
	if st.ActiveUsers, err = s.db.NewSelect().Model((*userRow)(nil)).Where("is_active = ?", true).Count(ctx); err != nil {
		return Stats{}, MapDBError(err)
	}
	if st.Folders, err = s.db.NewSelect().Model((*folderRow)(nil)).Count(ctx); err != nil {
		return Stats{}, MapDBError(err)
	}
	if st.AccessRules, err = s.db.NewSelect().Model((*accessRow)(nil)).Count(ctx); err != nil {
		return Stats{}, MapDBError(err)
	}
	return st, nil
}
