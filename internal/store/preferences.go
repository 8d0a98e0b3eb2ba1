package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hnrobert/ftpmgr/internal/model"
)

// Preferences returns the operator's discovery settings, creating the
// defaults on first access.
func (s *Store) Preferences(ctx context.Context, operator string) (model.Preferences, error) {
	var row prefsRow
	err := s.db.NewSelect().Model(&row).Where("operator = ?", operator).Limit(1).Scan(ctx)
	if err == nil {
		return row.toModel(), nil
	}
	if err = MapDBError(err); !errors.Is(err, ErrNotFound) {
		return model.Preferences{}, fmt.Errorf("preferences of %q: %w", operator, err)
	}

	def := model.DefaultPreferences(operator)
	row = prefsRow{
		Operator:         def.Operator,
		BaseDir:          def.BaseDir,
		ExcludeDirs:      def.ExcludeDirs,
		SystemUserRegexp: def.SystemUserRegexp,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		// Lost a race with a concurrent first read.
		if errors.Is(MapDBError(err), ErrDuplicate) {
			return s.Preferences(ctx, operator)
		}
		return model.Preferences{}, fmt.Errorf("create preferences of %q: %w", operator, MapDBError(err))
	}
	return def, nil
}

func (s *Store) UpdatePreferences(ctx context.Context, p model.Preferences) (model.Preferences, error) {
	if _, err := s.Preferences(ctx, p.Operator); err != nil {
		return model.Preferences{}, err
	}
	p.BaseDir = strings.TrimSpace(p.BaseDir)
	if !strings.HasPrefix(p.BaseDir, "/") {
		return model.Preferences{}, fmt.Errorf("%w: %q", ErrInvalidPath, p.BaseDir)
	}
	row := &prefsRow{
		Operator:         p.Operator,
		BaseDir:          p.BaseDir,
		ExcludeDirs:      p.ExcludeDirs,
		SystemUserRegexp: p.SystemUserRegexp,
	}
	if _, err := s.db.NewUpdate().Model(row).Column("basedir", "exclude_dirs", "systemuser_regexp").WherePK().Exec(ctx); err != nil {
		return model.Preferences{}, fmt.Errorf("update preferences of %q: %w", p.Operator, MapDBError(err))
	}
	return row.toModel(), nil
}
