package db

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"easynetes/internal/models"
)

type settingRow struct {
	bun.BaseModel `bun:"table:integration_settings,alias:s"`

	Kind          string    `bun:"kind,pk,type:varchar(32)"`
	URL           string    `bun:"url,type:varchar(512)"`
	Username      string    `bun:"username,type:varchar(64)"`
	Token         string    `bun:"token,type:varchar(256)"`
	DefaultBranch string    `bun:"default_branch,type:varchar(128)"`
	Enabled       bool      `bun:"enabled,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,notnull"`
}

func (r *settingRow) toModel() models.IntegrationSettings {
	return models.IntegrationSettings{
		Kind:          r.Kind,
		URL:           r.URL,
		Username:      r.Username,
		Token:         r.Token,
		DefaultBranch: r.DefaultBranch,
		Enabled:       r.Enabled,
		UpdatedTime:   models.NewTimestamp(r.UpdatedAt),
	}
}

// SettingsStore persists Jenkins and Git integration settings, one row per kind.
type SettingsStore struct {
	db *bun.DB
}

// Get returns the stored settings. An unconfigured kind yields empty settings.
func (s *SettingsStore) Get(ctx context.Context, kind string) (models.IntegrationSettings, error) {
	if !models.IsIntegrationKind(kind) {
		return models.IntegrationSettings{}, ErrInvalidKind
	}
	row := new(settingRow)
	err := s.db.NewSelect().Model(row).Where("s.kind = ?", kind).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(MapDBError(err), ErrNotFound) {
			return models.IntegrationSettings{Kind: kind}, nil
		}
		return models.IntegrationSettings{}, MapDBError(err)
	}
	return row.toModel(), nil
}

// Put stores in under its kind. A masked token keeps the stored secret.
func (s *SettingsStore) Put(ctx context.Context, in models.IntegrationSettings) (models.IntegrationSettings, error) {
	if !models.IsIntegrationKind(in.Kind) {
		return models.IntegrationSettings{}, ErrInvalidKind
	}
	row := &settingRow{
		Kind:          in.Kind,
		URL:           in.URL,
		Username:      in.Username,
		Token:         in.Token,
		DefaultBranch: in.DefaultBranch,
		Enabled:       in.Enabled,
		UpdatedAt:     time.Now().Truncate(time.Second),
	}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := new(settingRow)
		err := tx.NewSelect().Model(existing).Where("s.kind = ?", in.Kind).Limit(1).Scan(ctx)
		switch {
		case err == nil:
			if row.Token == models.MaskedSecret {
				row.Token = existing.Token
			}
			_, err = tx.NewUpdate().Model(row).WherePK().Exec(ctx)
			return MapDBError(err)
		case errors.Is(MapDBError(err), ErrNotFound):
			if row.Token == models.MaskedSecret {
				row.Token = ""
			}
			_, err = tx.NewInsert().Model(row).Exec(ctx)
			return MapDBError(err)
		default:
			return MapDBError(err)
		}
	})
	if err != nil {
		return models.IntegrationSettings{}, err
	}
	return row.toModel(), nil
}
