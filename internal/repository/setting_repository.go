package repository

import (
	"context"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingRepository interface {
	GetAll(ctx context.Context, institutionID int) ([]model.AppSetting, error)
	GetByKey(ctx context.Context, institutionID int, key string) (*model.AppSetting, error)
	Upsert(ctx context.Context, institutionID int, key, value string) error
}

type settingRepository struct {
	pool *pgxpool.Pool
}

func NewSettingRepository(pool *pgxpool.Pool) SettingRepository {
	return &settingRepository{pool: pool}
}

func (r *settingRepository) GetAll(ctx context.Context, institutionID int) ([]model.AppSetting, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT institution_id, key, value, updated_at FROM app_settings WHERE institution_id = $1 ORDER BY key ASC`,
		institutionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := []model.AppSetting{}
	for rows.Next() {
		var s model.AppSetting
		if err := rows.Scan(&s.InstitutionID, &s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

func (r *settingRepository) Upsert(ctx context.Context, institutionID int, key, value string) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO app_settings (institution_id, key, value, updated_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (institution_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		institutionID, key, value)
	return err
}

func (r *settingRepository) GetByKey(ctx context.Context, institutionID int, key string) (*model.AppSetting, error) {
	s := &model.AppSetting{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT institution_id, key, value, updated_at FROM app_settings WHERE institution_id = $1 AND key = $2`,
		institutionID, key).Scan(&s.InstitutionID, &s.Key, &s.Value, &s.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}
