package service

import (
	"context"
	"errors"

	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/rs/zerolog"
)

// DefaultSettings are returned for keys an institution has not set yet.
var DefaultSettings = map[string]string{
	"opening_hours": "07:00-18:00",
	"contact_phone": "",
	"contact_email": "",
}

type SettingService struct {
	tx          repository.Transactor
	settingRepo repository.SettingRepository
	log         zerolog.Logger
}

func NewSettingService(tx repository.Transactor, settingRepo repository.SettingRepository, log zerolog.Logger) *SettingService {
	return &SettingService{
		tx:          tx,
		settingRepo: settingRepo,
		log:         log.With().Str("component", "setting_service").Logger(),
	}
}

func (s *SettingService) GetAllSettings(ctx context.Context, institutionID int) (map[string]string, error) {
	settingsList, err := s.settingRepo.GetAll(ctx, institutionID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get all settings")
		return nil, err
	}

	settingsMap := make(map[string]string, len(DefaultSettings)+len(settingsList))
	for k, v := range DefaultSettings {
		settingsMap[k] = v
	}
	for _, setting := range settingsList {
		settingsMap[setting.Key] = setting.Value
	}
	return settingsMap, nil
}

// UpdateSettings upserts every key in one transaction.
func (s *SettingService) UpdateSettings(ctx context.Context, institutionID int, settingsMap map[string]string) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		for key, value := range settingsMap {
			if err := s.settingRepo.Upsert(ctx, institutionID, key, value); err != nil {
				s.log.Error().Err(err).Str("key", key).Msg("failed to update setting")
				return err
			}
		}
		return nil
	})
}

// GetSettingByKey returns the stored value or the default for the key.
func (s *SettingService) GetSettingByKey(ctx context.Context, institutionID int, key string) (string, error) {
	setting, err := s.settingRepo.GetByKey(ctx, institutionID, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if v, ok := DefaultSettings[key]; ok {
				return v, nil
			}
		}
		return "", err
	}
	return setting.Value, nil
}
