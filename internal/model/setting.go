package model

import "time"

// AppSetting is a key-value pair of institution configuration.
type AppSetting struct {
	InstitutionID int       `json:"institution_id"`
	Key           string    `json:"key"`
	Value         string    `json:"value"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateSettingsRequest is the payload for bulk updating settings.
type UpdateSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required,dive,keys,min=1,max=64,endkeys,max=2000"`
}
