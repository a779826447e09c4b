package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingService_DefaultsAndOverrides(t *testing.T) {
	repo := &fakeSettingRepo{rows: map[string]string{"opening_hours": "06:30-19:00", "menu_url": "https://creche.test/cardapio"}}
	svc := NewSettingService(&fakeTx{}, repo, zerolog.Nop())
	ctx := context.Background()

	all, err := svc.GetAllSettings(ctx, testInstitution)
	require.NoError(t, err)
	assert.Equal(t, "06:30-19:00", all["opening_hours"])
	assert.Equal(t, "https://creche.test/cardapio", all["menu_url"])
	assert.Contains(t, all, "contact_phone")

	v, err := svc.GetSettingByKey(ctx, testInstitution, "contact_email")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	_, err = svc.GetSettingByKey(ctx, testInstitution, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingService_UpdateSettings(t *testing.T) {
	repo := &fakeSettingRepo{rows: map[string]string{}}
	svc := NewSettingService(&fakeTx{}, repo, zerolog.Nop())

	require.NoError(t, svc.UpdateSettings(context.Background(), testInstitution, map[string]string{"contact_phone": "1133334444"}))
	assert.Equal(t, "1133334444", repo.rows["contact_phone"])

	repo.failKey = "broken"
	assert.Error(t, svc.UpdateSettings(context.Background(), testInstitution, map[string]string{"broken": "x"}))
}
