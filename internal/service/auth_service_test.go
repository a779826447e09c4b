package service

import (
	"context"
	"testing"
	"time"

	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeProfileRepo) {
	t.Helper()
	profiles := newFakeProfileRepo(
		model.Profile{ID: 1, InstitutionID: testInstitution, Name: "Admin", Email: "admin@creche.test", Role: model.RoleAdmin, Active: true, PasswordHash: hashed(t, "password123")},
		model.Profile{ID: 3, InstitutionID: testInstitution, Name: "Maria", Email: "maria@familia.test", Role: model.RoleGuardian, Active: false, PasswordHash: hashed(t, "password123")},
	)
	return newTestAuth(t, profiles), profiles
}

func TestAuthService_Login(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"unknown email", "nobody@creche.test", "password123", ErrInvalidCredentials},
		{"wrong password", "admin@creche.test", "wrong-pass", ErrInvalidCredentials},
		{"inactive profile", "maria@familia.test", "password123", ErrInactiveProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("success", func(t *testing.T) {
		res, err := auth.Login(ctx, " admin@creche.test ", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, 1, res.Profile.ID)
		assert.ElementsMatch(t, model.PermissionsFor(model.RoleAdmin), res.Permissions)

		claims, err := auth.ValidateToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, 1, claims.ProfileID)
		assert.Equal(t, testInstitution, claims.InstitutionID)
		assert.Equal(t, model.RoleAdmin, claims.Role)
		assert.True(t, claims.HasPermission(string(model.PermissionProfilesWrite)))
		assert.NoError(t, auth.ValidateSession(ctx, claims))
	})
}

func TestAuthService_ValidateTokenRejectsForeignSignature(t *testing.T) {
	auth, _ := newAuthFixture(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		ProfileID:        1,
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = auth.ValidateToken(forged)
	assert.Error(t, err)

	expired := Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))}}
	stale, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte(testConfig().JWTSecret))
	require.NoError(t, err)

	_, err = auth.ValidateToken(stale)
	assert.Error(t, err)
}

func TestAuthService_LogoutRevokesOnlyThatSession(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	first, err := auth.Login(ctx, "admin@creche.test", "password123")
	require.NoError(t, err)
	second, err := auth.Login(ctx, "admin@creche.test", "password123")
	require.NoError(t, err)

	c1, err := auth.ValidateToken(first.Token)
	require.NoError(t, err)
	c2, err := auth.ValidateToken(second.Token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, c1))
	assert.Error(t, auth.ValidateSession(ctx, c1))
	assert.NoError(t, auth.ValidateSession(ctx, c2))
}

func TestAuthService_ChangePassword(t *testing.T) {
	auth, profiles := newAuthFixture(t)
	ctx := context.Background()

	current, err := auth.Login(ctx, "admin@creche.test", "password123")
	require.NoError(t, err)
	other, err := auth.Login(ctx, "admin@creche.test", "password123")
	require.NoError(t, err)
	cur, _ := auth.ValidateToken(current.Token)
	oth, _ := auth.ValidateToken(other.Token)

	err = auth.ChangePassword(ctx, cur, &model.ChangePasswordRequest{CurrentPassword: "bad-password", NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, auth.ChangePassword(ctx, cur, &model.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "newpass123"}))

	// The session that changed the password survives, the others end.
	assert.NoError(t, auth.ValidateSession(ctx, cur))
	assert.Error(t, auth.ValidateSession(ctx, oth))

	p, err := profiles.GetByID(ctx, testInstitution, 1)
	require.NoError(t, err)
	assert.NoError(t, auth.CheckPassword(p.PasswordHash, "newpass123"))

	_, err = auth.Login(ctx, "admin@creche.test", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
