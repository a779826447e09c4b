package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/crecheapp/creche-backend/internal/response"
	"github.com/crecheapp/creche-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// profileStore serves logins from memory. Methods the handlers under test never
// reach are left to the embedded interface.
type profileStore struct {
	repository.ProfileRepository
	byEmail map[string]model.Profile
}

func (s *profileStore) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	p, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func newLoginRouter(t *testing.T) *gin.Engine {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour, BcryptCost: 4}
	store := &profileStore{byEmail: map[string]model.Profile{}}
	auth := service.NewAuthService(cfg, rdb, store, zerolog.Nop())

	hash, err := auth.HashPassword("senha123")
	require.NoError(t, err)
	store.byEmail["ana@creche.test"] = model.Profile{
		ID: 7, InstitutionID: 1, Name: "Ana", Email: "ana@creche.test",
		Role: model.RoleEducator, PasswordHash: hash, Active: true,
	}
	store.byEmail["inativa@creche.test"] = model.Profile{
		ID: 8, InstitutionID: 1, Name: "Bia", Email: "inativa@creche.test",
		Role: model.RoleEducator, PasswordHash: hash, Active: false,
	}

	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(auth, zerolog.Nop()).Login)
	return r
}

func postJSON(r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Login(t *testing.T) {
	r := newLoginRouter(t)

	w := postJSON(r, "/auth/login", gin.H{"email": "ana@creche.test", "password": "senha123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data model.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Data.Token)
	assert.Equal(t, 7, body.Data.Profile.ID)
	assert.Equal(t, model.PermissionsFor(model.RoleEducator), body.Data.Permissions)
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	r := newLoginRouter(t)

	tests := []struct {
		name    string
		payload any
		status  int
		code    response.ErrCode
	}{
		{"wrong password", gin.H{"email": "ana@creche.test", "password": "errada123"}, http.StatusUnauthorized, response.ErrInvalidCredentials},
		{"unknown email", gin.H{"email": "ninguem@creche.test", "password": "senha123"}, http.StatusUnauthorized, response.ErrInvalidCredentials},
		{"inactive profile", gin.H{"email": "inativa@creche.test", "password": "senha123"}, http.StatusForbidden, response.ErrAccountDisabled},
		{"invalid email", gin.H{"email": "ana", "password": "senha123"}, http.StatusBadRequest, response.ErrValidation},
		{"short password", gin.H{"email": "ana@creche.test", "password": "123"}, http.StatusBadRequest, response.ErrValidation},
		{"missing fields", gin.H{}, http.StatusBadRequest, response.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/auth/login", tt.payload)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestAuthHandler_LogoutWithoutClaims(t *testing.T) {
	w := serve(NewAuthHandler(nil, zerolog.Nop()).Logout, http.MethodPost, "/auth/logout", "/auth/logout")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, response.ErrTokenRequired, errorCode(t, w))
}
