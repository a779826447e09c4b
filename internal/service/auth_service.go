package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crecheapp/creche-backend/internal/config"
	"github.com/crecheapp/creche-backend/internal/model"
	"github.com/crecheapp/creche-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Claims extends JWT standard claims with app-specific fields.
type Claims struct {
	jwt.RegisteredClaims
	ProfileID     int        `json:"profile_id"`
	InstitutionID int        `json:"institution_id"`
	Role          model.Role `json:"role"`
	Permissions   []string   `json:"permissions"`
}

// Viewer returns the identity services act on behalf of.
func (c *Claims) Viewer() model.Viewer {
	return model.Viewer{ProfileID: c.ProfileID, InstitutionID: c.InstitutionID, Role: c.Role}
}

// HasPermission reports whether the token grants the permission code.
func (c *Claims) HasPermission(code string) bool {
	for _, p := range c.Permissions {
		if p == code {
			return true
		}
	}
	return false
}

// AuthService handles authentication, JWT, and session management.
type AuthService struct {
	cfg         *config.Config
	rdb         *redis.Client
	profileRepo repository.ProfileRepository
	log         zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, profileRepo repository.ProfileRepository, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:         cfg,
		rdb:         rdb,
		profileRepo: profileRepo,
		log:         log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies credentials and issues a token bound to a new Redis session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.CheckPassword(profile.PasswordHash, password); err != nil {
		return nil, err
	}
	if !profile.Active {
		return nil, ErrInactiveProfile
	}

	token, err := s.GenerateToken(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int("profile_id", profile.ID).Str("role", string(profile.Role)).Msg("Login")
	return &model.LoginResponse{
		Token:       token,
		Profile:     *profile,
		Permissions: model.PermissionsFor(profile.Role),
	}, nil
}

// GenerateToken creates a JWT with the role's permissions embedded and registers its JTI in Redis.
func (s *AuthService) GenerateToken(ctx context.Context, p *model.Profile) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(p.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		ProfileID:     p.ID,
		InstitutionID: p.InstitutionID,
		Role:          p.Role,
		Permissions:   model.PermissionsFor(p.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	// Session lives exactly as long as the JWT.
	if err := s.rdb.Set(ctx, config.CacheKey.SessionKey(p.ID, jti), now.Unix(), s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token's JTI is still registered in Redis.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) error {
	n, err := s.rdb.Exists(ctx, config.CacheKey.SessionKey(claims.ProfileID, claims.ID)).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if n == 0 {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout revokes the session of the presented token.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	return s.rdb.Del(ctx, config.CacheKey.SessionKey(claims.ProfileID, claims.ID)).Err()
}

// RevokeSessions removes every session of a profile except keepJTI (which may be empty).
func (s *AuthService) RevokeSessions(ctx context.Context, profileID int, keepJTI string) error {
	keep := ""
	if keepJTI != "" {
		keep = config.CacheKey.SessionKey(profileID, keepJTI)
	}

	var keys []string
	iter := s.rdb.Scan(ctx, 0, config.CacheKey.SessionPattern(profileID), 100).Iterator()
	for iter.Next(ctx) {
		if k := iter.Val(); k != keep {
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan sessions: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, viewer model.Viewer) (*model.Profile, error) {
	return s.profileRepo.GetByID(ctx, viewer.InstitutionID, viewer.ProfileID)
}

// ChangePassword replaces the caller's password and ends their other sessions.
func (s *AuthService) ChangePassword(ctx context.Context, claims *Claims, req *model.ChangePasswordRequest) error {
	profile, err := s.profileRepo.GetByID(ctx, claims.InstitutionID, claims.ProfileID)
	if err != nil {
		return err
	}
	if err := s.CheckPassword(profile.PasswordHash, req.CurrentPassword); err != nil {
		return ErrWrongPassword
	}

	hash, err := s.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.profileRepo.UpdatePassword(ctx, profile.ID, hash); err != nil {
		return err
	}
	return s.RevokeSessions(ctx, profile.ID, claims.ID)
}
