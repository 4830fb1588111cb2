package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vetscan/internal/config"
	"vetscan/internal/domain"
	"vetscan/internal/service"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-key-at-least-32-chars!",
		AccessTokenExpiry: time.Hour,
		Issuer:            "vetscan-test",
	}
}

func hashKey(t *testing.T, key string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestValidateAPIKey_Valid(t *testing.T) {
	authCfg := config.AuthConfig{
		APIKeys: []config.APIKeyCredential{
			{OwnerID: "clinic-1", Hash: hashKey(t, "sk-clinic-one")},
			{OwnerID: "clinic-2", Hash: hashKey(t, "sk-clinic-two")},
		},
	}
	svc := service.NewAuthService(testJWTConfig(), authCfg)

	authCtx, err := svc.ValidateAPIKey("sk-clinic-two")

	require.NoError(t, err)
	assert.Equal(t, "clinic-2", authCtx.UserID)
	assert.Equal(t, "api_key", authCtx.AuthType)
	assert.True(t, authCtx.HasScope(domain.ScopeDocumentsRead))
	assert.True(t, authCtx.HasScope(domain.ScopeDocumentsWrite))
}

func TestValidateAPIKey_Unknown(t *testing.T) {
	authCfg := config.AuthConfig{
		APIKeys: []config.APIKeyCredential{
			{OwnerID: "clinic-1", Hash: hashKey(t, "sk-clinic-one")},
		},
	}
	svc := service.NewAuthService(testJWTConfig(), authCfg)

	_, err := svc.ValidateAPIKey("sk-wrong")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateAPIKey_NoKeysConfigured(t *testing.T) {
	svc := service.NewAuthService(testJWTConfig(), config.AuthConfig{})

	_, err := svc.ValidateAPIKey("anything")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestIssueAndValidateToken(t *testing.T) {
	svc := service.NewAuthService(testJWTConfig(), config.AuthConfig{})

	token, expiresAt, err := svc.IssueToken("clinic-1", []string{domain.ScopeDocumentsRead})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	authCtx, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "clinic-1", authCtx.UserID)
	assert.Equal(t, "jwt", authCtx.AuthType)
	assert.True(t, authCtx.HasScope(domain.ScopeDocumentsRead))
	assert.False(t, authCtx.HasScope(domain.ScopeDocumentsWrite))
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := service.NewAuthService(testJWTConfig(), config.AuthConfig{})
	token, _, err := svc.IssueToken("clinic-1", nil)
	require.NoError(t, err)

	otherCfg := testJWTConfig()
	otherCfg.Secret = "a-completely-different-secret-value"
	other := service.NewAuthService(otherCfg, config.AuthConfig{})

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := testJWTConfig()
	cfg.AccessTokenExpiry = -time.Minute
	svc := service.NewAuthService(cfg, config.AuthConfig{})

	token, _, err := svc.IssueToken("clinic-1", nil)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := service.NewAuthService(testJWTConfig(), config.AuthConfig{})

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
