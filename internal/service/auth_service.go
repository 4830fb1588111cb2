package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vetscan/internal/config"
	"vetscan/internal/domain"
)

// Claims represents the JWT claims carried by access tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID string   `json:"user_id"`
	Scopes []string `json:"scopes"`
}

// AuthContext identifies the authenticated caller for the request handlers.
type AuthContext struct {
	UserID   string
	AuthType string // "api_key" or "jwt"
	Scopes   []string
}

// HasScope reports whether the caller was granted the given scope.
func (a *AuthContext) HasScope(scope string) bool {
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// AuthService defines the authentication contract. API keys and bearer
// tokens both resolve to an AuthContext.
type AuthService interface {
	ValidateAPIKey(apiKey string) (*AuthContext, error)
	ValidateToken(tokenString string) (*AuthContext, error)
	IssueToken(userID string, scopes []string) (string, time.Time, error)
}

type authService struct {
	jwtCfg  config.JWTConfig
	apiKeys []config.APIKeyCredential
}

// NewAuthService creates a new AuthService implementation.
func NewAuthService(jwtCfg config.JWTConfig, authCfg config.AuthConfig) AuthService {
	return &authService{
		jwtCfg:  jwtCfg,
		apiKeys: authCfg.APIKeys,
	}
}

// allScopes is granted to every authenticated caller; per-key scope grants
// would go in the key configuration when the need arises.
var allScopes = []string{domain.ScopeDocumentsRead, domain.ScopeDocumentsWrite}

func (s *authService) ValidateAPIKey(apiKey string) (*AuthContext, error) {
	for _, cred := range s.apiKeys {
		if bcrypt.CompareHashAndPassword([]byte(cred.Hash), []byte(apiKey)) == nil {
			return &AuthContext{
				UserID:   cred.OwnerID,
				AuthType: "api_key",
				Scopes:   allScopes,
			}, nil
		}
	}
	return nil, domain.ErrUnauthorized
}

func (s *authService) ValidateToken(tokenString string) (*AuthContext, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !token.Valid || claims.UserID == "" {
		return nil, domain.ErrUnauthorized
	}

	return &AuthContext{
		UserID:   claims.UserID,
		AuthType: "jwt",
		Scopes:   claims.Scopes,
	}, nil
}

func (s *authService) IssueToken(userID string, scopes []string) (string, time.Time, error) {
	now := time.Now()
	expiry := now.Add(s.jwtCfg.AccessTokenExpiry)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.New().String(),
		},
		UserID: userID,
		Scopes: scopes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiry, nil
}
