package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"vetscan/internal/domain"
	"vetscan/internal/middleware"
	"vetscan/internal/service"
	"vetscan/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(authSvc service.AuthService, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{middleware.AuthMiddleware(authSvc)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := middleware.GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "auth_type": middleware.GetAuthType(c)})
	})
	r.GET("/probe", handlers...)
	return r
}

func TestAuthMiddleware_APIKey(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateAPIKey", "sk-valid").Return(&service.AuthContext{
		UserID:   "clinic-1",
		AuthType: "api_key",
		Scopes:   []string{domain.ScopeDocumentsRead},
	}, nil)

	r := protectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-Key", "sk-valid")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clinic-1")
	authSvc.AssertNotCalled(t, "ValidateToken", "sk-valid")
}

func TestAuthMiddleware_InvalidAPIKey(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateAPIKey", "sk-bad").Return(nil, domain.ErrUnauthorized)

	r := protectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-Key", "sk-bad")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateToken", "jwt-token").Return(&service.AuthContext{
		UserID:   "clinic-2",
		AuthType: "jwt",
		Scopes:   []string{domain.ScopeDocumentsRead, domain.ScopeDocumentsWrite},
	}, nil)

	r := protectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer jwt-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clinic-2")
}

func TestAuthMiddleware_NoCredentials(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	r := protectedRouter(authSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireScope_Granted(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateAPIKey", "sk-valid").Return(&service.AuthContext{
		UserID:   "clinic-1",
		AuthType: "api_key",
		Scopes:   []string{domain.ScopeDocumentsRead},
	}, nil)

	r := protectedRouter(authSvc, middleware.RequireScope(domain.ScopeDocumentsRead))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-Key", "sk-valid")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireScope_Denied(t *testing.T) {
	authSvc := new(mocks.MockAuthService)
	authSvc.On("ValidateAPIKey", "sk-valid").Return(&service.AuthContext{
		UserID:   "clinic-1",
		AuthType: "api_key",
		Scopes:   []string{domain.ScopeDocumentsRead},
	}, nil)

	r := protectedRouter(authSvc, middleware.RequireScope(domain.ScopeDocumentsWrite))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-Key", "sk-valid")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
