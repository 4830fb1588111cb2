package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vetscan/internal/service"
)

// AuthHandler exchanges API keys for short-lived bearer tokens.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type tokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Token handles POST /api/v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "api_key field is required")
		return
	}

	authCtx, err := h.authService.ValidateAPIKey(req.APIKey)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key")
		return
	}

	token, expiresAt, err := h.authService.IssueToken(authCtx.UserID, authCtx.Scopes)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, tokenResponse{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt})
}
