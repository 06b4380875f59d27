package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gitrec/internal/http/response"
	"github.com/yungbote/gitrec/internal/services"
	"github.com/yungbote/gitrec/internal/wire"
)

type AuthHandler struct {
	authService    services.AuthService
	profileService services.ProfileService
}

func NewAuthHandler(authService services.AuthService, profileService services.ProfileService) *AuthHandler {
	return &AuthHandler{authService: authService, profileService: profileService}
}

func (ah *AuthHandler) Token(c *gin.Context) {
	var req wire.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	token, err := ah.authService.IssueToken(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, wire.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ah.authService.GetAccessTTL().Seconds()),
	})
}

func (ah *AuthHandler) Profile(c *gin.Context) {
	p, err := ah.profileService.Profile(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, p)
}
