package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/contactos-backend/internal/http/response"
	"github.com/yungbote/contactos-backend/internal/platform/logger"
	"github.com/yungbote/contactos-backend/internal/services"
)

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService}
}

// POST /api/auth/signup
func (ah *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, ah.log, bindError(err))
		return
	}
	tok, err := ah.authService.Signup(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	response.RespondOK(c, tok)
}

// POST /api/auth/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, ah.log, bindError(err))
		return
	}
	tok, err := ah.authService.Login(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	response.RespondOK(c, tok)
}

// GET /api/auth/me
func (ah *AuthHandler) Me(c *gin.Context) {
	me, err := ah.authService.Me(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, ah.log, err)
		return
	}
	response.RespondOK(c, gin.H{
		"id":         me.ID,
		"email":      me.Email,
		"username":   me.Username,
		"created_at": me.CreatedAt,
	})
}
