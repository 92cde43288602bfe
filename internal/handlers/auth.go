// internal/handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/HenshawIII/chainfrenTivi/internal/i18n"
	"github.com/HenshawIII/chainfrenTivi/internal/services"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type nonceRequest struct {
	Address string `json:"address" binding:"required"`
}

type loginRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// POST /auth/nonce
func (h *AuthHandler) RequestNonce(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req nonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	challenge, err := h.authService.IssueChallenge(req.Address)
	if err != nil {
		if errors.Is(err, services.ErrInvalidAddress) {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAuthInvalidAddress), nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, challenge)
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.authService.VerifyLogin(c.Request.Context(), req.Address, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAddress):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAuthInvalidAddress), nil)
		case errors.Is(err, services.ErrNonceNotFound), errors.Is(err, services.ErrNonceExpired):
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthNonceExpired))
		case errors.Is(err, services.ErrInvalidSignature):
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidSignature))
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, result)
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	profile, err := h.authService.Me(c.Request.Context(), wallet)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyProfileNotFound))
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, profile)
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
		return
	}

	utils.SuccessResponse(c, result)
}
