// internal/handlers/profile.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/HenshawIII/chainfrenTivi/internal/i18n"
	"github.com/HenshawIII/chainfrenTivi/internal/services"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// GET /profiles/:creatorId
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	profile, err := h.profileService.GetProfile(c.Request.Context(), c.Param("creatorId"))
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

// POST /profiles
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req services.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	profile, err := h.profileService.UpsertProfile(c.Request.Context(), wallet, &req)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, profile)
}

// POST /profiles/subscriptions/:creatorId
func (h *ProfileHandler) Subscribe(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	profile, err := h.profileService.Subscribe(c.Request.Context(), wallet, c.Param("creatorId"))
	if err != nil {
		if errors.Is(err, services.ErrSelfSubscription) {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeySubscriptionSelf), nil)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeySubscriptionAdded),
		"channels": profile.Channels,
	})
}

// DELETE /profiles/subscriptions/:creatorId
func (h *ProfileHandler) Unsubscribe(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	profile, err := h.profileService.Unsubscribe(c.Request.Context(), wallet, c.Param("creatorId"))
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeySubscriptionRemoved),
		"channels": profile.Channels,
	})
}

// GET /profiles/subscriptions
func (h *ProfileHandler) ListSubscriptions(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	channels, err := h.profileService.ListChannels(c.Request.Context(), wallet)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, channels)
}
