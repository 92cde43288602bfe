// internal/handlers/video.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/HenshawIII/chainfrenTivi/internal/i18n"
	"github.com/HenshawIII/chainfrenTivi/internal/services"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

type VideoHandler struct {
	videoService *services.VideoService
}

func NewVideoHandler(videoService *services.VideoService) *VideoHandler {
	return &VideoHandler{videoService: videoService}
}

// GET /videos
func (h *VideoHandler) ListVideos(c *gin.Context) {
	if creatorID := c.Query("creator_id"); creatorID != "" {
		h.listByCreator(c, creatorID)
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.videoService.ListAll(c.Request.Context(), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /creators/:creatorId/videos
func (h *VideoHandler) ListCreatorVideos(c *gin.Context) {
	h.listByCreator(c, c.Param("creatorId"))
}

func (h *VideoHandler) listByCreator(c *gin.Context, creatorID string) {
	// Only the owner sees disabled entries.
	wallet, _ := utils.GetWalletFromContext(c)
	includeDisabled := identityMatches(wallet, creatorID)

	videos, err := h.videoService.ListByCreator(c.Request.Context(), creatorID, includeDisabled)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, videos)
}

// GET /videos/:playbackId
func (h *VideoHandler) GetVideo(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	video, err := h.videoService.GetByPlaybackID(c.Request.Context(), c.Param("playbackId"))
	if err != nil {
		if errors.Is(err, services.ErrVideoNotFound) {
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyVideoNotFound))
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	if video.Disabled {
		wallet, ok := utils.GetWalletFromContext(c)
		if !ok || !identityMatches(wallet, video.CreatorID) {
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyVideoNotFound))
			return
		}
	}

	utils.SuccessResponse(c, video)
}

// POST /videos
func (h *VideoHandler) CreateVideo(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req services.CreateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	upload, err := h.videoService.CreateVideo(c.Request.Context(), wallet, &req)
	if err != nil {
		if errors.Is(err, services.ErrProviderOffline) {
			utils.InternalErrorResponse(c, err.Error())
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, upload)
}

// PATCH /videos/:playbackId
func (h *VideoHandler) UpdateVideo(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req services.UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	video, err := h.videoService.UpdateVideo(c.Request.Context(), wallet, c.Param("playbackId"), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVideoNotFound):
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyVideoNotFound))
		case errors.Is(err, services.ErrNotVideoOwner):
			utils.ForbiddenResponse(c, "")
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, video)
}

// DELETE /videos/:playbackId
func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	if err := h.videoService.DeleteVideo(c.Request.Context(), wallet, c.Param("playbackId")); err != nil {
		switch {
		case errors.Is(err, services.ErrVideoNotFound):
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyVideoNotFound))
		case errors.Is(err, services.ErrNotVideoOwner):
			utils.ForbiddenResponse(c, "")
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyVideoDeleted)})
}
