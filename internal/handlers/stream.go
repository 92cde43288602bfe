// internal/handlers/stream.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/HenshawIII/chainfrenTivi/internal/i18n"
	"github.com/HenshawIII/chainfrenTivi/internal/services"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

type StreamHandler struct {
	streamService *services.StreamService
}

func NewStreamHandler(streamService *services.StreamService) *StreamHandler {
	return &StreamHandler{streamService: streamService}
}

// GET /streams
func (h *StreamHandler) ListStreams(c *gin.Context) {
	if creatorID := c.Query("creator_id"); creatorID != "" {
		h.listByCreator(c, creatorID)
		return
	}

	params := utils.GetPaginationParams(c)
	result, err := h.streamService.ListAll(c.Request.Context(), params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, *result)
}

// GET /creators/:creatorId/streams
func (h *StreamHandler) ListCreatorStreams(c *gin.Context) {
	h.listByCreator(c, c.Param("creatorId"))
}

func (h *StreamHandler) listByCreator(c *gin.Context, creatorID string) {
	streams, err := h.streamService.ListByCreator(c.Request.Context(), creatorID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	// Ingest keys are only shown to the channel owner.
	if wallet, ok := utils.GetWalletFromContext(c); !ok || !identityMatches(wallet, creatorID) {
		for i := range streams {
			streams[i].StreamKey = ""
		}
	}

	utils.SuccessResponse(c, streams)
}

// GET /streams/:playbackId
func (h *StreamHandler) GetStream(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	stream, err := h.streamService.GetByPlaybackID(c.Request.Context(), c.Param("playbackId"))
	if err != nil {
		if errors.Is(err, services.ErrStreamNotFound) {
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyStreamNotFound))
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	// The ingest key is private to the owner.
	if wallet, ok := utils.GetWalletFromContext(c); !ok || !identityMatches(wallet, stream.CreatorID) {
		stream.StreamKey = ""
	}

	utils.SuccessResponse(c, stream)
}

// POST /streams
func (h *StreamHandler) CreateStream(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req services.CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	stream, err := h.streamService.CreateStream(c.Request.Context(), wallet, &req)
	if err != nil {
		if errors.Is(err, services.ErrProviderOffline) {
			utils.InternalErrorResponse(c, err.Error())
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, stream)
}

// PATCH /streams/:playbackId
func (h *StreamHandler) UpdateStream(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req services.UpdateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	stream, err := h.streamService.UpdateStream(c.Request.Context(), wallet, c.Param("playbackId"), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStreamNotFound):
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyStreamNotFound))
		case errors.Is(err, services.ErrNotStreamOwner):
			utils.ForbiddenResponse(c, "")
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.SuccessResponse(c, stream)
}

// DELETE /streams/:playbackId
func (h *StreamHandler) DeleteStream(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	if err := h.streamService.DeleteStream(c.Request.Context(), wallet, c.Param("playbackId")); err != nil {
		switch {
		case errors.Is(err, services.ErrStreamNotFound):
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyStreamNotFound))
		case errors.Is(err, services.ErrNotStreamOwner):
			utils.ForbiddenResponse(c, "")
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyStreamDeleted)})
}
