// internal/handlers/chat.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/HenshawIII/chainfrenTivi/internal/i18n"
	"github.com/HenshawIII/chainfrenTivi/internal/services"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
	"github.com/HenshawIII/chainfrenTivi/internal/ws"
)

type ChatHandler struct {
	chatService *services.ChatService
	hub         *ws.Hub
}

func NewChatHandler(chatService *services.ChatService, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{chatService: chatService, hub: hub}
}

// GET /chat/:playbackId/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	messages, err := h.chatService.ListMessages(c.Request.Context(), c.Param("playbackId"), limit)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, messages)
}

// POST /chat/:playbackId/messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	wallet, ok := utils.GetWalletFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	msg, err := h.chatService.SendMessage(c.Request.Context(), c.Param("playbackId"), wallet, &req)
	if err != nil {
		if errors.Is(err, services.ErrStreamNotFound) {
			utils.NotFoundResponse(c, i18n.T(lang, i18n.KeyChatNotFound))
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	h.hub.Broadcast(msg)
	utils.CreatedResponse(c, msg)
}
