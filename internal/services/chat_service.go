// internal/services/chat_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

type ChatService struct {
	db      *gorm.DB
	streams *StreamService
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=1000"`
	Sender  string `json:"sender,omitempty" validate:"omitempty,max=100"`
}

func NewChatService(db *gorm.DB, streams *StreamService) *ChatService {
	return &ChatService{db: db, streams: streams}
}

// SendMessage persists one chat message for the given stream. The stream
// must exist; chat rooms are not created for arbitrary playback ids.
func (s *ChatService) SendMessage(ctx context.Context, playbackID, walletAddress string, req *SendMessageRequest) (*models.ChatMessage, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.streams.GetByPlaybackID(ctx, playbackID); err != nil {
		return nil, err
	}

	sender := req.Sender
	if sender == "" {
		sender = identity.Wallet(walletAddress).ShortAddress()
	}

	msg := &models.ChatMessage{
		StreamID:      playbackID,
		Sender:        sender,
		WalletAddress: walletAddress,
		Message:       req.Message,
		Timestamp:     time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return msg, nil
}

// ListMessages returns the most recent messages for a stream in
// chronological order, capped at limit.
func (s *ChatService) ListMessages(ctx context.Context, playbackID string, limit int) ([]models.ChatMessage, error) {
	if limit < 1 || limit > 200 {
		limit = 100
	}

	var messages []models.ChatMessage
	if err := s.db.WithContext(ctx).
		Where("stream_id = ?", playbackID).
		Order("timestamp desc").
		Limit(limit).
		Find(&messages).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.ChatMessage{}, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	// Oldest first for rendering.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
