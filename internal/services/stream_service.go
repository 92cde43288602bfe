// internal/services/stream_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/HenshawIII/chainfrenTivi/internal/livepeer"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

var (
	ErrStreamNotFound  = errors.New("stream not found")
	ErrNotStreamOwner  = errors.New("not the stream owner")
	ErrProviderOffline = errors.New("video provider is not configured")
)

type StreamService struct {
	db       *gorm.DB
	livepeer *livepeer.Client
}

type CreateStreamRequest struct {
	StreamName  string          `json:"stream_name" validate:"required,min=1,max=255"`
	Title       string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Description string          `json:"description,omitempty"`
	ViewMode    models.ViewMode `json:"view_mode" validate:"required,view_mode"`
	Amount      float64         `json:"amount,omitempty" validate:"omitempty,min=0"`
	Record      bool            `json:"record,omitempty"`
	Logo        string          `json:"logo,omitempty" validate:"omitempty,url"`
	BgColor     string          `json:"bgcolor,omitempty" validate:"omitempty,max=32"`
	Color       string          `json:"color,omitempty" validate:"omitempty,max=32"`
	FontSize    int             `json:"font_size,omitempty" validate:"omitempty,min=0,max=128"`
	FontFamily  string          `json:"font_family,omitempty" validate:"omitempty,max=64"`
	SocialLinks []string        `json:"social_links,omitempty"`
}

type UpdateStreamRequest struct {
	StreamName  *string          `json:"stream_name,omitempty" validate:"omitempty,min=1,max=255"`
	Title       *string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string          `json:"description,omitempty"`
	ViewMode    *models.ViewMode `json:"view_mode,omitempty" validate:"omitempty,view_mode"`
	Amount      *float64         `json:"amount,omitempty" validate:"omitempty,min=0"`
	Record      *bool            `json:"record,omitempty"`
	Logo        *string          `json:"logo,omitempty" validate:"omitempty,url"`
	BgColor     *string          `json:"bgcolor,omitempty" validate:"omitempty,max=32"`
	Color       *string          `json:"color,omitempty" validate:"omitempty,max=32"`
	FontSize    *int             `json:"font_size,omitempty" validate:"omitempty,min=0,max=128"`
	FontFamily  *string          `json:"font_family,omitempty" validate:"omitempty,max=64"`
	SocialLinks []string         `json:"social_links,omitempty"`
}

func NewStreamService(db *gorm.DB, lp *livepeer.Client) *StreamService {
	return &StreamService{db: db, livepeer: lp}
}

func (s *StreamService) CreateStream(ctx context.Context, creatorID string, req *CreateStreamRequest) (*models.Stream, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.ViewMode != models.ViewModeFree && req.Amount <= 0 {
		return nil, errors.New("paid streams require a positive amount")
	}

	if !s.livepeer.Configured() {
		return nil, ErrProviderOffline
	}

	provisioned, err := s.livepeer.CreateStream(ctx, req.StreamName, req.Record)
	if err != nil {
		return nil, fmt.Errorf("failed to provision stream: %w", err)
	}

	stream := &models.Stream{
		PlaybackID:    provisioned.PlaybackID,
		ProviderID:    provisioned.ID,
		StreamKey:     provisioned.StreamKey,
		CreatorID:     strings.ToLower(creatorID),
		StreamName:    req.StreamName,
		Title:         req.Title,
		Description:   req.Description,
		ViewMode:      req.ViewMode,
		Amount:        req.Amount,
		PaidAddresses: []string{},
		Record:        req.Record,
		Logo:          req.Logo,
		BgColor:       req.BgColor,
		Color:         req.Color,
		FontSize:      req.FontSize,
		FontFamily:    req.FontFamily,
		SocialLinks:   req.SocialLinks,
	}

	if err := s.db.WithContext(ctx).Create(stream).Error; err != nil {
		// Don't leak a provider-side stream the database never got to know about.
		if delErr := s.livepeer.DeleteStream(context.Background(), provisioned.ID); delErr != nil {
			logrus.WithError(delErr).WithField("stream_id", provisioned.ID).
				Warn("Failed to clean up provisioned stream")
		}
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return stream, nil
}

func (s *StreamService) GetByPlaybackID(ctx context.Context, playbackID string) (*models.Stream, error) {
	var stream models.Stream
	if err := s.db.WithContext(ctx).Where("playback_id = ?", playbackID).First(&stream).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStreamNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &stream, nil
}

func (s *StreamService) ListByCreator(ctx context.Context, creatorID string) ([]models.Stream, error) {
	var streams []models.Stream
	if err := s.db.WithContext(ctx).
		Where("creator_id = ?", strings.ToLower(creatorID)).
		Order("created_at desc").
		Find(&streams).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return streams, nil
}

func (s *StreamService) ListAll(ctx context.Context, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.Stream{})

	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("stream_name ILIKE ? OR title ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var streams []models.Stream
	query = utils.ApplySort(query, params, []string{"created_at", "stream_name", "amount"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&streams).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	// The browse surface never exposes ingest keys.
	for i := range streams {
		streams[i].StreamKey = ""
	}

	result := utils.CreatePaginationResult(streams, total, params)
	return &result, nil
}

func (s *StreamService) UpdateStream(ctx context.Context, creatorID, playbackID string, req *UpdateStreamRequest) (*models.Stream, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	stream, err := s.GetByPlaybackID(ctx, playbackID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(stream.CreatorID, creatorID) {
		return nil, ErrNotStreamOwner
	}

	if req.StreamName != nil {
		stream.StreamName = *req.StreamName
	}
	if req.Title != nil {
		stream.Title = *req.Title
	}
	if req.Description != nil {
		stream.Description = *req.Description
	}
	if req.ViewMode != nil {
		stream.ViewMode = *req.ViewMode
	}
	if req.Amount != nil {
		stream.Amount = *req.Amount
	}
	if req.Record != nil {
		stream.Record = *req.Record
	}
	if req.Logo != nil {
		stream.Logo = *req.Logo
	}
	if req.BgColor != nil {
		stream.BgColor = *req.BgColor
	}
	if req.Color != nil {
		stream.Color = *req.Color
	}
	if req.FontSize != nil {
		stream.FontSize = *req.FontSize
	}
	if req.FontFamily != nil {
		stream.FontFamily = *req.FontFamily
	}
	if req.SocialLinks != nil {
		stream.SocialLinks = req.SocialLinks
	}

	if stream.ViewMode != models.ViewModeFree && stream.Amount <= 0 {
		return nil, errors.New("paid streams require a positive amount")
	}

	if err := s.db.WithContext(ctx).Save(stream).Error; err != nil {
		return nil, fmt.Errorf("failed to update stream: %w", err)
	}

	return stream, nil
}

func (s *StreamService) DeleteStream(ctx context.Context, creatorID, playbackID string) error {
	stream, err := s.GetByPlaybackID(ctx, playbackID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(stream.CreatorID, creatorID) {
		return ErrNotStreamOwner
	}

	if err := s.db.WithContext(ctx).Delete(stream).Error; err != nil {
		return fmt.Errorf("failed to delete stream: %w", err)
	}

	// Provider cleanup is best effort; an orphaned provider stream only
	// costs an unused ingest endpoint.
	if stream.ProviderID != "" && s.livepeer.Configured() {
		if err := s.livepeer.DeleteStream(ctx, stream.ProviderID); err != nil {
			logrus.WithError(err).WithField("stream_id", stream.ProviderID).
				Warn("Failed to delete provider stream")
		}
	}

	return nil
}

// addStreamPaidAddress appends addr to the stream's paid set inside the
// caller's transaction. The append is idempotent: re-recording an address
// that is already present leaves the set unchanged and returns successfully.
// The row is locked so concurrent unlocks cannot drop each other's addresses.
func addStreamPaidAddress(tx *gorm.DB, playbackID, addr string) error {
	var stream models.Stream
	if err := tx.Clauses(forUpdate()).Where("playback_id = ?", playbackID).First(&stream).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStreamNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if stream.HasPaidAddress(addr) {
		return nil
	}

	stream.PaidAddresses = append(stream.PaidAddresses, strings.ToLower(addr))
	if err := tx.Model(&stream).Update("paid_addresses", stream.PaidAddresses).Error; err != nil {
		return fmt.Errorf("failed to record paid address: %w", err)
	}
	return nil
}
