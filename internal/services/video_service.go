// internal/services/video_service.go
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
	ErrVideoNotFound = errors.New("video not found")
	ErrNotVideoOwner = errors.New("not the video owner")
)

type VideoService struct {
	db       *gorm.DB
	livepeer *livepeer.Client
}

type CreateVideoRequest struct {
	AssetName   string          `json:"asset_name" validate:"required,min=1,max=255"`
	Title       string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Description string          `json:"description,omitempty"`
	ViewMode    models.ViewMode `json:"view_mode" validate:"required,view_mode"`
	Amount      float64         `json:"amount,omitempty" validate:"omitempty,min=0"`
	Logo        string          `json:"logo,omitempty" validate:"omitempty,url"`
	BgColor     string          `json:"bgcolor,omitempty" validate:"omitempty,max=32"`
	Color       string          `json:"color,omitempty" validate:"omitempty,max=32"`
	FontSize    int             `json:"font_size,omitempty" validate:"omitempty,min=0,max=128"`
	FontFamily  string          `json:"font_family,omitempty" validate:"omitempty,max=64"`
	SocialLinks []string        `json:"social_links,omitempty"`
}

type UpdateVideoRequest struct {
	AssetName   *string          `json:"asset_name,omitempty" validate:"omitempty,min=1,max=255"`
	Title       *string          `json:"title,omitempty" validate:"omitempty,max=255"`
	Description *string          `json:"description,omitempty"`
	ViewMode    *models.ViewMode `json:"view_mode,omitempty" validate:"omitempty,view_mode"`
	Amount      *float64         `json:"amount,omitempty" validate:"omitempty,min=0"`
	Logo        *string          `json:"logo,omitempty" validate:"omitempty,url"`
	BgColor     *string          `json:"bgcolor,omitempty" validate:"omitempty,max=32"`
	Color       *string          `json:"color,omitempty" validate:"omitempty,max=32"`
	FontSize    *int             `json:"font_size,omitempty" validate:"omitempty,min=0,max=128"`
	FontFamily  *string          `json:"font_family,omitempty" validate:"omitempty,max=64"`
	SocialLinks []string         `json:"social_links,omitempty"`
	Disabled    *bool            `json:"disabled,omitempty"`
}

// VideoUpload pairs the stored row with the provider's direct-upload URL the
// client pushes the file to.
type VideoUpload struct {
	Video     *models.Video `json:"video"`
	UploadURL string        `json:"upload_url"`
}

func NewVideoService(db *gorm.DB, lp *livepeer.Client) *VideoService {
	return &VideoService{db: db, livepeer: lp}
}

func (s *VideoService) CreateVideo(ctx context.Context, creatorID string, req *CreateVideoRequest) (*VideoUpload, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if req.ViewMode != models.ViewModeFree && req.Amount <= 0 {
		return nil, errors.New("paid videos require a positive amount")
	}

	if !s.livepeer.Configured() {
		return nil, ErrProviderOffline
	}

	upload, err := s.livepeer.RequestUpload(ctx, req.AssetName)
	if err != nil {
		return nil, fmt.Errorf("failed to provision upload: %w", err)
	}

	video := &models.Video{
		PlaybackID:    upload.Asset.PlaybackID,
		AssetID:       upload.Asset.ID,
		CreatorID:     strings.ToLower(creatorID),
		AssetName:     req.AssetName,
		Title:         req.Title,
		Description:   req.Description,
		ViewMode:      req.ViewMode,
		Amount:        req.Amount,
		PaidAddresses: []string{},
		Logo:          req.Logo,
		BgColor:       req.BgColor,
		Color:         req.Color,
		FontSize:      req.FontSize,
		FontFamily:    req.FontFamily,
		SocialLinks:   req.SocialLinks,
	}

	if err := s.db.WithContext(ctx).Create(video).Error; err != nil {
		return nil, fmt.Errorf("failed to create video: %w", err)
	}

	return &VideoUpload{Video: video, UploadURL: upload.URL}, nil
}

func (s *VideoService) GetByPlaybackID(ctx context.Context, playbackID string) (*models.Video, error) {
	var video models.Video
	if err := s.db.WithContext(ctx).Where("playback_id = ?", playbackID).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &video, nil
}

func (s *VideoService) ListByCreator(ctx context.Context, creatorID string, includeDisabled bool) ([]models.Video, error) {
	query := s.db.WithContext(ctx).Where("creator_id = ?", strings.ToLower(creatorID))
	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}

	var videos []models.Video
	if err := query.Order("created_at desc").Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return videos, nil
}

func (s *VideoService) ListAll(ctx context.Context, params utils.PaginationParams) (*utils.PaginationResult, error) {
	query := s.db.WithContext(ctx).Model(&models.Video{}).Where("disabled = ?", false)

	if params.Search != "" {
		search := "%" + params.Search + "%"
		query = query.Where("asset_name ILIKE ? OR title ILIKE ?", search, search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var videos []models.Video
	query = utils.ApplySort(query, params, []string{"created_at", "asset_name", "amount"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	result := utils.CreatePaginationResult(videos, total, params)
	return &result, nil
}

func (s *VideoService) UpdateVideo(ctx context.Context, creatorID, playbackID string, req *UpdateVideoRequest) (*models.Video, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	video, err := s.GetByPlaybackID(ctx, playbackID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(video.CreatorID, creatorID) {
		return nil, ErrNotVideoOwner
	}

	if req.AssetName != nil {
		video.AssetName = *req.AssetName
	}
	if req.Title != nil {
		video.Title = *req.Title
	}
	if req.Description != nil {
		video.Description = *req.Description
	}
	if req.ViewMode != nil {
		video.ViewMode = *req.ViewMode
	}
	if req.Amount != nil {
		video.Amount = *req.Amount
	}
	if req.Logo != nil {
		video.Logo = *req.Logo
	}
	if req.BgColor != nil {
		video.BgColor = *req.BgColor
	}
	if req.Color != nil {
		video.Color = *req.Color
	}
	if req.FontSize != nil {
		video.FontSize = *req.FontSize
	}
	if req.FontFamily != nil {
		video.FontFamily = *req.FontFamily
	}
	if req.SocialLinks != nil {
		video.SocialLinks = req.SocialLinks
	}
	if req.Disabled != nil {
		video.Disabled = *req.Disabled
	}

	if video.ViewMode != models.ViewModeFree && video.Amount <= 0 {
		return nil, errors.New("paid videos require a positive amount")
	}

	if err := s.db.WithContext(ctx).Save(video).Error; err != nil {
		return nil, fmt.Errorf("failed to update video: %w", err)
	}

	return video, nil
}

func (s *VideoService) DeleteVideo(ctx context.Context, creatorID, playbackID string) error {
	video, err := s.GetByPlaybackID(ctx, playbackID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(video.CreatorID, creatorID) {
		return ErrNotVideoOwner
	}

	if err := s.db.WithContext(ctx).Delete(video).Error; err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	// Provider cleanup is best effort.
	if video.AssetID != "" && s.livepeer.Configured() {
		if err := s.livepeer.DeleteAsset(ctx, video.AssetID); err != nil {
			logrus.WithError(err).WithField("asset_id", video.AssetID).
				Warn("Failed to delete provider asset")
		}
	}

	return nil
}

// addVideoPaidAddress mirrors addStreamPaidAddress for on-demand assets.
func addVideoPaidAddress(tx *gorm.DB, playbackID, addr string) error {
	var video models.Video
	if err := tx.Clauses(forUpdate()).Where("playback_id = ?", playbackID).First(&video).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if video.HasPaidAddress(addr) {
		return nil
	}

	video.PaidAddresses = append(video.PaidAddresses, strings.ToLower(addr))
	if err := tx.Model(&video).Update("paid_addresses", video.PaidAddresses).Error; err != nil {
		return fmt.Errorf("failed to record paid address: %w", err)
	}
	return nil
}
