// internal/services/profile_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/HenshawIII/chainfrenTivi/internal/database"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrSelfSubscription = errors.New("cannot subscribe to yourself")
)

type ProfileService struct {
	db *gorm.DB
}

type UpsertProfileRequest struct {
	DisplayName string   `json:"display_name,omitempty" validate:"omitempty,max=100"`
	Bio         string   `json:"bio,omitempty" validate:"omitempty,max=2000"`
	Avatar      string   `json:"avatar,omitempty" validate:"omitempty,url"`
	SocialLinks []string `json:"social_links,omitempty"`
}

// Channel is one entry of a profile's follow list, resolved to the creator's
// public details.
type Channel struct {
	CreatorID   string `json:"creator_id"`
	DisplayName string `json:"display_name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) GetProfile(ctx context.Context, creatorID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("creator_id = ?", strings.ToLower(creatorID)).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &profile, nil
}

// UpsertProfile creates the profile on first write and patches it afterwards.
// Profiles are keyed by wallet address, so there is no separate signup step.
func (s *ProfileService) UpsertProfile(ctx context.Context, creatorID string, req *UpsertProfileRequest) (*models.Profile, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	profile, err := s.getOrCreate(ctx, s.db.WithContext(ctx), creatorID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != "" {
		profile.DisplayName = req.DisplayName
	}
	if req.Bio != "" {
		profile.Bio = req.Bio
	}
	if req.Avatar != "" {
		profile.Avatar = req.Avatar
	}
	if req.SocialLinks != nil {
		profile.SocialLinks = req.SocialLinks
	}

	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return profile, nil
}

// Subscribe appends channelID to the subscriber's follow list. Subscribing
// twice is a no-op that still succeeds; subscribing to your own address is
// rejected. A missing subscriber profile is created on the spot so a fresh
// wallet can follow someone before ever editing its profile.
func (s *ProfileService) Subscribe(ctx context.Context, subscriberID, channelID string) (*models.Profile, error) {
	if strings.EqualFold(subscriberID, channelID) {
		return nil, ErrSelfSubscription
	}

	var out *models.Profile
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		profile, err := s.getOrCreateLocked(ctx, tx, subscriberID)
		if err != nil {
			return err
		}

		if !profile.Subscribed(channelID) {
			profile.Channels = append(profile.Channels, strings.ToLower(channelID))
			if err := tx.Model(profile).Update("channels", profile.Channels).Error; err != nil {
				return fmt.Errorf("failed to subscribe: %w", err)
			}
		}

		out = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Unsubscribe removes channelID from the follow list. Removing an id that
// was never followed succeeds without changing anything.
func (s *ProfileService) Unsubscribe(ctx context.Context, subscriberID, channelID string) (*models.Profile, error) {
	var out *models.Profile
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		profile, err := s.getOrCreateLocked(ctx, tx, subscriberID)
		if err != nil {
			return err
		}

		if profile.Subscribed(channelID) {
			kept := make([]string, 0, len(profile.Channels))
			for _, c := range profile.Channels {
				if !strings.EqualFold(c, channelID) {
					kept = append(kept, c)
				}
			}
			profile.Channels = kept
			if err := tx.Model(profile).Update("channels", profile.Channels).Error; err != nil {
				return fmt.Errorf("failed to unsubscribe: %w", err)
			}
		}

		out = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListChannels resolves the subscriber's follow list to creator details.
// A channel whose profile cannot be loaded is logged and omitted rather than
// failing the whole listing; the raw id still appears with empty details when
// the creator simply has no profile yet.
func (s *ProfileService) ListChannels(ctx context.Context, subscriberID string) ([]Channel, error) {
	profile, err := s.GetProfile(ctx, subscriberID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return []Channel{}, nil
		}
		return nil, err
	}

	channels := make([]Channel, 0, len(profile.Channels))
	for _, id := range profile.Channels {
		var creator models.Profile
		err := s.db.WithContext(ctx).Where("creator_id = ?", strings.ToLower(id)).First(&creator).Error
		switch {
		case err == nil:
			channels = append(channels, Channel{
				CreatorID:   creator.CreatorID,
				DisplayName: creator.DisplayName,
				Avatar:      creator.Avatar,
			})
		case errors.Is(err, gorm.ErrRecordNotFound):
			channels = append(channels, Channel{CreatorID: strings.ToLower(id)})
		default:
			logrus.WithError(err).WithFields(logrus.Fields{
				"subscriber": subscriberID,
				"channel":    id,
			}).Warn("Failed to resolve subscribed channel, omitting")
		}
	}

	return channels, nil
}

func (s *ProfileService) getOrCreate(ctx context.Context, tx *gorm.DB, creatorID string) (*models.Profile, error) {
	addr := strings.ToLower(creatorID)

	var profile models.Profile
	err := tx.Where("creator_id = ?", addr).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	profile = models.Profile{CreatorID: addr, Channels: []string{}}
	if err := tx.Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &profile, nil
}

func (s *ProfileService) getOrCreateLocked(ctx context.Context, tx *gorm.DB, creatorID string) (*models.Profile, error) {
	addr := strings.ToLower(creatorID)

	var profile models.Profile
	err := tx.Clauses(forUpdate()).Where("creator_id = ?", addr).First(&profile).Error
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	profile = models.Profile{CreatorID: addr, Channels: []string{}}
	if err := tx.Create(&profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &profile, nil
}
