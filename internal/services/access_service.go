// internal/services/access_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/HenshawIII/chainfrenTivi/internal/database"
	"github.com/HenshawIII/chainfrenTivi/internal/gate"
	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
)

// ErrTxAlreadyRecorded means the submitted tx hash settled a different
// payment: another payer, another content, or a donation. One transfer
// unlocks exactly one thing for the wallet that sent it.
var ErrTxAlreadyRecorded = errors.New("transaction already recorded for another payment")

// AccessService is the shared-store side of the gate: it resolves content
// descriptors and answers/updates the paid-address record. It implements
// gate.ContentStore and gate.PaymentRecordStore.
type AccessService struct {
	db      *gorm.DB
	streams *StreamService
	videos  *VideoService
}

func NewAccessService(db *gorm.DB, streams *StreamService, videos *VideoService) *AccessService {
	return &AccessService{db: db, streams: streams, videos: videos}
}

// GetContent loads the gating descriptor for a stream or video. Unknown ids
// and disabled videos both surface as gate.ErrNotFound.
func (s *AccessService) GetContent(ctx context.Context, kind models.ContentType, id string) (*gate.Descriptor, error) {
	switch kind {
	case models.ContentTypeStream:
		stream, err := s.streams.GetByPlaybackID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrStreamNotFound) {
				return nil, gate.ErrNotFound
			}
			return nil, err
		}
		return &gate.Descriptor{
			ID:        stream.PlaybackID,
			Kind:      models.ContentTypeStream,
			CreatorID: stream.CreatorID,
			Name:      stream.StreamName,
			ViewMode:  stream.ViewMode,
			Amount:    stream.Amount,
		}, nil

	case models.ContentTypeVideo:
		video, err := s.videos.GetByPlaybackID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrVideoNotFound) {
				return nil, gate.ErrNotFound
			}
			return nil, err
		}
		if video.Disabled {
			return nil, gate.ErrNotFound
		}
		return &gate.Descriptor{
			ID:        video.PlaybackID,
			Kind:      models.ContentTypeVideo,
			CreatorID: video.CreatorID,
			Name:      video.AssetName,
			ViewMode:  video.ViewMode,
			Amount:    video.Amount,
		}, nil
	}

	return nil, fmt.Errorf("unsupported content type %q", kind)
}

// IsPaid reports whether the viewer holds current paid access. For one-time
// content membership in the paid-address set is sufficient and permanent.
// For monthly content the set alone is not trusted: there must also be an
// access receipt that has not lapsed, so expiry is decided here rather than
// on the viewer's device.
func (s *AccessService) IsPaid(ctx context.Context, kind models.ContentType, contentID string, viewer identity.Identity, now time.Time) (bool, error) {
	if !viewer.Present() {
		return false, nil
	}

	desc, err := s.GetContent(ctx, kind, contentID)
	if err != nil {
		return false, err
	}

	member, err := s.isMember(ctx, kind, contentID, viewer.Address)
	if err != nil {
		return false, err
	}
	if !member {
		return false, nil
	}

	if desc.ViewMode != models.ViewModeMonthly {
		return true, nil
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.PaymentReceipt{}).
		Where("content_type = ? AND content_id = ? AND payer = ? AND kind = ?",
			kind, contentID, strings.ToLower(viewer.Address), models.PaymentKindAccess).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}

	return count > 0, nil
}

// RecordPayment durably marks the viewer as paid: one receipt row plus an
// idempotent append to the content's paid-address set, in one transaction.
// Replaying the same settled tx (same txRef) changes nothing and succeeds.
func (s *AccessService) RecordPayment(ctx context.Context, desc gate.Descriptor, viewer identity.Identity, txRef string, paidAt time.Time) error {
	if !viewer.Present() {
		return errors.New("cannot record payment without a viewer identity")
	}

	receipt := models.PaymentReceipt{
		ContentType: desc.Kind,
		ContentID:   desc.ID,
		Payer:       strings.ToLower(viewer.Address),
		Recipient:   strings.ToLower(desc.CreatorID),
		ViewMode:    desc.ViewMode,
		Kind:        models.PaymentKindAccess,
		Amount:      desc.Amount,
		TxHash:      strings.ToLower(txRef),
		PaidAt:      paidAt,
	}
	if desc.ViewMode == models.ViewModeMonthly {
		expires := paidAt.Add(gate.MonthlyAccessWindow)
		receipt.ExpiresAt = &expires
	}

	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var existing models.PaymentReceipt
		err := tx.Where("tx_hash = ?", receipt.TxHash).First(&existing).Error
		switch {
		case err == nil:
			// Only the original payer replaying the original purchase is
			// idempotent. Anyone else citing this hash is reusing a
			// payment that was not theirs, or stretching one payment over
			// a second piece of content.
			if !receiptReplayMatches(&existing, &receipt) {
				return ErrTxAlreadyRecorded
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&receipt).Error; err != nil {
				return fmt.Errorf("failed to save receipt: %w", err)
			}
		default:
			return fmt.Errorf("database error: %w", err)
		}

		return s.appendPaidAddress(tx, desc.Kind, desc.ID, viewer.Address)
	})
}

// receiptReplayMatches reports whether a new access receipt is a true replay
// of an existing one: same payer, same content, same purpose.
func receiptReplayMatches(existing, incoming *models.PaymentReceipt) bool {
	return existing.Kind == incoming.Kind &&
		existing.ContentType == incoming.ContentType &&
		existing.ContentID == incoming.ContentID &&
		strings.EqualFold(existing.Payer, incoming.Payer)
}

// RecordDonation saves a settled donation receipt and appends the amount to
// the content's donation list. Donations never grant access.
func (s *AccessService) RecordDonation(ctx context.Context, desc gate.Descriptor, viewer identity.Identity, txRef string, amount float64, paidAt time.Time) error {
	receipt := models.PaymentReceipt{
		ContentType: desc.Kind,
		ContentID:   desc.ID,
		Payer:       strings.ToLower(viewer.Address),
		Recipient:   strings.ToLower(desc.CreatorID),
		ViewMode:    desc.ViewMode,
		Kind:        models.PaymentKindDonation,
		Amount:      amount,
		TxHash:      strings.ToLower(txRef),
		PaidAt:      paidAt,
	}

	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var existing models.PaymentReceipt
		err := tx.Where("tx_hash = ?", receipt.TxHash).First(&existing).Error
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return fmt.Errorf("database error: %w", err)
		}

		if err := tx.Create(&receipt).Error; err != nil {
			return fmt.Errorf("failed to save receipt: %w", err)
		}

		if desc.Kind == models.ContentTypeStream {
			var stream models.Stream
			if err := tx.Clauses(forUpdate()).Where("playback_id = ?", desc.ID).First(&stream).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			stream.Donations = append(stream.Donations, amount)
			if err := tx.Model(&stream).Update("donations", stream.Donations).Error; err != nil {
				return fmt.Errorf("failed to record donation: %w", err)
			}
		}
		return nil
	})
}

// ChannelAccess summarizes a viewer's standing across a creator's catalog:
// which streams and videos they can already watch and which still need
// payment. Backs the channel page.
type ChannelAccess struct {
	CreatorID string          `json:"creator_id"`
	Streams   []ContentAccess `json:"streams"`
	Videos    []ContentAccess `json:"videos"`
}

type ContentAccess struct {
	PlaybackID string          `json:"playback_id"`
	Name       string          `json:"name"`
	ViewMode   models.ViewMode `json:"view_mode"`
	Amount     float64         `json:"amount"`
	Granted    bool            `json:"granted"`
	Reason     gate.Reason     `json:"reason"`
}

func (s *AccessService) ChannelAccess(ctx context.Context, creatorID string, viewer identity.Identity, now time.Time) (*ChannelAccess, error) {
	streams, err := s.streams.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	videos, err := s.videos.ListByCreator(ctx, creatorID, false)
	if err != nil {
		return nil, err
	}

	summary := &ChannelAccess{
		CreatorID: strings.ToLower(creatorID),
		Streams:   make([]ContentAccess, 0, len(streams)),
		Videos:    make([]ContentAccess, 0, len(videos)),
	}

	for _, st := range streams {
		desc := gate.Descriptor{
			ID: st.PlaybackID, Kind: models.ContentTypeStream,
			CreatorID: st.CreatorID, Name: st.StreamName,
			ViewMode: st.ViewMode, Amount: st.Amount,
		}
		summary.Streams = append(summary.Streams, s.contentAccess(ctx, desc, viewer, now))
	}
	for _, v := range videos {
		desc := gate.Descriptor{
			ID: v.PlaybackID, Kind: models.ContentTypeVideo,
			CreatorID: v.CreatorID, Name: v.AssetName,
			ViewMode: v.ViewMode, Amount: v.Amount,
		}
		summary.Videos = append(summary.Videos, s.contentAccess(ctx, desc, viewer, now))
	}

	return summary, nil
}

func (s *AccessService) contentAccess(ctx context.Context, desc gate.Descriptor, viewer identity.Identity, now time.Time) ContentAccess {
	var remote *gate.RemoteRecord
	if paid, err := s.IsPaid(ctx, desc.Kind, desc.ID, viewer, now); err == nil {
		remote = &gate.RemoteRecord{Member: paid}
	}

	decision := gate.Evaluate(desc, viewer, remote, nil, now)

	return ContentAccess{
		PlaybackID: desc.ID,
		Name:       desc.Name,
		ViewMode:   desc.ViewMode,
		Amount:     desc.Amount,
		Granted:    decision.Granted,
		Reason:     decision.Reason,
	}
}

func (s *AccessService) isMember(ctx context.Context, kind models.ContentType, contentID, addr string) (bool, error) {
	switch kind {
	case models.ContentTypeStream:
		stream, err := s.streams.GetByPlaybackID(ctx, contentID)
		if err != nil {
			return false, err
		}
		return stream.HasPaidAddress(addr), nil
	case models.ContentTypeVideo:
		video, err := s.videos.GetByPlaybackID(ctx, contentID)
		if err != nil {
			return false, err
		}
		return video.HasPaidAddress(addr), nil
	}
	return false, fmt.Errorf("unsupported content type %q", kind)
}

func (s *AccessService) appendPaidAddress(tx *gorm.DB, kind models.ContentType, contentID, addr string) error {
	switch kind {
	case models.ContentTypeStream:
		return addStreamPaidAddress(tx, contentID, addr)
	case models.ContentTypeVideo:
		return addVideoPaidAddress(tx, contentID, addr)
	}
	return fmt.Errorf("unsupported content type %q", kind)
}
