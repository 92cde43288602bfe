// internal/gate/gate.go
package gate

import (
	"context"
	"errors"
	"time"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
)

// ErrNotFound is returned by a ContentStore when no content exists for the
// requested id. The controller maps it to a terminal NotFound state rather
// than a payment prompt.
var ErrNotFound = errors.New("content not found")

// Descriptor is the gating view of a stream or video: the two are
// structurally identical for access decisions.
type Descriptor struct {
	ID        string             `json:"id"`
	Kind      models.ContentType `json:"kind"`
	CreatorID string             `json:"creator_id"`
	Name      string             `json:"name"`
	ViewMode  models.ViewMode    `json:"view_mode"`
	Amount    float64            `json:"amount"`
}

// RemoteRecord is the shared store's answer to "has this viewer paid".
// For monthly content the store already folds receipt expiry into Member,
// so the policy never has to reason about server-side clocks.
type RemoteRecord struct {
	Member bool
}

// LocalRecord is the device-local fallback payment record, created when the
// shared store could not be updated after a settled payment. It is advisory
// only and carries its own expiry.
type LocalRecord struct {
	ContentID string          `json:"content_id"`
	ViewMode  models.ViewMode `json:"view_mode"`
	Amount    float64         `json:"amount"`
	TxRef     string          `json:"tx_ref"`
	PaidAt    time.Time       `json:"paid_at"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// ValidAt reports whether the record vouches for contentID at the given
// instant. One-time records never lapse; monthly ones die with ExpiresAt.
func (r *LocalRecord) ValidAt(contentID string, now time.Time) bool {
	if r == nil || r.ContentID != contentID {
		return false
	}
	switch r.ViewMode {
	case models.ViewModeOneTime:
		return true
	case models.ViewModeMonthly:
		return r.ExpiresAt != nil && now.Before(*r.ExpiresAt)
	}
	return false
}

// ContentStore loads content descriptors from the shared backing store.
type ContentStore interface {
	GetContent(ctx context.Context, kind models.ContentType, id string) (*Descriptor, error)
}

// PaymentRecordStore is the shared record of who has paid for what.
// RecordPayment must be an idempotent append: recording the same viewer
// twice leaves the paid set unchanged.
type PaymentRecordStore interface {
	IsPaid(ctx context.Context, kind models.ContentType, contentID string, viewer identity.Identity, now time.Time) (bool, error)
	RecordPayment(ctx context.Context, desc Descriptor, viewer identity.Identity, txRef string, paidAt time.Time) error
}

// LocalStore persists fallback payment records on the viewer's behalf.
type LocalStore interface {
	Get(contentID string, viewer identity.Identity) (*LocalRecord, error)
	Put(viewer identity.Identity, record LocalRecord) error
}
