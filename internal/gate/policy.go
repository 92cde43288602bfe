// internal/gate/policy.go
package gate

import (
	"time"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
)

type Reason string

const (
	ReasonFreeContent     Reason = "free_content"
	ReasonCreator         Reason = "creator"
	ReasonPaid            Reason = "paid"
	ReasonLocalRecord     Reason = "local_record"
	ReasonPaymentRequired Reason = "payment_required"
)

// PaymentTerms is carried on a payment_required decision so the caller can
// render a prompt without re-fetching the descriptor.
type PaymentTerms struct {
	ViewMode  models.ViewMode `json:"view_mode"`
	Amount    float64         `json:"amount"`
	Currency  string          `json:"currency"`
	Recipient string          `json:"recipient"`
}

type Decision struct {
	Granted bool          `json:"granted"`
	Reason  Reason        `json:"reason"`
	Terms   *PaymentTerms `json:"terms,omitempty"`
}

// Currency is the display unit for payment prompts. Settlement happens in
// the configured token's minor units regardless.
const Currency = "USDC"

// Evaluate decides access for a viewer against a content descriptor.
// First match wins: free content, creator preview, shared paid record,
// valid local record, otherwise payment required. It is pure: no side
// effects, and deterministic for a given now.
//
// An absent viewer identity never grants non-free content and never
// panics; remote and local may both be nil.
func Evaluate(desc Descriptor, viewer identity.Identity, remote *RemoteRecord, local *LocalRecord, now time.Time) Decision {
	if desc.ViewMode == models.ViewModeFree {
		return Decision{Granted: true, Reason: ReasonFreeContent}
	}

	if viewer.Present() && viewer.Matches(desc.CreatorID) {
		return Decision{Granted: true, Reason: ReasonCreator}
	}

	if remote != nil && remote.Member {
		return Decision{Granted: true, Reason: ReasonPaid}
	}

	if viewer.Present() && local.ValidAt(desc.ID, now) {
		return Decision{Granted: true, Reason: ReasonLocalRecord}
	}

	return Decision{
		Granted: false,
		Reason:  ReasonPaymentRequired,
		Terms: &PaymentTerms{
			ViewMode:  desc.ViewMode,
			Amount:    desc.Amount,
			Currency:  Currency,
			Recipient: desc.CreatorID,
		},
	}
}
