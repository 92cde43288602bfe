// internal/models/payment.go
package models

import "time"

// PaymentReceipt is the durable record of a settled unlock or donation.
// ExpiresAt is nil for one-time unlocks and paid_at + 30 days for monthly
// ones; monthly access is decided against this row, not against the
// content's paid-address list alone, so expiry survives device changes.
type PaymentReceipt struct {
	BaseModel
	ContentType ContentType `json:"content_type" gorm:"type:varchar(10);not null;index:idx_receipts_content"`
	ContentID   string      `json:"content_id" gorm:"size:100;not null;index:idx_receipts_content"`
	Payer       string      `json:"payer" gorm:"size:42;not null;index"`
	Recipient   string      `json:"recipient" gorm:"size:42;not null"`
	ViewMode    ViewMode    `json:"view_mode" gorm:"type:varchar(10);not null"`
	Kind        PaymentKind `json:"kind" gorm:"type:varchar(10);default:'access';not null"`
	Amount      float64     `json:"amount" gorm:"type:decimal(10,2);not null"`
	TxHash      string      `json:"tx_hash" gorm:"size:66;uniqueIndex"`
	PaidAt      time.Time   `json:"paid_at" gorm:"not null"`
	ExpiresAt   *time.Time  `json:"expires_at" gorm:"index"`
}

// ActiveAt reports whether the receipt still grants access at the given
// instant. One-time receipts never lapse.
func (r *PaymentReceipt) ActiveAt(now time.Time) bool {
	if r.Kind != PaymentKindAccess {
		return false
	}
	if r.ExpiresAt == nil {
		return true
	}
	return now.Before(*r.ExpiresAt)
}
