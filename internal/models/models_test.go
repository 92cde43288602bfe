// internal/models/models_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStreamHasPaidAddressIgnoresCase(t *testing.T) {
	s := &Stream{PaidAddresses: []string{"0xabc0000000000000000000000000000000000001"}}

	assert.True(t, s.HasPaidAddress("0xABC0000000000000000000000000000000000001"))
	assert.True(t, s.HasPaidAddress("0xabc0000000000000000000000000000000000001"))
	assert.False(t, s.HasPaidAddress("0xdef0000000000000000000000000000000000002"))
}

func TestVideoHasPaidAddress(t *testing.T) {
	v := &Video{PaidAddresses: []string{"0xAbC0000000000000000000000000000000000001"}}

	assert.True(t, v.HasPaidAddress("0xabc0000000000000000000000000000000000001"))
	assert.False(t, v.HasPaidAddress(""))
}

func TestProfileSubscribed(t *testing.T) {
	p := &Profile{Channels: []string{"0xabc0000000000000000000000000000000000001"}}

	assert.True(t, p.Subscribed("0xABC0000000000000000000000000000000000001"))
	assert.False(t, p.Subscribed("0xdef0000000000000000000000000000000000002"))
}

func TestViewModeValid(t *testing.T) {
	assert.True(t, ViewModeFree.Valid())
	assert.True(t, ViewModeOneTime.Valid())
	assert.True(t, ViewModeMonthly.Valid())
	assert.False(t, ViewMode("weekly").Valid())
	assert.False(t, ViewMode("").Valid())
}

func TestPaymentReceiptActiveAt(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	oneTime := &PaymentReceipt{Kind: PaymentKindAccess}
	assert.True(t, oneTime.ActiveAt(now))

	monthly := &PaymentReceipt{Kind: PaymentKindAccess, ExpiresAt: &future}
	assert.True(t, monthly.ActiveAt(now))

	lapsed := &PaymentReceipt{Kind: PaymentKindAccess, ExpiresAt: &past}
	assert.False(t, lapsed.ActiveAt(now))

	donation := &PaymentReceipt{Kind: PaymentKindDonation}
	assert.False(t, donation.ActiveAt(now))
}
