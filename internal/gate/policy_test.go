// internal/gate/policy_test.go
package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
)

const (
	creatorAddr = "0xAbC0000000000000000000000000000000000001"
	viewerAddr  = "0xDeF0000000000000000000000000000000000002"
)

func paidStream(mode models.ViewMode) Descriptor {
	return Descriptor{
		ID:        "pb-123",
		Kind:      models.ContentTypeStream,
		CreatorID: creatorAddr,
		Name:      "main stage",
		ViewMode:  mode,
		Amount:    4.99,
	}
}

func TestEvaluateFreeContentAlwaysGranted(t *testing.T) {
	desc := paidStream(models.ViewModeFree)
	now := time.Now()

	for _, viewer := range []identity.Identity{identity.None(), identity.Wallet(viewerAddr)} {
		d := Evaluate(desc, viewer, nil, nil, now)
		assert.True(t, d.Granted)
		assert.Equal(t, ReasonFreeContent, d.Reason)
		assert.Nil(t, d.Terms)
	}
}

func TestEvaluateCreatorPreview(t *testing.T) {
	desc := paidStream(models.ViewModeOneTime)
	now := time.Now()

	d := Evaluate(desc, identity.Wallet(creatorAddr), nil, nil, now)
	assert.True(t, d.Granted)
	assert.Equal(t, ReasonCreator, d.Reason)
}

func TestEvaluateCreatorMatchIgnoresCase(t *testing.T) {
	desc := paidStream(models.ViewModeMonthly)

	lower := identity.Wallet("0xabc0000000000000000000000000000000000001")
	d := Evaluate(desc, lower, nil, nil, time.Now())
	assert.True(t, d.Granted)
	assert.Equal(t, ReasonCreator, d.Reason)
}

func TestEvaluateRemoteMembership(t *testing.T) {
	desc := paidStream(models.ViewModeOneTime)

	d := Evaluate(desc, identity.Wallet(viewerAddr), &RemoteRecord{Member: true}, nil, time.Now())
	assert.True(t, d.Granted)
	assert.Equal(t, ReasonPaid, d.Reason)
}

func TestEvaluateCreatorBeatsRemoteRecord(t *testing.T) {
	desc := paidStream(models.ViewModeOneTime)

	d := Evaluate(desc, identity.Wallet(creatorAddr), &RemoteRecord{Member: true}, nil, time.Now())
	assert.Equal(t, ReasonCreator, d.Reason)
}

func TestEvaluateLocalRecordOneTime(t *testing.T) {
	desc := paidStream(models.ViewModeOneTime)
	now := time.Now()

	local := &LocalRecord{
		ContentID: desc.ID,
		ViewMode:  models.ViewModeOneTime,
		Amount:    desc.Amount,
		TxRef:     "0xfeed",
		PaidAt:    now.Add(-90 * 24 * time.Hour),
	}

	// One-time records never lapse, however old.
	d := Evaluate(desc, identity.Wallet(viewerAddr), &RemoteRecord{Member: false}, local, now)
	assert.True(t, d.Granted)
	assert.Equal(t, ReasonLocalRecord, d.Reason)
}

func TestEvaluateLocalRecordMonthlyExpiry(t *testing.T) {
	desc := paidStream(models.ViewModeMonthly)
	now := time.Now()

	fresh := now.Add(10 * 24 * time.Hour)
	stale := now.Add(-time.Minute)

	valid := &LocalRecord{ContentID: desc.ID, ViewMode: models.ViewModeMonthly, ExpiresAt: &fresh}
	expired := &LocalRecord{ContentID: desc.ID, ViewMode: models.ViewModeMonthly, ExpiresAt: &stale}

	d := Evaluate(desc, identity.Wallet(viewerAddr), nil, valid, now)
	assert.True(t, d.Granted)
	assert.Equal(t, ReasonLocalRecord, d.Reason)

	d = Evaluate(desc, identity.Wallet(viewerAddr), nil, expired, now)
	assert.False(t, d.Granted)
	assert.Equal(t, ReasonPaymentRequired, d.Reason)
}

func TestEvaluateLocalRecordForOtherContentIgnored(t *testing.T) {
	desc := paidStream(models.ViewModeOneTime)

	local := &LocalRecord{ContentID: "pb-999", ViewMode: models.ViewModeOneTime}
	d := Evaluate(desc, identity.Wallet(viewerAddr), nil, local, time.Now())
	assert.False(t, d.Granted)
}

func TestEvaluateAnonymousViewerNeverGrantedPaidContent(t *testing.T) {
	desc := paidStream(models.ViewModeOneTime)

	// Even with a (nonsensical) local record present, no identity means no
	// non-free grant.
	local := &LocalRecord{ContentID: desc.ID, ViewMode: models.ViewModeOneTime}
	d := Evaluate(desc, identity.None(), nil, local, time.Now())
	assert.False(t, d.Granted)
	assert.Equal(t, ReasonPaymentRequired, d.Reason)
}

func TestEvaluatePaymentRequiredCarriesTerms(t *testing.T) {
	desc := paidStream(models.ViewModeMonthly)

	d := Evaluate(desc, identity.Wallet(viewerAddr), &RemoteRecord{Member: false}, nil, time.Now())
	assert.False(t, d.Granted)
	require.NotNil(t, d.Terms)
	assert.Equal(t, models.ViewModeMonthly, d.Terms.ViewMode)
	assert.Equal(t, 4.99, d.Terms.Amount)
	assert.Equal(t, Currency, d.Terms.Currency)
	assert.Equal(t, creatorAddr, d.Terms.Recipient)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	desc := paidStream(models.ViewModeOneTime)
	now := time.Now()
	viewer := identity.Wallet(viewerAddr)

	first := Evaluate(desc, viewer, nil, nil, now)
	second := Evaluate(desc, viewer, nil, nil, now)
	assert.Equal(t, first, second)
}
