// internal/gate/controller_test.go
package gate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
	"github.com/HenshawIII/chainfrenTivi/internal/payments"
)

type fakeContent struct {
	mu   sync.Mutex
	desc *Descriptor
	err  error
}

func (f *fakeContent) GetContent(ctx context.Context, kind models.ContentType, id string) (*Descriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	d := *f.desc
	return &d, nil
}

type fakeRecords struct {
	mu        sync.Mutex
	members   map[string]bool
	isPaidErr error
	recordErr error
	recorded  []string
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{members: make(map[string]bool)}
}

func (f *fakeRecords) key(contentID string, viewer identity.Identity) string {
	return contentID + "|" + strings.ToLower(viewer.Address)
}

func (f *fakeRecords) IsPaid(ctx context.Context, kind models.ContentType, contentID string, viewer identity.Identity, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isPaidErr != nil {
		return false, f.isPaidErr
	}
	return f.members[f.key(contentID, viewer)], nil
}

func (f *fakeRecords) RecordPayment(ctx context.Context, desc Descriptor, viewer identity.Identity, txRef string, paidAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.members[f.key(desc.ID, viewer)] = true
	f.recorded = append(f.recorded, txRef)
	return nil
}

type fakeLocal struct {
	mu      sync.Mutex
	records map[string]LocalRecord
	getErr  error
	putErr  error
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{records: make(map[string]LocalRecord)}
}

func (f *fakeLocal) Get(contentID string, viewer identity.Identity) (*LocalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if r, ok := f.records[contentID+"|"+strings.ToLower(viewer.Address)]; ok {
		record := r
		return &record, nil
	}
	return nil, nil
}

func (f *fakeLocal) Put(viewer identity.Identity, record LocalRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.records[record.ContentID+"|"+strings.ToLower(viewer.Address)] = record
	return nil
}

type fakeExecutor struct {
	mu       sync.Mutex
	readyErr error
	txRef    string
	execErr  error
	release  chan struct{}
	calls    int
}

func (f *fakeExecutor) Ready(ctx context.Context, payer identity.Identity) error {
	return f.readyErr
}

func (f *fakeExecutor) Execute(ctx context.Context, payer, recipient identity.Identity, amount float64, mode payments.Mode) (string, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.execErr != nil {
		return "", f.execErr
	}
	return f.txRef, nil
}

func testDeps(content *fakeContent, records *fakeRecords, local *fakeLocal, exec *fakeExecutor) Deps {
	return Deps{
		Content:  content,
		Records:  records,
		Local:    local,
		Executor: exec,
		Mode:     payments.ModeToken,
	}
}

func oneTimeDesc() *Descriptor {
	return &Descriptor{
		ID:        "pb-123",
		Kind:      models.ContentTypeStream,
		CreatorID: creatorAddr,
		Name:      "main stage",
		ViewMode:  models.ViewModeOneTime,
		Amount:    4.99,
	}
}

func TestResolveFreeContent(t *testing.T) {
	desc := oneTimeDesc()
	desc.ViewMode = models.ViewModeFree

	ctrl := NewController(
		testDeps(&fakeContent{desc: desc}, newFakeRecords(), newFakeLocal(), &fakeExecutor{}),
		models.ContentTypeStream, desc.ID, identity.None())

	status, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateGranted, status.State)
	require.NotNil(t, status.Decision)
	assert.Equal(t, ReasonFreeContent, status.Decision.Reason)
}

func TestResolveNotFoundIsTerminal(t *testing.T) {
	content := &fakeContent{err: ErrNotFound}
	ctrl := NewController(
		testDeps(content, newFakeRecords(), newFakeLocal(), &fakeExecutor{}),
		models.ContentTypeStream, "missing", identity.Wallet(viewerAddr))

	status, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, status.State)
	assert.Nil(t, status.Decision)

	// Content appearing later does not resurrect the gate.
	content.mu.Lock()
	content.err = nil
	content.desc = oneTimeDesc()
	content.mu.Unlock()

	status, err = ctrl.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateNotFound, status.State)
}

func TestResolveAnonymousViewerPaidContent(t *testing.T) {
	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, newFakeRecords(), newFakeLocal(), &fakeExecutor{}),
		models.ContentTypeStream, "pb-123", identity.None())

	status, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePaymentRequired, status.State)
	assert.False(t, status.PayAvailable)
	assert.Equal(t, PayHintIdentityUnavailable, status.PayHint)
	require.NotNil(t, status.Decision)
	require.NotNil(t, status.Decision.Terms)
	assert.Equal(t, 4.99, status.Decision.Terms.Amount)
}

func TestResolveGrantedIsSticky(t *testing.T) {
	records := newFakeRecords()
	viewer := identity.Wallet(viewerAddr)
	records.members["pb-123|"+strings.ToLower(viewerAddr)] = true

	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, records, newFakeLocal(), &fakeExecutor{}),
		models.ContentTypeStream, "pb-123", viewer)

	status, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateGranted, status.State)

	// The record disappearing later must not re-prompt this session.
	records.mu.Lock()
	records.members = map[string]bool{}
	records.mu.Unlock()

	status, err = ctrl.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateGranted, status.State)
}

func TestResolveRecordLookupFailureDegrades(t *testing.T) {
	records := newFakeRecords()
	records.isPaidErr = errors.New("store down")
	local := newFakeLocal()
	local.getErr = errors.New("disk gone")

	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, records, local, &fakeExecutor{}),
		models.ContentTypeStream, "pb-123", identity.Wallet(viewerAddr))

	// Both record lookups failing still settles the gate, to a prompt.
	status, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePaymentRequired, status.State)
}

func TestPaySuccess(t *testing.T) {
	records := newFakeRecords()
	exec := &fakeExecutor{txRef: "0xfeedbeef"}
	viewer := identity.Wallet(viewerAddr)

	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, records, newFakeLocal(), exec),
		models.ContentTypeStream, "pb-123", viewer)

	_, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)

	status, err := ctrl.Pay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateGranted, status.State)
	assert.Equal(t, "0xfeedbeef", status.TxRef)
	assert.Empty(t, status.Warning)
	require.NotNil(t, status.Decision)
	assert.Equal(t, ReasonPaid, status.Decision.Reason)

	records.mu.Lock()
	assert.Equal(t, []string{"0xfeedbeef"}, records.recorded)
	records.mu.Unlock()
}

func TestPayBeforeResolveNotPayable(t *testing.T) {
	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, newFakeRecords(), newFakeLocal(), &fakeExecutor{}),
		models.ContentTypeStream, "pb-123", identity.Wallet(viewerAddr))

	_, err := ctrl.Pay(context.Background())
	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestPayWithoutIdentity(t *testing.T) {
	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, newFakeRecords(), newFakeLocal(), &fakeExecutor{}),
		models.ContentTypeStream, "pb-123", identity.None())

	_, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)

	_, err = ctrl.Pay(context.Background())
	assert.ErrorIs(t, err, ErrIdentityUnavailable)
}

func TestPayUserRejectedThenRetry(t *testing.T) {
	exec := &fakeExecutor{
		execErr: &payments.PaymentError{Kind: payments.ErrUserRejected, Err: errors.New("declined")},
	}
	records := newFakeRecords()

	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, records, newFakeLocal(), exec),
		models.ContentTypeStream, "pb-123", identity.Wallet(viewerAddr))

	_, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)

	status, err := ctrl.Pay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePaymentRequired, status.State)
	require.NotNil(t, status.PaymentError)
	assert.Equal(t, payments.ErrUserRejected, status.PaymentError.Kind)

	records.mu.Lock()
	assert.Empty(t, records.recorded)
	records.mu.Unlock()

	// A rejection is not terminal: the viewer can try again.
	exec.mu.Lock()
	exec.execErr = nil
	exec.txRef = "0xretry"
	exec.mu.Unlock()

	status, err = ctrl.Pay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateGranted, status.State)
	assert.Equal(t, "0xretry", status.TxRef)
}

func TestPayRecordFailureKeepsAccessLocally(t *testing.T) {
	records := newFakeRecords()
	records.recordErr = errors.New("store down")
	local := newFakeLocal()
	exec := &fakeExecutor{txRef: "0xsettled"}
	viewer := identity.Wallet(viewerAddr)

	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, records, local, exec),
		models.ContentTypeStream, "pb-123", viewer)

	_, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)

	status, err := ctrl.Pay(context.Background())
	require.NoError(t, err)

	// Funds moved, so the viewer keeps access despite the failed sync.
	assert.Equal(t, StateGranted, status.State)
	assert.NotEmpty(t, status.Warning)
	require.NotNil(t, status.Decision)
	assert.Equal(t, ReasonLocalRecord, status.Decision.Reason)

	record, err := local.Get("pb-123", viewer)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "0xsettled", record.TxRef)
}

func TestPaySecondAttemptWhileInFlight(t *testing.T) {
	exec := &fakeExecutor{txRef: "0xslow", release: make(chan struct{})}

	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, newFakeRecords(), newFakeLocal(), exec),
		models.ContentTypeStream, "pb-123", identity.Wallet(viewerAddr))

	_, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)

	done := make(chan Status, 1)
	go func() {
		status, payErr := ctrl.Pay(context.Background())
		require.NoError(t, payErr)
		done <- status
	}()

	// Wait for the first attempt to reach the executor.
	require.Eventually(t, func() bool {
		exec.mu.Lock()
		defer exec.mu.Unlock()
		return exec.calls == 1
	}, time.Second, 5*time.Millisecond)

	_, err = ctrl.Pay(context.Background())
	assert.ErrorIs(t, err, ErrPaymentInFlight)

	close(exec.release)
	status := <-done
	assert.Equal(t, StateGranted, status.State)

	exec.mu.Lock()
	assert.Equal(t, 1, exec.calls)
	exec.mu.Unlock()
}

func TestPayCancelledMidFlight(t *testing.T) {
	exec := &fakeExecutor{txRef: "0xnever", release: make(chan struct{})}

	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, newFakeRecords(), newFakeLocal(), exec),
		models.ContentTypeStream, "pb-123", identity.Wallet(viewerAddr))

	_, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, payErr := ctrl.Pay(ctx)
		errCh <- payErr
	}()

	require.Eventually(t, func() bool {
		exec.mu.Lock()
		defer exec.mu.Unlock()
		return exec.calls == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	// The gate settles back to a prompt and accepts a fresh attempt.
	status, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePaymentRequired, status.State)
}

func TestPayAfterGrantedIsNoOp(t *testing.T) {
	desc := oneTimeDesc()
	desc.ViewMode = models.ViewModeFree
	exec := &fakeExecutor{}

	ctrl := NewController(
		testDeps(&fakeContent{desc: desc}, newFakeRecords(), newFakeLocal(), exec),
		models.ContentTypeStream, desc.ID, identity.Wallet(viewerAddr))

	_, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)

	status, err := ctrl.Pay(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateGranted, status.State)

	exec.mu.Lock()
	assert.Zero(t, exec.calls)
	exec.mu.Unlock()
}

func TestResolveSigningUnavailableHint(t *testing.T) {
	exec := &fakeExecutor{readyErr: errors.New("wallet provisioning")}

	ctrl := NewController(
		testDeps(&fakeContent{desc: oneTimeDesc()}, newFakeRecords(), newFakeLocal(), exec),
		models.ContentTypeStream, "pb-123", identity.Wallet(viewerAddr))

	status, err := ctrl.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatePaymentRequired, status.State)
	assert.False(t, status.PayAvailable)
	assert.Equal(t, PayHintSigningUnavailable, status.PayHint)
}
