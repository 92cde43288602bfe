// internal/gate/localstore_test.go
package gate

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
)

func openTestStore(t *testing.T) *BoltLocalStore {
	t.Helper()
	store, err := OpenBoltLocalStore(filepath.Join(t.TempDir(), "payments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltLocalStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	viewer := identity.Wallet(viewerAddr)

	paidAt := time.Now().UTC().Truncate(time.Second)
	expires := paidAt.Add(30 * 24 * time.Hour)
	record := LocalRecord{
		ContentID: "pb-123",
		ViewMode:  models.ViewModeMonthly,
		Amount:    4.99,
		TxRef:     "0xfeed",
		PaidAt:    paidAt,
		ExpiresAt: &expires,
	}

	require.NoError(t, store.Put(viewer, record))

	got, err := store.Get("pb-123", viewer)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.TxRef, got.TxRef)
	assert.Equal(t, record.ViewMode, got.ViewMode)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, expires.Equal(*got.ExpiresAt))
}

func TestBoltLocalStoreMissIsNil(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get("pb-unknown", identity.Wallet(viewerAddr))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBoltLocalStoreKeyedPerViewerCaseInsensitive(t *testing.T) {
	store := openTestStore(t)

	record := LocalRecord{ContentID: "pb-123", ViewMode: models.ViewModeOneTime, TxRef: "0xaa"}
	require.NoError(t, store.Put(identity.Wallet(viewerAddr), record))

	// Same wallet, different casing, resolves to the same record.
	got, err := store.Get("pb-123", identity.Wallet(strings.ToUpper(viewerAddr)))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "0xaa", got.TxRef)

	// A different wallet sees nothing.
	other, err := store.Get("pb-123", identity.Wallet(creatorAddr))
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestBoltLocalStoreOverwrite(t *testing.T) {
	store := openTestStore(t)
	viewer := identity.Wallet(viewerAddr)

	require.NoError(t, store.Put(viewer, LocalRecord{ContentID: "pb-123", TxRef: "0xold"}))
	require.NoError(t, store.Put(viewer, LocalRecord{ContentID: "pb-123", TxRef: "0xnew"}))

	got, err := store.Get("pb-123", viewer)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "0xnew", got.TxRef)
}
