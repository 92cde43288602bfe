// internal/handlers/access_test.go
package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
	"github.com/HenshawIII/chainfrenTivi/internal/payments"
)

func testAccessHandler() *AccessHandler {
	return NewAccessHandler(nil, nil, nil, nil, payments.ModeToken, 6)
}

func TestControllerCacheReusesSession(t *testing.T) {
	h := testAccessHandler()
	viewer := identity.Wallet("0xAbC0000000000000000000000000000000000001")

	first := h.controllerFor(models.ContentTypeStream, "pb1", viewer)
	second := h.controllerFor(models.ContentTypeStream, "pb1", viewer)
	assert.Same(t, first, second)

	// Different content or viewer gets its own session.
	other := h.controllerFor(models.ContentTypeStream, "pb2", viewer)
	assert.NotSame(t, first, other)
}

func TestControllerCacheKeyIgnoresAddressCase(t *testing.T) {
	h := testAccessHandler()

	first := h.controllerFor(models.ContentTypeStream, "pb1", identity.Wallet("0xabc0000000000000000000000000000000000001"))
	second := h.controllerFor(models.ContentTypeStream, "pb1", identity.Wallet("0xABC0000000000000000000000000000000000001"))
	assert.Same(t, first, second)
}

func TestControllerCacheEvictsIdleSessions(t *testing.T) {
	h := testAccessHandler()
	viewer := identity.Wallet("0xAbC0000000000000000000000000000000000001")

	h.controllerFor(models.ContentTypeStream, "pb1", viewer)

	// Age the session past the idle TTL and make the next access sweep.
	h.mu.Lock()
	require.Len(t, h.gates, 1)
	for _, entry := range h.gates {
		entry.lastSeen = time.Now().Add(-gateIdleTTL - time.Minute)
	}
	h.lastSweep = time.Time{}
	h.mu.Unlock()

	h.controllerFor(models.ContentTypeVideo, "pb2", viewer)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Len(t, h.gates, 1)
	_, stale := h.gates["stream|pb1|0xabc0000000000000000000000000000000000001"]
	assert.False(t, stale)
}

func TestControllerCacheKeepsFreshSessions(t *testing.T) {
	h := testAccessHandler()
	viewer := identity.Wallet("0xAbC0000000000000000000000000000000000001")

	h.controllerFor(models.ContentTypeStream, "pb1", viewer)

	h.mu.Lock()
	h.lastSweep = time.Time{}
	h.mu.Unlock()

	h.controllerFor(models.ContentTypeVideo, "pb2", viewer)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Len(t, h.gates, 2)
}
