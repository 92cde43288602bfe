// internal/services/access_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HenshawIII/chainfrenTivi/internal/models"
)

const recordedTx = "0x2222222222222222222222222222222222222222222222222222222222222222"

func accessReceipt(payer, contentID string) models.PaymentReceipt {
	return models.PaymentReceipt{
		ContentType: models.ContentTypeStream,
		ContentID:   contentID,
		Payer:       payer,
		Kind:        models.PaymentKindAccess,
		TxHash:      recordedTx,
	}
}

// One settled transfer unlocks exactly one purchase for the wallet that
// sent it. A hash already on file only counts as an idempotent replay when
// payer, content, and purpose all match the existing receipt.
func TestReceiptReplayMatching(t *testing.T) {
	existing := accessReceipt("0xabc0000000000000000000000000000000000001", "pb-stream-1")

	t.Run("same payer same content matches", func(t *testing.T) {
		incoming := accessReceipt("0xabc0000000000000000000000000000000000001", "pb-stream-1")
		assert.True(t, receiptReplayMatches(&existing, &incoming))
	})

	t.Run("payer casing is ignored", func(t *testing.T) {
		incoming := accessReceipt("0xABC0000000000000000000000000000000000001", "pb-stream-1")
		assert.True(t, receiptReplayMatches(&existing, &incoming))
	})

	t.Run("different payer rejected", func(t *testing.T) {
		incoming := accessReceipt("0xdef0000000000000000000000000000000000002", "pb-stream-1")
		assert.False(t, receiptReplayMatches(&existing, &incoming))
	})

	t.Run("different content rejected", func(t *testing.T) {
		incoming := accessReceipt("0xabc0000000000000000000000000000000000001", "pb-stream-2")
		assert.False(t, receiptReplayMatches(&existing, &incoming))
	})

	t.Run("different content type rejected", func(t *testing.T) {
		incoming := accessReceipt("0xabc0000000000000000000000000000000000001", "pb-stream-1")
		incoming.ContentType = models.ContentTypeVideo
		assert.False(t, receiptReplayMatches(&existing, &incoming))
	})

	t.Run("donation hash cannot be replayed for access", func(t *testing.T) {
		donation := accessReceipt("0xabc0000000000000000000000000000000000001", "pb-stream-1")
		donation.Kind = models.PaymentKindDonation
		incoming := accessReceipt("0xabc0000000000000000000000000000000000001", "pb-stream-1")
		assert.False(t, receiptReplayMatches(&donation, &incoming))
	})
}
