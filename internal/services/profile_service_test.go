// internal/services/profile_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribeToOwnChannelRejected(t *testing.T) {
	// The check runs before any DB access.
	svc := NewProfileService(nil)

	_, err := svc.Subscribe(context.Background(), "0xAbC0000000000000000000000000000000000001", "0xAbC0000000000000000000000000000000000001")
	assert.ErrorIs(t, err, ErrSelfSubscription)
}

func TestSubscribeToOwnChannelRejectedCaseInsensitive(t *testing.T) {
	svc := NewProfileService(nil)

	_, err := svc.Subscribe(context.Background(), "0xabc0000000000000000000000000000000000001", "0xABC0000000000000000000000000000000000001")
	assert.ErrorIs(t, err, ErrSelfSubscription)
}
