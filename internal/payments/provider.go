// internal/payments/provider.go
package payments

import (
	"context"
	"errors"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
)

// StaticProvider hands every payer the same custodial session signer. Used
// when the server holds the session wallet; a nil or empty provider means
// signing is unavailable and the gate reports the pay action disabled.
type StaticProvider struct {
	handle SigningHandle
}

func NewStaticProvider(handle SigningHandle) *StaticProvider {
	return &StaticProvider{handle: handle}
}

func (p *StaticProvider) Handle(ctx context.Context, payer identity.Identity) (SigningHandle, error) {
	if p == nil || p.handle == nil {
		return nil, errors.New("no signing session available")
	}
	return p.handle, nil
}
