// internal/identity/identity.go
package identity

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Kind tags the shape of an identity handed to us by the session provider.
// Policy code only ever reasons about wallets; anything else is normalized
// to KindOther at the boundary instead of leaking loosely-typed account
// shapes inward.
type Kind string

const (
	KindWallet Kind = "wallet"
	KindOther  Kind = "other"
)

// Identity is a viewer or creator identity. Zero value means "no identity
// yet" (viewer not authenticated, or embedded wallet still provisioning).
type Identity struct {
	Kind    Kind   `json:"kind"`
	Address string `json:"address,omitempty"`
}

// Wallet builds a wallet identity from a raw address string.
func Wallet(address string) Identity {
	return Identity{Kind: KindWallet, Address: strings.TrimSpace(address)}
}

// None is the absent identity.
func None() Identity {
	return Identity{}
}

func (i Identity) Present() bool {
	return i.Kind == KindWallet && i.Address != ""
}

// Equals compares wallet identities case-insensitively. Addresses are hex
// and arrive checksummed, lowercased, or mixed depending on the wallet.
func (i Identity) Equals(other Identity) bool {
	if !i.Present() || !other.Present() {
		return false
	}
	return strings.EqualFold(i.Address, other.Address)
}

// Matches reports whether the identity matches a raw address string.
func (i Identity) Matches(address string) bool {
	if !i.Present() || address == "" {
		return false
	}
	return strings.EqualFold(i.Address, address)
}

// ValidAddress reports whether the identity carries a parseable EVM
// address. A present-but-invalid identity can chat but can never be a
// payment counterparty.
func (i Identity) ValidAddress() bool {
	return i.Present() && common.IsHexAddress(i.Address)
}

// ShortAddress renders the 0x1234...abcd display form used in chat.
func (i Identity) ShortAddress() string {
	if !i.Present() || len(i.Address) < 10 {
		return i.Address
	}
	return i.Address[:6] + "..." + i.Address[len(i.Address)-4:]
}
