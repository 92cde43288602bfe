// internal/identity/identity_test.go
package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const addr = "0xAbC0000000000000000000000000000000000001"

func TestPresent(t *testing.T) {
	assert.False(t, None().Present())
	assert.False(t, Identity{Kind: KindWallet}.Present())
	assert.False(t, Identity{Kind: KindOther, Address: addr}.Present())
	assert.True(t, Wallet(addr).Present())
}

func TestWalletTrimsWhitespace(t *testing.T) {
	assert.Equal(t, addr, Wallet("  "+addr+" ").Address)
}

func TestEqualsIgnoresCase(t *testing.T) {
	a := Wallet(addr)
	b := Wallet("0xabc0000000000000000000000000000000000001")

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(None()))
	assert.False(t, None().Equals(None()))
}

func TestMatches(t *testing.T) {
	i := Wallet(addr)

	assert.True(t, i.Matches("0xABC0000000000000000000000000000000000001"))
	assert.False(t, i.Matches(""))
	assert.False(t, None().Matches(addr))
}

func TestValidAddress(t *testing.T) {
	assert.True(t, Wallet(addr).ValidAddress())
	assert.False(t, Wallet("not-hex").ValidAddress())
	assert.False(t, None().ValidAddress())
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "0xAbC0...0001", Wallet(addr).ShortAddress())
	assert.Equal(t, "", None().ShortAddress())
	assert.Equal(t, "0x1234", Wallet("0x1234").ShortAddress())
}
