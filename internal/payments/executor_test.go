// internal/payments/executor_test.go
package payments

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
)

const (
	tokenAddr     = "0x036CbD53842c5426634e7929541eC2318f3dCF7e"
	payerAddr     = "0xDeF0000000000000000000000000000000000002"
	recipientAddr = "0xAbC0000000000000000000000000000000000001"
)

type fakeHandle struct {
	nativeTo    common.Address
	nativeAmt   *big.Int
	tokenAddr   common.Address
	tokenTo     common.Address
	tokenAmt    *big.Int
	nativeCalls int
	tokenCalls  int
	err         error
}

func (h *fakeHandle) TransferNative(ctx context.Context, to common.Address, amount *big.Int) (string, error) {
	h.nativeCalls++
	h.nativeTo, h.nativeAmt = to, amount
	if h.err != nil {
		return "", h.err
	}
	return "0xnativehash", nil
}

func (h *fakeHandle) TransferToken(ctx context.Context, token, to common.Address, amount *big.Int) (string, error) {
	h.tokenCalls++
	h.tokenAddr, h.tokenTo, h.tokenAmt = token, to, amount
	if h.err != nil {
		return "", h.err
	}
	return "0xtokenhash", nil
}

func TestToMinorUnitsTruncates(t *testing.T) {
	cases := []struct {
		amount   float64
		decimals int
		want     string
	}{
		{1, 6, "1000000"},
		{4.99, 6, "4990000"},
		{0.0000019, 6, "1"},       // truncates down, never up
		{1.9999999, 6, "1999999"}, // fractional minor unit dropped
		{0.5, 0, "0"},             // handled below as error
	}

	for _, tc := range cases {
		got, err := ToMinorUnits(tc.amount, tc.decimals)
		if tc.want == "0" {
			assert.Error(t, err, "amount %v at %d decimals", tc.amount, tc.decimals)
			continue
		}
		require.NoError(t, err, "amount %v at %d decimals", tc.amount, tc.decimals)
		assert.Equal(t, tc.want, got.String(), "amount %v at %d decimals", tc.amount, tc.decimals)
	}
}

func TestToMinorUnitsRejectsNonPositive(t *testing.T) {
	_, err := ToMinorUnits(0, 6)
	assert.Error(t, err)

	_, err = ToMinorUnits(-1, 6)
	assert.Error(t, err)

	// Positive but truncating to zero minor units must not reach a signer.
	_, err = ToMinorUnits(0.0000001, 6)
	assert.Error(t, err)
}

func newTestExecutor(t *testing.T, handle SigningHandle) *EVMExecutor {
	t.Helper()
	exec, err := NewEVMExecutor(NewStaticProvider(handle), tokenAddr, 6)
	require.NoError(t, err)
	return exec
}

func TestExecuteTokenTransfer(t *testing.T) {
	handle := &fakeHandle{}
	exec := newTestExecutor(t, handle)

	txRef, err := exec.Execute(context.Background(),
		identity.Wallet(payerAddr), identity.Wallet(recipientAddr), 4.99, ModeToken)
	require.NoError(t, err)
	assert.Equal(t, "0xtokenhash", txRef)
	assert.Equal(t, 1, handle.tokenCalls)
	assert.Zero(t, handle.nativeCalls)
	assert.Equal(t, common.HexToAddress(tokenAddr), handle.tokenAddr)
	assert.Equal(t, common.HexToAddress(recipientAddr), handle.tokenTo)
	assert.Equal(t, "4990000", handle.tokenAmt.String())
}

func TestExecuteNativeTransferUses18Decimals(t *testing.T) {
	handle := &fakeHandle{}
	exec := newTestExecutor(t, handle)

	_, err := exec.Execute(context.Background(),
		identity.Wallet(payerAddr), identity.Wallet(recipientAddr), 0.25, ModeNative)
	require.NoError(t, err)
	assert.Equal(t, 1, handle.nativeCalls)
	assert.Equal(t, "250000000000000000", handle.nativeAmt.String())
}

func TestExecuteInvalidRecipient(t *testing.T) {
	exec := newTestExecutor(t, &fakeHandle{})

	_, err := exec.Execute(context.Background(),
		identity.Wallet(payerAddr), identity.Wallet("not-an-address"), 1, ModeToken)
	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, ErrInvalidRecipient, pe.Kind)
}

func TestExecuteNoSigningCapability(t *testing.T) {
	exec := newTestExecutor(t, nil) // provider holds no handle

	_, err := exec.Execute(context.Background(),
		identity.Wallet(payerAddr), identity.Wallet(recipientAddr), 1, ModeToken)
	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, ErrNoSigningCapability, pe.Kind)

	err = exec.Ready(context.Background(), identity.Wallet(payerAddr))
	pe, ok = AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, ErrNoSigningCapability, pe.Kind)
}

func TestExecuteZeroAmountNeverReachesSigner(t *testing.T) {
	handle := &fakeHandle{}
	exec := newTestExecutor(t, handle)

	_, err := exec.Execute(context.Background(),
		identity.Wallet(payerAddr), identity.Wallet(recipientAddr), 0, ModeToken)
	assert.Error(t, err)
	assert.Zero(t, handle.tokenCalls)
	assert.Zero(t, handle.nativeCalls)
}

func TestExecuteSignerRejection(t *testing.T) {
	cases := []error{
		ErrSignerRejected,
		context.Canceled,
		errors.New("user rejected the request"),
		errors.New("signature denied by wallet"),
	}

	for _, cause := range cases {
		handle := &fakeHandle{err: cause}
		exec := newTestExecutor(t, handle)

		_, err := exec.Execute(context.Background(),
			identity.Wallet(payerAddr), identity.Wallet(recipientAddr), 1, ModeToken)
		pe, ok := AsPaymentError(err)
		require.True(t, ok, "cause %v", cause)
		assert.Equal(t, ErrUserRejected, pe.Kind, "cause %v", cause)
	}
}

func TestExecuteBroadcastFailure(t *testing.T) {
	handle := &fakeHandle{err: errors.New("nonce too low")}
	exec := newTestExecutor(t, handle)

	_, err := exec.Execute(context.Background(),
		identity.Wallet(payerAddr), identity.Wallet(recipientAddr), 1, ModeToken)
	pe, ok := AsPaymentError(err)
	require.True(t, ok)
	assert.Equal(t, ErrExecutionFailed, pe.Kind)
}

func TestERC20TransferCalldata(t *testing.T) {
	to := common.HexToAddress(recipientAddr)
	data := erc20TransferData(to, big.NewInt(4990000))

	require.Len(t, data, 4+32+32)
	// transfer(address,uint256) selector
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, data[:4])
	assert.Equal(t, common.LeftPadBytes(to.Bytes(), 32), data[4:36])
	assert.Equal(t, common.LeftPadBytes(big.NewInt(4990000).Bytes(), 32), data[36:68])
}
