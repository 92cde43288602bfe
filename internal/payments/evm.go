// internal/payments/evm.go
package payments

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
)

// ErrSignerRejected is returned by a SigningHandle when the user (or the
// custody layer acting for them) declines to sign.
var ErrSignerRejected = errors.New("signer rejected transaction")

// SigningHandle is the signing capability obtained from the session
// provider once the viewer's wallet is usable. Amounts are already in
// minor units and validated positive.
type SigningHandle interface {
	TransferNative(ctx context.Context, to common.Address, amount *big.Int) (txHash string, err error)
	TransferToken(ctx context.Context, token, to common.Address, amount *big.Int) (txHash string, err error)
}

// SigningProvider resolves the signing handle for a payer, or reports that
// none exists yet (wallet still provisioning, session signed out).
type SigningProvider interface {
	Handle(ctx context.Context, payer identity.Identity) (SigningHandle, error)
}

// EVMExecutor executes transfers on an EVM chain through a SigningProvider.
type EVMExecutor struct {
	provider SigningProvider
	token    common.Address
	decimals int
}

func NewEVMExecutor(provider SigningProvider, tokenContract string, tokenDecimals int) (*EVMExecutor, error) {
	if !common.IsHexAddress(tokenContract) {
		return nil, fmt.Errorf("invalid token contract address %q", tokenContract)
	}
	return &EVMExecutor{
		provider: provider,
		token:    common.HexToAddress(tokenContract),
		decimals: tokenDecimals,
	}, nil
}

func (e *EVMExecutor) Ready(ctx context.Context, payer identity.Identity) error {
	if !payer.ValidAddress() {
		return newPaymentError(ErrNoSigningCapability, fmt.Errorf("no wallet identity"))
	}
	if _, err := e.provider.Handle(ctx, payer); err != nil {
		return newPaymentError(ErrNoSigningCapability, err)
	}
	return nil
}

// Execute validates the counterparties and amount, then runs the transfer
// through the payer's signing handle. Every failure comes back as a
// PaymentError so callers have a single taxonomy to map to user state.
func (e *EVMExecutor) Execute(ctx context.Context, payer, recipient identity.Identity, amount float64, mode Mode) (string, error) {
	if !recipient.ValidAddress() {
		return "", newPaymentError(ErrInvalidRecipient, fmt.Errorf("recipient %q is not a valid address", recipient.Address))
	}

	minor, err := ToMinorUnits(amount, e.tokenDecimalsFor(mode))
	if err != nil {
		return "", newPaymentError(ErrExecutionFailed, err)
	}

	if !payer.ValidAddress() {
		return "", newPaymentError(ErrNoSigningCapability, fmt.Errorf("no wallet identity"))
	}
	handle, err := e.provider.Handle(ctx, payer)
	if err != nil {
		return "", newPaymentError(ErrNoSigningCapability, err)
	}

	to := common.HexToAddress(recipient.Address)

	var txHash string
	switch mode {
	case ModeNative:
		txHash, err = handle.TransferNative(ctx, to, minor)
	case ModeToken:
		txHash, err = handle.TransferToken(ctx, e.token, to, minor)
	default:
		return "", newPaymentError(ErrExecutionFailed, fmt.Errorf("unknown payment mode %q", mode))
	}

	if err != nil {
		return "", mapSignerError(err)
	}
	return txHash, nil
}

// Native transfers settle in the chain's base asset (18 decimals);
// token transfers in the configured contract's precision.
func (e *EVMExecutor) tokenDecimalsFor(mode Mode) int {
	if mode == ModeNative {
		return 18
	}
	return e.decimals
}

func mapSignerError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrSignerRejected) {
		return newPaymentError(ErrUserRejected, err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "rejected") || strings.Contains(msg, "denied") {
		return newPaymentError(ErrUserRejected, err)
	}
	return newPaymentError(ErrExecutionFailed, err)
}

// erc20TransferData encodes transfer(address,uint256) calldata for a
// standard token contract.
func erc20TransferData(to common.Address, amount *big.Int) []byte {
	selector := gethcrypto.Keccak256([]byte("transfer(address,uint256)"))[:4]

	data := make([]byte, 0, 4+64)
	data = append(data, selector...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return data
}
