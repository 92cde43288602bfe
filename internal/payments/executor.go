// internal/payments/executor.go
package payments

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/HenshawIII/chainfrenTivi/internal/identity"
)

// Mode selects how funds move: a direct native-asset transfer or a
// fungible-token contract transfer. Callers above the executor are
// agnostic to which one runs.
type Mode string

const (
	ModeNative Mode = "native"
	ModeToken  Mode = "token"
)

type ErrorKind string

const (
	// ErrNoSigningCapability: the payer has no usable signer yet, e.g. an
	// embedded wallet still provisioning. Not an error the user did
	// anything about; callers disable the pay action instead of alarming.
	ErrNoSigningCapability ErrorKind = "no_signing_capability"
	// ErrInvalidRecipient: the recipient does not parse as an address.
	ErrInvalidRecipient ErrorKind = "invalid_recipient"
	// ErrUserRejected: the signer declined. Never retried automatically.
	ErrUserRejected ErrorKind = "user_rejected"
	// ErrExecutionFailed: broadcast or confirmation failure. Retryable.
	ErrExecutionFailed ErrorKind = "execution_failed"
)

// PaymentError wraps every failure an Executor can surface.
type PaymentError struct {
	Kind ErrorKind
	Err  error
}

func (e *PaymentError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func newPaymentError(kind ErrorKind, err error) *PaymentError {
	return &PaymentError{Kind: kind, Err: err}
}

// AsPaymentError extracts a PaymentError from an error chain.
func AsPaymentError(err error) (*PaymentError, bool) {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Executor moves funds from payer to recipient and returns a transaction
// reference. Amount is in whole currency units; the executor converts to
// minor units by truncation before the signer ever sees it.
type Executor interface {
	// Ready reports whether the payer can sign right now. A
	// no_signing_capability error means "still setting up", not failure.
	Ready(ctx context.Context, payer identity.Identity) error
	Execute(ctx context.Context, payer, recipient identity.Identity, amount float64, mode Mode) (txRef string, err error)
}

// ToMinorUnits converts a whole-unit amount into the token's smallest unit.
// Truncation, never rounding up: overcharging by a fractional unit is worse
// than undercharging. A result that is not strictly positive is a
// precondition failure and must not reach the signer.
func ToMinorUnits(amount float64, decimals int) (*big.Int, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("payment amount must be greater than 0")
	}
	if decimals < 0 || decimals > 30 {
		return nil, fmt.Errorf("unsupported token decimals %d", decimals)
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled := new(big.Float).Mul(big.NewFloat(amount), scale)

	minor, _ := scaled.Int(nil)
	if minor.Sign() <= 0 {
		return nil, fmt.Errorf("payment amount %v truncates to zero at %d decimals", amount, decimals)
	}
	return minor, nil
}
