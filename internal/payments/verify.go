// internal/payments/verify.go
package payments

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var transferEventSignature = gethcrypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// VerifierClient is the subset of the Ethereum RPC used to confirm
// settlement. Satisfied by *ethclient.Client.
type VerifierClient interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*gethtypes.Receipt, error)
	TransactionByHash(ctx context.Context, txHash common.Hash) (*gethtypes.Transaction, bool, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error)
}

// Verifier checks that a client-signed transfer actually settled before the
// payment is recorded. Trusting the submitted hash alone would let anyone
// unlock content with a fabricated reference.
type Verifier struct {
	client        VerifierClient
	token         common.Address
	confirmations uint64
}

func NewVerifier(client VerifierClient, tokenContract string, confirmations int) (*Verifier, error) {
	if !common.IsHexAddress(tokenContract) {
		return nil, fmt.Errorf("invalid token contract address %q", tokenContract)
	}
	if confirmations < 0 {
		confirmations = 0
	}
	return &Verifier{
		client:        client,
		token:         common.HexToAddress(tokenContract),
		confirmations: uint64(confirmations),
	}, nil
}

// Confirm validates that txHash moved at least amountMinor from payer to
// recipient in the given mode, with the configured number of confirmations.
// The payer check matters: tx hashes are public, so without it anyone could
// claim a stranger's settled transfer as their own payment.
func (v *Verifier) Confirm(ctx context.Context, txHash string, payer, recipient common.Address, amountMinor *big.Int, mode Mode) error {
	if v == nil || v.client == nil {
		return fmt.Errorf("verifier not initialised")
	}
	hash := common.HexToHash(txHash)
	if (hash == common.Hash{}) {
		return fmt.Errorf("tx hash required")
	}
	if (payer == common.Address{}) {
		return fmt.Errorf("payer address required")
	}
	if (recipient == common.Address{}) {
		return fmt.Errorf("recipient address required")
	}
	if amountMinor == nil || amountMinor.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	receipt, err := v.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("transaction %s not found", hash.Hex())
		}
		return fmt.Errorf("fetch receipt: %w", err)
	}
	if receipt == nil {
		return fmt.Errorf("transaction receipt missing")
	}
	if receipt.Status != gethtypes.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s failed", hash.Hex())
	}

	if err := v.checkConfirmations(ctx, receipt); err != nil {
		return err
	}

	switch mode {
	case ModeNative:
		return v.confirmNative(ctx, hash, payer, recipient, amountMinor)
	case ModeToken:
		return v.confirmTokenTransfer(receipt, payer, recipient, amountMinor)
	}
	return fmt.Errorf("unknown payment mode %q", mode)
}

func (v *Verifier) checkConfirmations(ctx context.Context, receipt *gethtypes.Receipt) error {
	if v.confirmations == 0 {
		return nil
	}
	header, err := v.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return fmt.Errorf("fetch head: %w", err)
	}
	if header == nil || header.Number == nil || receipt.BlockNumber == nil {
		return fmt.Errorf("block metadata unavailable")
	}
	if header.Number.Cmp(receipt.BlockNumber) < 0 {
		return fmt.Errorf("transaction block ahead of head")
	}
	confirmed := new(big.Int).Sub(header.Number, receipt.BlockNumber)
	confirmed.Add(confirmed, big.NewInt(1))
	if confirmed.Cmp(new(big.Int).SetUint64(v.confirmations)) < 0 {
		return fmt.Errorf("insufficient confirmations: have %s want %d", confirmed.String(), v.confirmations)
	}
	return nil
}

func (v *Verifier) confirmNative(ctx context.Context, hash common.Hash, payer, recipient common.Address, amountMinor *big.Int) error {
	tx, _, err := v.client.TransactionByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("fetch transaction: %w", err)
	}
	if tx == nil || tx.To() == nil {
		return fmt.Errorf("transaction %s has no recipient", hash.Hex())
	}
	from, err := gethtypes.Sender(gethtypes.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return fmt.Errorf("recover sender: %w", err)
	}
	if from != payer {
		return fmt.Errorf("transaction %s sent by %s, expected %s", hash.Hex(), from.Hex(), payer.Hex())
	}
	if *tx.To() != recipient {
		return fmt.Errorf("transaction %s paid %s, expected %s", hash.Hex(), tx.To().Hex(), recipient.Hex())
	}
	if tx.Value().Cmp(amountMinor) < 0 {
		return fmt.Errorf("transaction %s underpaid: have %s want %s", hash.Hex(), tx.Value(), amountMinor)
	}
	return nil
}

func (v *Verifier) confirmTokenTransfer(receipt *gethtypes.Receipt, payer, recipient common.Address, amountMinor *big.Int) error {
	for _, log := range receipt.Logs {
		if log == nil || log.Address != v.token {
			continue
		}
		if len(log.Topics) < 3 || log.Topics[0] != transferEventSignature {
			continue
		}
		from := common.BytesToAddress(log.Topics[1].Bytes())
		if from != payer {
			continue
		}
		to := common.BytesToAddress(log.Topics[2].Bytes())
		if to != recipient {
			continue
		}
		value := new(big.Int).SetBytes(log.Data)
		if value.Cmp(amountMinor) >= 0 {
			return nil
		}
	}
	return fmt.Errorf("no matching transfer from %s to %s", payer.Hex(), recipient.Hex())
}
