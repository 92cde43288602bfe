// internal/payments/keysigner.go
package payments

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	nativeTransferGas = uint64(21_000)
	tokenTransferGas  = uint64(100_000)
)

// ChainClient is the subset of the Ethereum RPC the key signer needs.
// Satisfied by *ethclient.Client.
type ChainClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
}

// DialChain initialises an EVM RPC client for the configured endpoint.
func DialChain(endpoint string) (*ethclient.Client, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		return nil, fmt.Errorf("chain rpc endpoint required")
	}
	return ethclient.Dial(trimmed)
}

// KeySigner is a SigningHandle backed by a raw ECDSA key, used for
// delegated-custody embedded-wallet sessions where the service holds the
// session key and signs on the viewer's behalf.
type KeySigner struct {
	client  ChainClient
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
}

func NewKeySigner(client ChainClient, hexKey string, chainID int64) (*KeySigner, error) {
	key, err := gethcrypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return &KeySigner{
		client:  client,
		key:     key,
		from:    gethcrypto.PubkeyToAddress(key.PublicKey),
		chainID: big.NewInt(chainID),
	}, nil
}

// Address returns the account this signer spends from.
func (s *KeySigner) Address() common.Address {
	return s.from
}

func (s *KeySigner) TransferNative(ctx context.Context, to common.Address, amount *big.Int) (string, error) {
	return s.send(ctx, &to, amount, nativeTransferGas, nil)
}

func (s *KeySigner) TransferToken(ctx context.Context, token, to common.Address, amount *big.Int) (string, error) {
	// Token transfers carry no native value; the amount rides in calldata.
	return s.send(ctx, &token, big.NewInt(0), tokenTransferGas, erc20TransferData(to, amount))
}

func (s *KeySigner) send(ctx context.Context, to *common.Address, value *big.Int, gas uint64, data []byte) (string, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("suggest gas price: %w", err)
	}

	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := gethtypes.SignTx(tx, gethtypes.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("broadcast transaction: %w", err)
	}
	return signed.Hash().Hex(), nil
}
