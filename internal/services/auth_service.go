// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/HenshawIII/chainfrenTivi/internal/config"
	"github.com/HenshawIII/chainfrenTivi/internal/models"
	"github.com/HenshawIII/chainfrenTivi/internal/utils"
)

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrNonceNotFound    = errors.New("no login nonce issued for this address")
	ErrNonceExpired     = errors.New("login nonce has expired")
	ErrInvalidSignature = errors.New("signature does not match the wallet address")
)

// nonceTTL bounds how long an issued login challenge stays signable.
const nonceTTL = 5 * time.Minute

// AuthService implements wallet-signature login: the client requests a
// nonce, signs it with personal_sign, and exchanges the signature for a JWT.
// Nonces are single-use and held in memory; a restart just forces a fresh
// challenge.
type AuthService struct {
	config   *config.Config
	profiles *ProfileService

	mu     sync.Mutex
	nonces map[string]nonceEntry
}

type nonceEntry struct {
	nonce     string
	issuedAt  time.Time
	expiresAt time.Time
}

type LoginChallenge struct {
	Address string `json:"address"`
	Message string `json:"message"`
}

type LoginResult struct {
	Token        string          `json:"token"`
	RefreshToken string          `json:"refresh_token"`
	Profile      *models.Profile `json:"profile"`
}

func NewAuthService(cfg *config.Config, profiles *ProfileService) *AuthService {
	return &AuthService{
		config:   cfg,
		profiles: profiles,
		nonces:   make(map[string]nonceEntry),
	}
}

// IssueChallenge creates a fresh nonce for the address and returns the exact
// message the wallet must sign. Re-requesting replaces any prior nonce.
func (s *AuthService) IssueChallenge(address string) (*LoginChallenge, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}
	addr := strings.ToLower(address)

	nonce, err := utils.GenerateLoginNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.nonces[addr] = nonceEntry{nonce: nonce, issuedAt: now, expiresAt: now.Add(nonceTTL)}
	s.pruneLocked(now)
	s.mu.Unlock()

	return &LoginChallenge{
		Address: addr,
		Message: loginMessage(addr, nonce),
	}, nil
}

// VerifyLogin checks the personal_sign signature over the outstanding nonce
// message and, on success, issues tokens and ensures a profile row exists.
// The nonce is consumed whether or not verification succeeds.
func (s *AuthService) VerifyLogin(ctx context.Context, address, signature string) (*LoginResult, error) {
	if !common.IsHexAddress(address) {
		return nil, ErrInvalidAddress
	}
	addr := strings.ToLower(address)

	s.mu.Lock()
	entry, ok := s.nonces[addr]
	delete(s.nonces, addr)
	s.mu.Unlock()

	if !ok {
		return nil, ErrNonceNotFound
	}
	if time.Now().UTC().After(entry.expiresAt) {
		return nil, ErrNonceExpired
	}

	recovered, err := recoverSigner(loginMessage(addr, entry.nonce), signature)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(recovered.Hex(), addr) {
		return nil, ErrInvalidSignature
	}

	profile, err := s.profiles.UpsertProfile(ctx, addr, &UpsertProfileRequest{})
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateJWT(addr, profile.DisplayName, s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	refresh, err := utils.GenerateRefreshToken(addr, s.config.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &LoginResult{Token: token, RefreshToken: refresh, Profile: profile}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	addr, err := utils.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, addr)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	displayName := ""
	if profile != nil {
		displayName = profile.DisplayName
	}

	token, err := utils.GenerateJWT(addr, displayName, s.config.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	refresh, err := utils.GenerateRefreshToken(addr, s.config.JWT.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &LoginResult{Token: token, RefreshToken: refresh, Profile: profile}, nil
}

// Me returns the profile bound to an authenticated wallet. Login upserts
// the profile, so a missing row only happens for tokens minted before a
// wipe; callers treat that as not found.
func (s *AuthService) Me(ctx context.Context, address string) (*models.Profile, error) {
	return s.profiles.GetProfile(ctx, strings.ToLower(strings.TrimSpace(address)))
}

func (s *AuthService) pruneLocked(now time.Time) {
	for addr, entry := range s.nonces {
		if now.After(entry.expiresAt) {
			delete(s.nonces, addr)
		}
	}
}

func loginMessage(addr, nonce string) string {
	return fmt.Sprintf("Sign in to Chainfren TV\n\nWallet: %s\nNonce: %s", addr, nonce)
}

// recoverSigner recovers the address that produced a personal_sign
// signature over message. MetaMask-style signatures carry v as 27/28.
func recoverSigner(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrInvalidSignature
	}

	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, ErrInvalidSignature
	}

	return crypto.PubkeyToAddress(*pub), nil
}
