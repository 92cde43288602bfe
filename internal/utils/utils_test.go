// internal/utils/utils_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("0xAbC0000000000000000000000000000000000001", "alice", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "0xAbC0000000000000000000000000000000000001", claims.WalletAddress)
	assert.Equal(t, "alice", claims.DisplayName)
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", claims.Subject)
	assert.Equal(t, "chainfren-tv", claims.Issuer)
}

func TestJWTExpired(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("0xAbC0000000000000000000000000000000000001", "", -1)
	require.NoError(t, err)

	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestJWTWrongSecret(t *testing.T) {
	SetJWTSecret("secret-one")
	token, err := GenerateJWT("0xAbC0000000000000000000000000000000000001", "", 1)
	require.NoError(t, err)

	SetJWTSecret("secret-two")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateRefreshToken("0xAbC0000000000000000000000000000000000001", 1)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", subject)
}

type gatedInput struct {
	Address  string  `validate:"required,eth_address"`
	ViewMode string  `validate:"required,view_mode"`
	Amount   float64 `validate:"omitempty,gt=0"`
}

func TestCustomValidators(t *testing.T) {
	valid := gatedInput{
		Address:  "0xAbC0000000000000000000000000000000000001",
		ViewMode: "one-time",
		Amount:   4.99,
	}
	assert.NoError(t, ValidateStruct(&valid))

	badAddr := valid
	badAddr.Address = "not-hex"
	assert.Error(t, ValidateStruct(&badAddr))

	badMode := valid
	badMode.ViewMode = "weekly"
	err := ValidateStruct(&badMode)
	require.Error(t, err)

	errs := GetValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "viewmode", errs[0].Field)
	assert.Equal(t, "view_mode", errs[0].Tag)
}
