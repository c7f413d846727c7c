package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFields(t *testing.T) {
	in := map[string]any{
		"signature":      "abc123",
		"block_time":     1650000000,
		"status":         "confirmed",
		"user_id":        "user_456",
		"wallet_address": "some_wallet_address",
		"private_key":    "super_secret_key",
		"api_key":        "some_api_key",
	}

	clean, removed := SanitizeFields(in)

	assert.Equal(t, map[string]any{"signature": "abc123", "block_time": 1650000000, "status": "confirmed"}, clean)
	assert.Equal(t, []string{"api_key", "private_key", "user_id", "wallet_address"}, removed)
	assert.Len(t, in, 7, "input must not be modified")
}

func newTestProtector(t *testing.T, key string) *WalletProtector {
	enc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)
	p, err := NewWalletProtector(enc, key)
	require.NoError(t, err)
	return p
}

func TestWalletProtector_ProtectReveal(t *testing.T) {
	p := newTestProtector(t, "pepper")
	wallet := "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

	fp, encrypted, err := p.Protect(wallet)
	require.NoError(t, err)
	assert.Len(t, fp, 64)
	assert.NotEqual(t, wallet, encrypted)

	revealed, err := p.Reveal(encrypted)
	require.NoError(t, err)
	assert.Equal(t, wallet, revealed)
}

func TestWalletProtector_FingerprintIsStableAndKeyed(t *testing.T) {
	wallet := "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	a := newTestProtector(t, "pepper")
	b := newTestProtector(t, "salt")

	assert.Equal(t, a.Fingerprint(wallet), a.Fingerprint(wallet))
	assert.NotEqual(t, a.Fingerprint(wallet), b.Fingerprint(wallet))
	assert.NotEqual(t, a.Fingerprint(wallet), a.Fingerprint("other"))
}

func TestNewWalletProtector_KeyTooLong(t *testing.T) {
	enc, err := NewAESEncryptionService(testAESKey)
	require.NoError(t, err)

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'k'
	}
	_, err = NewWalletProtector(enc, string(long))
	assert.Error(t, err)
}

func TestWalletProtector_EncryptFields(t *testing.T) {
	p := newTestProtector(t, "pepper")
	in := map[string]any{
		"signature":      "abc123",
		"wallet_address": "some_wallet_address",
		"private_key":    "super_secret_key",
	}

	out, err := p.EncryptFields(in)
	require.NoError(t, err)

	assert.Equal(t, "abc123", out["signature"])
	assert.NotEqual(t, "some_wallet_address", out["wallet_address"])
	assert.NotEqual(t, "super_secret_key", out["private_key"])
	assert.Equal(t, "some_wallet_address", in["wallet_address"], "input must not be modified")

	revealed, err := p.Reveal(out["private_key"].(string))
	require.NoError(t, err)
	assert.Equal(t, "super_secret_key", revealed)
}
