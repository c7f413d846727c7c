package service

import (
	"encoding/hex"
	"fmt"
	"sort"

	"vertax/internal/core/ports"

	"golang.org/x/crypto/blake2b"
)

var (
	sensitiveFields   = map[string]struct{}{"user_id": {}, "wallet_address": {}, "private_key": {}, "api_key": {}}
	encryptableFields = []string{"private_key", "wallet_address"}
)

// SanitizeFields returns a copy of fields without user identifiers and secrets,
// plus the sorted names of the keys it removed.
func SanitizeFields(fields map[string]any) (map[string]any, []string) {
	clean := make(map[string]any, len(fields))
	var removed []string
	for k, v := range fields {
		if _, ok := sensitiveFields[k]; ok {
			removed = append(removed, k)
			continue
		}
		clean[k] = v
	}
	sort.Strings(removed)
	return clean, removed
}

// WalletProtector keeps wallet addresses out of storage in clear.
// Addresses are stored AES-GCM encrypted and looked up by a keyed BLAKE2b-256 fingerprint,
// since the random GCM nonce makes ciphertexts unusable as lookup keys.
type WalletProtector struct {
	enc            ports.EncryptionService
	fingerprintKey []byte
}

// NewWalletProtector fails if key is longer than 64 bytes.
func NewWalletProtector(enc ports.EncryptionService, fingerprintKey string) (*WalletProtector, error) {
	key := []byte(fingerprintKey)
	if _, err := blake2b.New256(key); err != nil {
		return nil, fmt.Errorf("fingerprint key: %w", err)
	}
	return &WalletProtector{enc: enc, fingerprintKey: key}, nil
}

// Fingerprint is deterministic for a given key and address.
func (p *WalletProtector) Fingerprint(wallet string) string {
	h, _ := blake2b.New256(p.fingerprintKey)
	h.Write([]byte(wallet))
	return hex.EncodeToString(h.Sum(nil))
}

// Protect returns the lookup fingerprint and the encrypted address.
func (p *WalletProtector) Protect(wallet string) (fingerprint, encrypted string, err error) {
	encrypted, err = p.enc.Encrypt(wallet)
	if err != nil {
		return "", "", err
	}
	return p.Fingerprint(wallet), encrypted, nil
}

// Reveal decrypts an address produced by Protect.
func (p *WalletProtector) Reveal(encrypted string) (string, error) {
	return p.enc.Decrypt(encrypted)
}

// EncryptFields returns a copy of fields with the private key and wallet address encrypted.
// Non-string values are left untouched.
func (p *WalletProtector) EncryptFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	for _, k := range encryptableFields {
		s, ok := out[k].(string)
		if !ok {
			continue
		}
		enc, err := p.enc.Encrypt(s)
		if err != nil {
			return nil, fmt.Errorf("encrypting %s: %w", k, err)
		}
		out[k] = enc
	}
	return out, nil
}
