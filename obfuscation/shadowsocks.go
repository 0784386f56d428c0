/*
 * Copyright (c) 2025, shapedmesh contributors.
 * All rights reserved. See obfuscation.go for the license text.
 */

package obfuscation

import (
	"crypto/sha256"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/x0tta6bl4/shapedmesh/internal/csrand"
)

// shadowsocksObfuscator seals each buffer with ChaCha20-Poly1305 under a key
// derived from the configured password, prepending a fresh random nonce so
// Deobfuscate is stateless and needs no paired call ordering, mirroring the
// "Shadowsocks-style AEAD" framing named by the transport contract.
type shadowsocksObfuscator struct {
	aead chacha20poly1305.AEAD
}

func newShadowsocks(password string) *shadowsocksObfuscator {
	key := sha256.Sum256([]byte(password))
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		// chacha20poly1305.New only fails on a wrong-length key, and
		// sha256.Sum256 always yields exactly 32 bytes.
		panic(err)
	}
	return &shadowsocksObfuscator{aead: aead}
}

func (s *shadowsocksObfuscator) Obfuscate(data []byte) []byte {
	nonce := make([]byte, s.aead.NonceSize())
	if err := csrand.Bytes(nonce); err != nil {
		// No entropy available; per the total contract, fail open rather
		// than raise.
		return data
	}
	return s.aead.Seal(nonce, nonce, data, nil)
}

// Deobfuscate reverses Obfuscate. Per the contract, data that doesn't
// decrypt (too short, or a tag mismatch because it was never sealed by this
// provider) is returned unchanged.
func (s *shadowsocksObfuscator) Deobfuscate(data []byte) []byte {
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return data
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return data
	}
	return plain
}
