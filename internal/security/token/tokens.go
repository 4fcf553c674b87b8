// Package tokens generates and hashes the opaque credentials used by the
// management API: long-lived API tokens and short-lived session tokens.
// Raw tokens are random strings over a printable alphabet; only their SHA-256
// hex digest is ever stored.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// alphabet covers the characters a raw token may contain. Printable and
// cookie/header-safe, so tokens travel without extra encoding.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Generate returns a random token of n characters read from rng.
// Pass crypto/rand.Reader in production; tests may inject a deterministic source.
func Generate(rng io.Reader, n int) (string, error) {
	if rng == nil {
		rng = rand.Reader
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(rng, raw); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}

// SHA256Hex returns sha256(s) as lowercase hex, the storable form of a token.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
