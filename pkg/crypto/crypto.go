package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// CodeAlphabet is the default alphabet for human-typed access codes. Visually ambiguous
// characters (0/o, 1/l/i) are excluded.
const CodeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GenerateCode returns a random code of the requested length drawn uniformly from alphabet
// using crypto/rand. An empty alphabet selects CodeAlphabet.
func GenerateCode(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: code length must be positive")
	}
	if alphabet == "" {
		alphabet = CodeAlphabet
	}

	max := big.NewInt(int64(len(alphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// HashIdentifier returns a hex encoded keyed BLAKE2b-256 digest of value. It is used to
// keep correlatable fingerprints of personal identifiers (phone numbers) without storing them.
func HashIdentifier(key []byte, value string) (string, error) {
	if len(key) > blake2b.Size {
		key = key[:blake2b.Size]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return "", err
	}
	_, _ = h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MaskTrailing replaces all but the last visible characters of value with '*'.
func MaskTrailing(value string, visible int) string {
	if visible < 0 {
		visible = 0
	}
	if len(value) <= visible {
		return value
	}
	return strings.Repeat("*", len(value)-visible) + value[len(value)-visible:]
}
