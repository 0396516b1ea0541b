package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/bytedance/sonic"
)

// Digest returns the hex SHA-256 of data
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestJSON returns the digest of v's JSON encoding. Struct fields encode in
// declaration order, so equal values give equal digests.
func DigestJSON(v any) (string, error) {
	data, err := sonic.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return Digest(data), nil
}

// ETag returns a strong entity tag for v
func ETag(v any) (string, error) {
	digest, err := DigestJSON(v)
	if err != nil {
		return "", err
	}
	return `"` + digest[:32] + `"`, nil
}
