package util

import (
	"crypto/sha256"
	"encoding/hex"
)

func SHA256Hex(b []byte) string {
	x := sha256.Sum256(b)
	return hex.EncodeToString(x[:])
}

// ShortID is a stable 16-hex-char identifier derived from s.
func ShortID(s string) string {
	return SHA256Hex([]byte(s))[:16]
}
