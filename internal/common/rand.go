package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString generates a hex string from size random bytes, so the
// resulting string is twice as long as size. It is used for view tokens and
// watermark seeds; the source is crypto/rand.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
