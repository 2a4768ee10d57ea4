package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Deterministic HMAC hash (server-side pepper from config).
// Cache keys are fingerprints so a raw bearer token never lands in redis.
func Fingerprint(pepper, token string) string {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}
