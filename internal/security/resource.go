package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SignResource returns a URL-safe HMAC-SHA256 over the colon-joined parts.
func SignResource(secret string, parts ...string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, ":")))
	return []byte(base64.RawURLEncoding.EncodeToString(mac.Sum(nil)))
}

func VerifyResource(secret string, signature string, parts ...string) bool {
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(signature), SignResource(secret, parts...))
}
