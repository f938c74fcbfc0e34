package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SentinelIPHash stands in for empty or unparseable client addresses so
// audit rows and rate-limit keys always carry a stable 64-hex value.
const SentinelIPHash = "0000000000000000000000000000000000000000000000000000000000000000"

const maxUserAgentBytes = 500

// HashIP returns the lowercase hex SHA-256 of salt||ip. Raw addresses never
// reach storage; every persisted client identifier goes through here.
func HashIP(salt, rawIP string) string {
	ip := strings.TrimSpace(rawIP)
	if ip == "" || net.ParseIP(ip) == nil {
		return SentinelIPHash
	}
	sum := sha256.Sum256([]byte(salt + ip))
	return hex.EncodeToString(sum[:])
}

// NewID returns a fresh 36-char UUID v4 string.
func NewID() string {
	return uuid.NewString()
}

// TruncateUserAgent strips control characters and caps the result at 500
// bytes without splitting a multi-byte rune.
func TruncateUserAgent(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 32 || r == 127 {
			continue
		}
		if b.Len()+utf8.RuneLen(r) > maxUserAgentBytes {
			break
		}
		b.WriteRune(r)
	}
	return b.String()
}
