package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HMACFingerprinter reduces raw client identity signals (source IP, user
// agent) to keyed hashes. Keying with the server secret means a database
// leak does not expose raw addresses and an attacker cannot precompute
// binding hashes for a stolen token.
type HMACFingerprinter struct {
	key []byte
}

func NewHMACFingerprinter(secret string) *HMACFingerprinter {
	return &HMACFingerprinter{key: []byte(secret)}
}

func (f *HMACFingerprinter) HashIP(ip string) string {
	return f.digest("ip", strings.TrimSpace(ip))
}

func (f *HMACFingerprinter) HashDevice(userAgent string) string {
	return f.digest("device", strings.TrimSpace(userAgent))
}

func (f *HMACFingerprinter) digest(scope, value string) string {
	mac := hmac.New(sha256.New, f.key)
	mac.Write([]byte(scope))
	mac.Write([]byte{0})
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
