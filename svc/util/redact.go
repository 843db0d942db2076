package util

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"regexp"
)

var (
	secretPattern   = regexp.MustCompile(`(?i)(password|token|secret|key|pepper)=([^\s&]+)`)
	userinfoPattern = regexp.MustCompile(`(://[^:/@\s]*:)[^@\s]+@`)
)

// RedactSecret masks key=value secrets and the password in URI userinfo, so
// driver errors that echo a store URI can be logged.
func RedactSecret(s string) string {
	s = userinfoPattern.ReplaceAllString(s, "${1}[REDACTED]@")
	return secretPattern.ReplaceAllString(s, "$1=[REDACTED]")
}

// RedactIP keeps the network prefix (/24 for IPv4, /32 for IPv6) and drops the
// port. Unparseable input is reduced to a short digest.
func RedactIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err == nil {
		addr = host
	}
	parsed := net.ParseIP(addr)
	if parsed == nil {
		hash := sha256.Sum256([]byte(addr))
		return "hash:" + hex.EncodeToString(hash[:8])
	}
	if ipv4 := parsed.To4(); ipv4 != nil {
		ipv4[3] = 0
		return ipv4.String()
	}
	ipv6 := parsed.To16()
	for i := 4; i < 16; i++ {
		ipv6[i] = 0
	}
	return ipv6.String()
}
