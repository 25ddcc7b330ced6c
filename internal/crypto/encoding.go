package crypto

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// url.QueryEscape leaves -_.~ alone; the browser's encodeURIComponent also
// leaves !'()* alone and writes spaces as %20.
var uriComponentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent percent-encodes s like the browser's encodeURIComponent
func EncodeURIComponent(s string) string {
	return uriComponentReplacer.Replace(url.QueryEscape(s))
}

// DecodeURIComponent reverses EncodeURIComponent. A literal '+' stays a '+'.
func DecodeURIComponent(s string) (string, error) {
	return url.PathUnescape(s)
}

// MD5Hex returns the lowercase hex MD5 digest of s
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SHA256HexUpper returns the uppercase hex SHA-256 digest of s
func SHA256HexUpper(s string) string {
	sum := sha256.Sum256([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
