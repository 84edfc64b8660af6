// Package secret generates cryptographically secure random tokens used as
// raw credential secrets. Bytes from crypto/rand are rejection-sampled so
// every character of the token charset is equally likely.
package secret

import "crypto/rand"

const (
	// TokenLen is the credential secret length, ~238 bits of entropy over the
	// 64-character charset minus rejection losses.
	TokenLen = 40

	// PrefixLen is how many leading characters of a secret are persisted for
	// operator identification.
	PrefixLen = 8
)

// chars is the token charset. 62 symbols keeps tokens copy-paste safe.
var chars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// NewToken returns a new random credential secret of the standard length.
func NewToken() string {
	return NewTokenLen(TokenLen)
}

// NewTokenLen returns a new random token of the provided length.
func NewTokenLen(length int) string {
	if length == 0 {
		return ""
	}

	clen := len(chars)
	// Largest byte value usable without modulo bias.
	maxRB := 255 - (256 % clen)

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic("secret: error reading random bytes: " + err.Error())
		}

		for _, rb := range buf {
			if int(rb) > maxRB {
				// Skip to avoid modulo bias.
				continue
			}

			out = append(out, chars[int(rb)%clen])
			if len(out) == length {
				return string(out)
			}
		}
	}
}

// Prefix returns the identification prefix of a raw secret.
func Prefix(raw string) string {
	if len(raw) < PrefixLen {
		return raw
	}

	return raw[:PrefixLen]
}
