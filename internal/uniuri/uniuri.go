// Package uniuri generates random strings for token ids, OIDC state values
// and development signing secrets.
package uniuri

import (
	"crypto/rand"
)

const (
	// StdLen is a standard length of uniuri string to achieve ~95 bits of entropy.
	StdLen = 16
	// UUIDLen is a length of uniuri string to achieve ~119 bits of entropy.
	UUIDLen = 20
	// SecretLen is long enough for an HS256 signing secret.
	SecretLen = 48
)

// StdChars is a set of standard characters allowed in uniuri string.
var StdChars = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789") //nolint:gochecknoglobals

// New returns a new random string of the standard length.
func New() string {
	return NewLenChars(StdLen, StdChars)
}

// NewLen returns a new random string of the provided length.
func NewLen(length int) string {
	return NewLenChars(length, StdChars)
}

// NewLenChars returns a random string of length drawn uniformly from chars.
// chars must hold between 2 and 256 characters.
func NewLenChars(length int, chars []byte) string {
	if length <= 0 {
		return ""
	}

	clen := len(chars)
	if clen < 2 || clen > 256 {
		panic("uniuri: wrong charset length for NewLenChars")
	}

	// bytes at or above limit are rejected to avoid modulo bias
	limit := 256 - (256 % clen)

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			panic("uniuri: error reading random bytes: " + err.Error())
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, chars[int(b)%clen])
			if len(out) == length {
				break
			}
		}
	}

	return string(out)
}
