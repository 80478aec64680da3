// Package hkdf adapts the generic crypto/hkdf API for the handshake key
// schedule, preserving explicit error returns.
package hkdf

import (
	"crypto/hkdf"
	"hash"
)

// Extract wraps crypto/hkdf.Extract. A nil salt is treated as a string of
// hash-size zero bytes, per RFC 5869.
//
// Errors surface only for misuse (nil hash constructor, broken hash state);
// they are returned rather than panicking so handshake code can abort the
// connection instead of the process.
func Extract[H hash.Hash](h func() H, secret, salt []byte) ([]byte, error) {
	return hkdf.Extract(h, secret, salt)
}

// Expand wraps crypto/hkdf.Expand. keyLength must be in (0, 255*hash.Size()];
// anything else is a programming error reported as an error value.
func Expand[H hash.Hash](h func() H, pseudorandomKey []byte, info string, keyLength int) ([]byte, error) {
	return hkdf.Expand(h, pseudorandomKey, info, keyLength)
}
