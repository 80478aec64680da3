package tls

import (
	"golang.org/x/crypto/cryptobyte"

	tlserrors "github.com/refraction-networking/tlscore/errors"
)

// The named-group space splits into two disjoint classes for key exchange
// purposes: the elliptic-curve groups (including the X25519 and X448
// Montgomery curves) and the finite-field groups of RFC 7919. Every
// dispatch on a recorded group goes through this classification, so the two
// functions must never both claim a value.

func isECDHEGroup(group CurveID) bool {
	switch group {
	case CurveP224, CurveP256, CurveP384, CurveP521, X25519, X448:
		return true
	}
	return false
}

func isFFDHEGroup(group CurveID) bool {
	switch group {
	case CurveFFDHE2048, CurveFFDHE3072, CurveFFDHE4096, CurveFFDHE6144, CurveFFDHE8192:
		return true
	}
	return false
}

// SupportsECDHEGroup reports whether group names an elliptic-curve group
// that is enabled in the context's configuration.
func (hc *HandshakeContext) SupportsECDHEGroup(group CurveID) bool {
	return isECDHEGroup(group) && hc.config.supportsGroup(group)
}

// SupportsFFDHEGroup reports whether group names a finite-field group that
// is enabled in the context's configuration. Configurations that list no
// finite-field groups disable FFDHE key exchange entirely.
func (hc *HandshakeContext) SupportsFFDHEGroup(group CurveID) bool {
	return isFFDHEGroup(group) && hc.config.supportsGroup(group)
}

// SupportsGroup reports whether group is usable for key exchange with the
// context's configuration, regardless of class.
func (hc *HandshakeContext) SupportsGroup(group CurveID) bool {
	return hc.SupportsECDHEGroup(group) || hc.SupportsFFDHEGroup(group)
}

var (
	errKeyShareEntryTruncated = tlserrors.New("tls: truncated KeyShareEntry list").Base(ErrDecodingFailed).AtError()
	errKeyShareDuplicate      = tlserrors.New("tls: multiple key shares offered for the same group").Base(ErrIllegalParameter).AtError()
)

// CheckDuplicateKeyShare walks a raw KeyShareEntry list, as carried in a
// key_share extension, and reports whether any entry names the given group.
// Clients must not offer multiple KeyShareEntry values for the same group;
// servers may check for violations of this rule and abort the handshake with
// an illegal_parameter alert (RFC 8446, Section 4.2.8).
func CheckDuplicateKeyShare(group CurveID, entries []byte) error {
	s := cryptobyte.String(entries)
	for !s.Empty() {
		var entryGroup uint16
		var keyExchange cryptobyte.String
		if !s.ReadUint16(&entryGroup) ||
			!s.ReadUint16LengthPrefixed(&keyExchange) {
			return errKeyShareEntryTruncated
		}
		if CurveID(entryGroup) == group {
			return errKeyShareDuplicate
		}
	}
	return nil
}

// appendKeyShareEntry appends the wire encoding of a KeyShareEntry to b.
func appendKeyShareEntry(b []byte, ks KeyShare) ([]byte, error) {
	builder := cryptobyte.NewBuilder(b)
	builder.AddUint16(uint16(ks.Group))
	builder.AddUint16LengthPrefixed(func(builder *cryptobyte.Builder) {
		builder.AddBytes(ks.Data)
	})
	return builder.Bytes()
}

// parseKeyShareEntry decodes one KeyShareEntry from the front of b,
// returning the entry and the remainder.
func parseKeyShareEntry(b []byte) (KeyShare, []byte, error) {
	s := cryptobyte.String(b)
	var group uint16
	var keyExchange cryptobyte.String
	if !s.ReadUint16(&group) ||
		!s.ReadUint16LengthPrefixed(&keyExchange) {
		return KeyShare{}, nil, errKeyShareEntryTruncated
	}
	return KeyShare{Group: CurveID(group), Data: []byte(keyExchange)}, []byte(s), nil
}
