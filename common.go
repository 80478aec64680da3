// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tls implements the cryptographic core of the TLS 1.3 handshake, as
// specified in RFC 8446, together with its DTLS variant. It covers key share
// generation and shared-secret derivation for the ECDHE and FFDHE named
// groups, pre-shared key binder computation, the transcript-hash bookkeeping
// that backs both, and generation and verification of CertificateVerify
// signatures. Record protection, message framing and the handshake state
// machine are the caller's concern; this package only supplies the
// cryptographic operations they drive.
package tls

import (
	"crypto"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"slices"
)

const (
	VersionTLS10 = 0x0301
	VersionTLS11 = 0x0302
	VersionTLS12 = 0x0303
	VersionTLS13 = 0x0304

	// Deprecated: SSLv3 is cryptographically broken, and is no longer
	// supported by this package. See golang.org/issue/32716.
	VersionSSL30 = 0x0300
)

// VersionName returns the name for the provided TLS version number
// (e.g. "TLS 1.3"), or a fallback representation of the value if the
// version is not implemented by this package.
func VersionName(version uint16) string {
	switch version {
	case VersionSSL30:
		return "SSLv3"
	case VersionTLS10:
		return "TLS 1.0"
	case VersionTLS11:
		return "TLS 1.1"
	case VersionTLS12:
		return "TLS 1.2"
	case VersionTLS13:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("0x%04X", version)
	}
}

// TransportProtocol selects the handshake framing that transcript
// computations assume. DTLS prepends message-sequence and fragment fields to
// every handshake message (RFC 9147, Section 5.2), which changes the bytes a
// ClientHello contributes to the pre-shared key binder transcript.
type TransportProtocol uint8

const (
	// TransportStream is TLS over a stream transport such as TCP.
	TransportStream TransportProtocol = iota
	// TransportDatagram is DTLS over a datagram transport such as UDP.
	TransportDatagram
)

// TLS handshake message types.
const (
	typeClientHello         uint8 = 1
	typeServerHello         uint8 = 2
	typeNewSessionTicket    uint8 = 4
	typeEndOfEarlyData      uint8 = 5
	typeEncryptedExtensions uint8 = 8
	typeCertificate         uint8 = 11
	typeCertificateRequest  uint8 = 13
	typeCertificateVerify   uint8 = 15
	typeFinished            uint8 = 20
	typeKeyUpdate           uint8 = 24
	typeMessageHash         uint8 = 254
)

// TLS extension numbers admissible in a CertificateEntry.
const (
	extensionStatusRequest uint16 = 5
	extensionSCT           uint16 = 18
)

// CurveID is the type of a TLS identifier for a key exchange mechanism. See
// https://www.iana.org/assignments/tls-parameters/tls-parameters.xml#tls-parameters-8.
//
// In TLS 1.2, this registry used to support only elliptic curves. In TLS 1.3,
// it was extended to other groups and renamed NamedGroup. See RFC 8446,
// Section 4.2.7.
type CurveID uint16

const (
	CurveP224 CurveID = 21
	CurveP256 CurveID = 23
	CurveP384 CurveID = 24
	CurveP521 CurveID = 25
	X25519    CurveID = 29
	X448      CurveID = 30

	// Finite-field groups defined in RFC 7919.
	CurveFFDHE2048 CurveID = 256
	CurveFFDHE3072 CurveID = 257
	CurveFFDHE4096 CurveID = 258
	CurveFFDHE6144 CurveID = 259
	CurveFFDHE8192 CurveID = 260
)

// KeyShare is a TLS 1.3 KeyShareEntry: a named group together with the key
// exchange data for that group. See RFC 8446, Section 4.2.8.
type KeyShare struct {
	Group CurveID
	Data  []byte
}

// SignatureScheme identifies a signature algorithm supported by TLS. See
// RFC 8446, Section 4.2.3.
type SignatureScheme uint16

const (
	// RSASSA-PKCS1-v1_5 algorithms.
	PKCS1WithSHA256 SignatureScheme = 0x0401
	PKCS1WithSHA384 SignatureScheme = 0x0501
	PKCS1WithSHA512 SignatureScheme = 0x0601

	// RSASSA-PSS algorithms with public key OID rsaEncryption.
	PSSWithSHA256 SignatureScheme = 0x0804
	PSSWithSHA384 SignatureScheme = 0x0805
	PSSWithSHA512 SignatureScheme = 0x0806

	// RSASSA-PSS algorithms with public key OID RSASSA-PSS.
	PSSPSSWithSHA256 SignatureScheme = 0x0809
	PSSPSSWithSHA384 SignatureScheme = 0x080a
	PSSPSSWithSHA512 SignatureScheme = 0x080b

	// ECDSA algorithms. Only constrained to a specific curve in TLS 1.3.
	ECDSAWithP256AndSHA256 SignatureScheme = 0x0403
	ECDSAWithP384AndSHA384 SignatureScheme = 0x0503
	ECDSAWithP521AndSHA512 SignatureScheme = 0x0603

	// EdDSA algorithms.
	Ed25519 SignatureScheme = 0x0807
	Ed448   SignatureScheme = 0x0808

	// Legacy signature and hash algorithms for TLS 1.2.
	PKCS1WithSHA1 SignatureScheme = 0x0201
	ECDSAWithSHA1 SignatureScheme = 0x0203
)

// CertificateType identifies the public key family carried by an end-entity
// certificate. The two RSA variants are distinguished by the
// SubjectPublicKeyInfo OID (rsaEncryption versus id-RSASSA-PSS), which
// constrains the signature schemes the key may produce; that distinction is
// not recoverable from the parsed public key alone, so callers report it
// explicitly.
type CertificateType uint8

const (
	CertTypeRSA CertificateType = iota + 1
	CertTypeRSAPSS
	CertTypeECDSA
	CertTypeEd25519
	CertTypeEd448
)

const (
	// signaturePKCS1v15 and friends are the abstract signature algorithm
	// families used internally. They are arbitrary values that do not
	// collide with TLS wire codepoints.
	signaturePKCS1v15 uint8 = iota + 225
	signatureRSAPSS
	signatureECDSA
	signatureEd25519
	signatureEd448
)

// directSigning is a standard Hash value that signals that no pre-hashing
// should be performed, and that the input should be signed directly. It is
// the hash function associated with the Ed25519 and Ed448 signature schemes.
var directSigning crypto.Hash = 0

// helloRetryRequestRandom is the fixed ServerHello.random value that marks a
// ServerHello as a HelloRetryRequest. See RFC 8446, Section 4.1.3.
var helloRetryRequestRandom = []byte{
	0xCF, 0x21, 0xAD, 0x74, 0xE5, 0x9A, 0x61, 0x11,
	0xBE, 0x1D, 0x8C, 0x02, 0x1E, 0x65, 0xB8, 0x91,
	0xC2, 0xA2, 0x11, 0x16, 0x7A, 0xBB, 0x8C, 0x5E,
	0x07, 0x9E, 0x09, 0xE2, 0xC8, 0xA8, 0x33, 0x9C,
}

const (
	// downgradeCanaryTLS12 or downgradeCanaryTLS11 is embedded in the server
	// random as a downgrade protection if the server would be capable of
	// negotiating a higher version. See RFC 8446, Section 4.1.3.
	downgradeCanaryTLS12 = "DOWNGRD\x01"
	downgradeCanaryTLS11 = "DOWNGRD\x00"
)

// DowngradeCanary returns the protection suffix a TLS 1.3 server embeds in
// the last eight bytes of ServerHello.random when it negotiates the given
// lower protocol version, or nil if the version calls for no canary.
func DowngradeCanary(version uint16) []byte {
	switch version {
	case VersionTLS12:
		return []byte(downgradeCanaryTLS12)
	case VersionTLS10, VersionTLS11:
		return []byte(downgradeCanaryTLS11)
	default:
		return nil
	}
}

// Sentinel errors returned by handshake operations. Errors produced by this
// package carry additional context but always match one of these with
// errors.Is.
var (
	// ErrInvalidParameter reports an argument that violates an operation's
	// contract, such as a truncated ClientHello length that is out of range.
	ErrInvalidParameter = errors.New("tls: invalid parameter")

	// ErrInvalidLength reports an input or output buffer whose size does not
	// match what the negotiated algorithms require.
	ErrInvalidLength = errors.New("tls: invalid length")

	// ErrDecodingFailed reports a peer message that does not parse as the
	// expected structure.
	ErrDecodingFailed = errors.New("tls: decoding failed")

	// ErrIllegalParameter reports a peer value that parses but is not
	// acceptable, such as an unsupported named group or an out-of-range
	// finite-field public key. It corresponds to the illegal_parameter
	// alert.
	ErrIllegalParameter = errors.New("tls: illegal parameter")

	// ErrUnsupportedSignatureAlgo reports a signature scheme that is not
	// implemented or that the configured signing key cannot produce.
	ErrUnsupportedSignatureAlgo = errors.New("tls: unsupported signature algorithm")

	// ErrInvalidSignature reports a CertificateVerify signature that failed
	// verification, for any reason.
	ErrInvalidSignature = errors.New("tls: invalid signature")

	// ErrOutOfMemory reports scratch-memory exhaustion.
	ErrOutOfMemory = errors.New("tls: out of memory")

	// ErrFailure reports missing negotiated state, such as an operation
	// that requires a cipher suite hash before one has been selected.
	ErrFailure = errors.New("tls: handshake state missing")

	// ErrHandshakeFailed reports a negotiated parameter that no longer maps
	// to a usable key exchange, such as a recorded named group that neither
	// the elliptic-curve nor the finite-field providers claim.
	ErrHandshakeFailed = errors.New("tls: handshake failed")
)

// A Config structure is used to configure the handshake operations. Configs
// may be reused between handshake contexts; the package does not modify
// them. The zero value selects sensible defaults.
type Config struct {
	// Rand provides the source of entropy for ephemeral keys. If Rand is
	// nil, the cryptographic random reader in package crypto/rand is used.
	// The Reader must be safe for concurrent use.
	Rand io.Reader

	// SupportedGroups is the set of named groups enabled for key exchange,
	// most preferred first. If empty, a default elliptic-curve-only set is
	// used; the finite-field groups of RFC 7919 must be enabled explicitly.
	SupportedGroups []CurveID

	// SignatureSchemes is the set of signature schemes this side is willing
	// to produce in its own CertificateVerify message. If empty, a default
	// set is used. It does not restrict which peer signatures are accepted.
	SignatureSchemes []SignatureScheme
}

// Clone returns a shallow copy of c, or a Config with default values if c is
// nil. Slices are copied so the clone can be modified independently.
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	return &Config{
		Rand:             c.Rand,
		SupportedGroups:  slices.Clone(c.SupportedGroups),
		SignatureSchemes: slices.Clone(c.SignatureSchemes),
	}
}

func (c *Config) rand() io.Reader {
	if c == nil || c.Rand == nil {
		return rand.Reader
	}
	return c.Rand
}

func (c *Config) supportedGroups() []CurveID {
	if c != nil && len(c.SupportedGroups) != 0 {
		return c.SupportedGroups
	}
	return defaultSupportedGroups
}

func (c *Config) supportsGroup(group CurveID) bool {
	return slices.Contains(c.supportedGroups(), group)
}

func (c *Config) supportedSignatureSchemes() []SignatureScheme {
	if c != nil && len(c.SignatureSchemes) != 0 {
		return c.SignatureSchemes
	}
	return defaultSupportedSignatureSchemes
}

func (c *Config) supportsSignatureScheme(scheme SignatureScheme) bool {
	return slices.Contains(c.supportedSignatureSchemes(), scheme)
}

// defaultSupportedGroups is the group registry used when the Config does not
// name one. It holds every group with an elliptic-curve provider in this
// package. The finite-field groups are deliberately absent: FFDHE key
// exchange is expensive and rarely offered, so it is opt-in.
var defaultSupportedGroups = []CurveID{
	X25519, CurveP256, CurveP384, CurveP521, X448,
}

var defaultSupportedSignatureSchemes = []SignatureScheme{
	PSSWithSHA256,
	ECDSAWithP256AndSHA256,
	Ed25519,
	PSSWithSHA384,
	PSSWithSHA512,
	ECDSAWithP384AndSHA384,
	ECDSAWithP521AndSHA512,
	PSSPSSWithSHA256,
	PSSPSSWithSHA384,
	PSSPSSWithSHA512,
	Ed448,
}
