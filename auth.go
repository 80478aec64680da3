// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"hash"
	"slices"

	"github.com/cloudflare/circl/sign/ed448"

	tlserrors "github.com/refraction-networking/tlscore/errors"
	"github.com/refraction-networking/tlscore/internal/scratch"
)

// signatureSchemeInfo describes how a CertificateVerify signature scheme is
// produced: the abstract signature algorithm, the pre-hash (directSigning
// for the EdDSA schemes), the certificate key type that carries it, and the
// curve the key must use for the ECDSA schemes.
type signatureSchemeInfo struct {
	sigType  uint8
	hash     crypto.Hash
	certType CertificateType
	curve    CurveID
}

// signatureSchemeDetails holds the schemes usable in a TLS 1.3
// CertificateVerify message. TLS 1.3 dropped PKCS #1 v1.5 and pins each
// ECDSA scheme to a single curve, so the scheme fully determines the shape
// of the signing key. See RFC 8446, Section 4.2.3.
var signatureSchemeDetails = map[SignatureScheme]signatureSchemeInfo{
	PSSWithSHA256:          {signatureRSAPSS, crypto.SHA256, CertTypeRSA, 0},
	PSSWithSHA384:          {signatureRSAPSS, crypto.SHA384, CertTypeRSA, 0},
	PSSWithSHA512:          {signatureRSAPSS, crypto.SHA512, CertTypeRSA, 0},
	PSSPSSWithSHA256:       {signatureRSAPSS, crypto.SHA256, CertTypeRSAPSS, 0},
	PSSPSSWithSHA384:       {signatureRSAPSS, crypto.SHA384, CertTypeRSAPSS, 0},
	PSSPSSWithSHA512:       {signatureRSAPSS, crypto.SHA512, CertTypeRSAPSS, 0},
	ECDSAWithP256AndSHA256: {signatureECDSA, crypto.SHA256, CertTypeECDSA, CurveP256},
	ECDSAWithP384AndSHA384: {signatureECDSA, crypto.SHA384, CertTypeECDSA, CurveP384},
	ECDSAWithP521AndSHA512: {signatureECDSA, crypto.SHA512, CertTypeECDSA, CurveP521},
	Ed25519:                {signatureEd25519, directSigning, CertTypeEd25519, 0},
	Ed448:                  {signatureEd448, directSigning, CertTypeEd448, 0},
}

// verifyHandshakeSignature verifies a signature against pre-hashed
// (if required) handshake contents.
func verifyHandshakeSignature(sigType uint8, pubkey crypto.PublicKey, hashFunc crypto.Hash, signed, sig []byte) error {
	if tlserrors.DebugLoggingEnabled {
		tlserrors.LogDebug(context.Background(), "tls: verifying signature type:", sigType)
	}

	switch sigType {
	case signatureECDSA:
		pubKey, ok := pubkey.(*ecdsa.PublicKey)
		if !ok {
			return tlserrors.New("tls: expected an ECDSA public key, got ", fmt.Sprintf("%T", pubkey)).AtError()
		}
		if !ecdsa.VerifyASN1(pubKey, signed, sig) {
			return tlserrors.New("tls: ECDSA verification failure").AtError()
		}
	case signatureEd25519:
		pubKey, ok := pubkey.(ed25519.PublicKey)
		if !ok {
			return tlserrors.New("tls: expected an Ed25519 public key, got ", fmt.Sprintf("%T", pubkey)).AtError()
		}
		if !ed25519.Verify(pubKey, signed, sig) {
			return tlserrors.New("tls: Ed25519 verification failure").AtError()
		}
	case signatureEd448:
		pubKey, ok := pubkey.(ed448.PublicKey)
		if !ok {
			return tlserrors.New("tls: expected an Ed448 public key, got ", fmt.Sprintf("%T", pubkey)).AtError()
		}
		if !ed448.Verify(pubKey, signed, sig, "") {
			return tlserrors.New("tls: Ed448 verification failure").AtError()
		}
	case signatureRSAPSS:
		pubKey, ok := pubkey.(*rsa.PublicKey)
		if !ok {
			return tlserrors.New("tls: expected an RSA public key, got ", fmt.Sprintf("%T", pubkey)).AtError()
		}
		signOpts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash}
		if err := rsa.VerifyPSS(pubKey, hashFunc, signed, sig, signOpts); err != nil {
			return tlserrors.New("tls: RSA-PSS verification failure").Base(err).AtError()
		}
	default:
		return tlserrors.New("tls: internal error: unknown signature type ", sigType).AtError()
	}

	if tlserrors.DebugLoggingEnabled {
		tlserrors.LogDebug(context.Background(), "tls: signature verified successfully")
	}
	return nil
}

const (
	serverSignatureContext = "TLS 1.3, server CertificateVerify\x00"
	clientSignatureContext = "TLS 1.3, client CertificateVerify\x00"
)

var signaturePadding = []byte{
	0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20,
	0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20,
	0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20,
	0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20,
	0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20,
	0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20,
	0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20,
	0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20, 0x20,
}

// signedMessage returns the pre-hashed (if necessary) message to be signed by
// certificate keys in TLS 1.3. See RFC 8446, Section 4.4.3. The content is
// staged in a scratch buffer; exhaustion of the scratch budget is the only
// error.
func signedMessage(sigHash crypto.Hash, context string, transcript hash.Hash) ([]byte, error) {
	digest := transcript.Sum(nil)
	buf, err := scratch.Get(len(signaturePadding) + len(context) + len(digest))
	if err != nil {
		return nil, err
	}
	defer scratch.Put(buf)

	content := append((*buf)[:0], signaturePadding...)
	content = append(content, context...)
	content = append(content, digest...)

	if sigHash == directSigning {
		return slices.Clone(content), nil
	}
	h := sigHash.New()
	h.Write(content)
	return h.Sum(nil), nil
}

// ecdsaCurveID maps an ECDSA public key curve to its TLS named group, or 0
// when the curve has no TLS 1.3 signature scheme.
func ecdsaCurveID(curve elliptic.Curve) CurveID {
	switch curve {
	case elliptic.P256():
		return CurveP256
	case elliptic.P384():
		return CurveP384
	case elliptic.P521():
		return CurveP521
	}
	return 0
}

// keySupportsScheme reports whether pub has the shape the scheme requires.
// The RSASSA-PSS schemes with the rsaEncryption and RSASSA-PSS key OIDs are
// indistinguishable at the key level; the certificate type recorded by
// SetPeerCertificate covers that split for peer keys.
func keySupportsScheme(pub crypto.PublicKey, info signatureSchemeInfo) bool {
	switch info.sigType {
	case signatureRSAPSS:
		_, ok := pub.(*rsa.PublicKey)
		return ok
	case signatureECDSA:
		pubKey, ok := pub.(*ecdsa.PublicKey)
		return ok && ecdsaCurveID(pubKey.Curve) == info.curve
	case signatureEd25519:
		_, ok := pub.(ed25519.PublicKey)
		return ok
	case signatureEd448:
		_, ok := pub.(ed448.PublicKey)
		return ok
	}
	return false
}

// RSA-PSS is used with PSSSaltLengthEqualsHash, and requires
//    emLen >= hLen + sLen + 2
var rsaSignatureSchemes = []struct {
	scheme          SignatureScheme
	minModulusBytes int
}{
	{PSSWithSHA256, crypto.SHA256.Size()*2 + 2},
	{PSSWithSHA384, crypto.SHA384.Size()*2 + 2},
	{PSSWithSHA512, crypto.SHA512.Size()*2 + 2},
	{PSSPSSWithSHA256, crypto.SHA256.Size()*2 + 2},
	{PSSPSSWithSHA384, crypto.SHA384.Size()*2 + 2},
	{PSSPSSWithSHA512, crypto.SHA512.Size()*2 + 2},
}

// SignatureSchemesForKey returns the CertificateVerify signature schemes that
// key can produce under a certificate of the given type, most preferred
// first. The list is empty when the key and certificate type do not go
// together.
func SignatureSchemesForKey(certType CertificateType, key crypto.Signer) []SignatureScheme {
	switch pub := key.Public().(type) {
	case *ecdsa.PublicKey:
		if certType != CertTypeECDSA {
			return nil
		}
		switch pub.Curve {
		case elliptic.P256():
			return []SignatureScheme{ECDSAWithP256AndSHA256}
		case elliptic.P384():
			return []SignatureScheme{ECDSAWithP384AndSHA384}
		case elliptic.P521():
			return []SignatureScheme{ECDSAWithP521AndSHA512}
		}
		return nil
	case *rsa.PublicKey:
		if certType != CertTypeRSA && certType != CertTypeRSAPSS {
			return nil
		}
		size := pub.Size()
		var sigAlgs []SignatureScheme
		for _, candidate := range rsaSignatureSchemes {
			if signatureSchemeDetails[candidate.scheme].certType != certType {
				continue
			}
			if size >= candidate.minModulusBytes {
				sigAlgs = append(sigAlgs, candidate.scheme)
			}
		}
		return sigAlgs
	case ed25519.PublicKey:
		if certType != CertTypeEd25519 {
			return nil
		}
		return []SignatureScheme{Ed25519}
	case ed448.PublicKey:
		if certType != CertTypeEd448 {
			return nil
		}
		return []SignatureScheme{Ed448}
	}
	return nil
}

// SelectSignatureScheme picks a signature scheme from the peer's preference
// list that the given key can produce and that the configuration allows. The
// returned scheme is what a respondent to a CertificateRequest should pass
// to SetCertificateKey. Schemes are tried in the peer's preference order;
// the local registry only filters.
func (c *Config) SelectSignatureScheme(certType CertificateType, key crypto.Signer, peerSchemes []SignatureScheme) (SignatureScheme, error) {
	if key == nil {
		return 0, tlserrors.New("tls: no certificate key").Base(ErrUnsupportedSignatureAlgo).AtError()
	}
	supported := SignatureSchemesForKey(certType, key)
	if len(supported) == 0 {
		return 0, tlserrors.New("tls: certificate key cannot produce any supported signature scheme").Base(ErrUnsupportedSignatureAlgo).AtError()
	}
	for _, preferredAlg := range peerSchemes {
		if !c.supportsSignatureScheme(preferredAlg) {
			continue
		}
		if slices.Contains(supported, preferredAlg) {
			if tlserrors.DebugLoggingEnabled {
				tlserrors.LogDebug(context.Background(), "tls: selected signature scheme:", preferredAlg)
			}
			return preferredAlg, nil
		}
	}
	return 0, tlserrors.New("tls: peer doesn't support any of the certificate's signature algorithms").Base(ErrUnsupportedSignatureAlgo).AtError()
}
