// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls

import (
	"crypto/ecdh"
	"io"
	"math/big"
	"slices"

	"github.com/cloudflare/circl/dh/x448"

	tlserrors "github.com/refraction-networking/tlscore/errors"
)

// This file contains the key exchange half of the TLS 1.3 key schedule: key
// share generation and shared-secret derivation for the elliptic-curve and
// finite-field named groups. See RFC 8446, Section 4.2.8, and RFC 7919.

var (
	errUnsupportedKeyShareGroup = tlserrors.New("tls: key share group not supported by configuration").Base(ErrIllegalParameter).AtError()
	errUnsupportedCurve         = tlserrors.New("tls: no key exchange provider for curve").Base(ErrIllegalParameter).AtError()
	errUnknownNamedGroup        = tlserrors.New("tls: recorded named group is not usable for key exchange").Base(ErrHandshakeFailed).AtError()
	errNoKeyShareGenerated      = tlserrors.New("tls: no key share generated for the recorded group").Base(ErrFailure).AtError()
)

// GenerateKeyShare generates an ephemeral key pair for the given named group
// and returns the key_exchange value to offer in a KeyShareEntry. On success
// the group is recorded in the context and the private key is retained for
// GenerateSharedSecret. A group that resolves to no key exchange provider
// fails with ErrIllegalParameter and leaves the recorded group unchanged, so
// a HelloRetryRequest flow can probe groups without corrupting state.
func (hc *HandshakeContext) GenerateKeyShare(group CurveID) ([]byte, error) {
	if hc.SupportsECDHEGroup(group) {
		if group == X448 {
			hc.namedGroup = group
			hc.ecdheKey, hc.ffdheKey = nil, nil
			key, err := generateX448Key(hc.config.rand())
			if err != nil {
				return nil, err
			}
			hc.x448Key = key
			return key.PublicKeyBytes(), nil
		}
		if _, ok := curveForCurveID(group); !ok {
			return nil, errUnsupportedCurve
		}
		hc.namedGroup = group
		hc.x448Key, hc.ffdheKey = nil, nil
		key, err := generateECDHEKey(hc.config.rand(), group)
		if err != nil {
			return nil, err
		}
		hc.ecdheKey = key
		return key.PublicKey().Bytes(), nil
	}

	if hc.SupportsFFDHEGroup(group) {
		params := getFFDHEGroupParams(group)
		if params == nil {
			return nil, errUnsupportedCurve
		}
		hc.namedGroup = group
		hc.ecdheKey, hc.x448Key = nil, nil
		key, err := generateFFDHEKey(hc.config.rand(), group)
		if err != nil {
			return nil, err
		}
		hc.ffdheKey = key
		return key.PublicKeyBytes(), nil
	}

	return nil, errUnsupportedKeyShareGroup
}

// GenerateSharedSecret derives the shared secret from the peer's
// key_exchange value and the private key generated by GenerateKeyShare,
// dispatching on the recorded named group. The result becomes the premaster
// secret. Peer values that fail import or validation (wrong length,
// off-curve point, all-zero Montgomery output, out-of-range finite-field
// value) fail with ErrIllegalParameter; a recorded group that no longer
// classifies as either key exchange family fails with ErrHandshakeFailed.
func (hc *HandshakeContext) GenerateSharedSecret(peerKeyShare []byte) error {
	switch {
	case hc.SupportsECDHEGroup(hc.namedGroup):
		if hc.namedGroup == X448 {
			if hc.x448Key == nil {
				return errNoKeyShareGenerated
			}
			secret, err := hc.x448Key.SharedSecret(peerKeyShare)
			if err != nil {
				return err
			}
			hc.setPremasterSecret(secret)
			return nil
		}
		if hc.ecdheKey == nil {
			return errNoKeyShareGenerated
		}
		peerKey, err := hc.ecdheKey.Curve().NewPublicKey(peerKeyShare)
		if err != nil {
			return tlserrors.New("tls: invalid peer key share: ", err).Base(ErrIllegalParameter).AtError()
		}
		secret, err := hc.ecdheKey.ECDH(peerKey)
		if err != nil {
			return tlserrors.New("tls: ECDH failed: ", err).Base(ErrIllegalParameter).AtError()
		}
		hc.setPremasterSecret(secret)
		return nil

	case hc.SupportsFFDHEGroup(hc.namedGroup):
		if hc.ffdheKey == nil {
			return errNoKeyShareGenerated
		}
		secret, err := hc.ffdheKey.SharedSecret(peerKeyShare)
		if err != nil {
			return err
		}
		hc.setPremasterSecret(secret)
		return nil
	}

	return errUnknownNamedGroup
}

// ffdhePrivateKey holds the private and public keys for FFDHE key exchange
// over one of the RFC 7919 groups.
type ffdhePrivateKey struct {
	params  *ffdheGroup
	private *big.Int // private exponent
	public  *big.Int // public value: g^private mod p
}

// generateFFDHEKey generates an FFDHE key pair for the specified group.
func generateFFDHEKey(rand io.Reader, group CurveID) (*ffdhePrivateKey, error) {
	params := getFFDHEGroupParams(group)
	if params == nil {
		return nil, errUnsupportedCurve
	}
	return newFFDHEKey(rand, params)
}

// newFFDHEKey generates a key pair over explicit group parameters. The
// private exponent is drawn from [2, p-2]; the public value is
// g^private mod p.
func newFFDHEKey(rand io.Reader, params *ffdheGroup) (*ffdhePrivateKey, error) {
	privateBytes := make([]byte, params.size)
	if _, err := io.ReadFull(rand, privateBytes); err != nil {
		return nil, err
	}

	// Reduce modulo p-3 to get [0, p-4], then shift into [2, p-2].
	pMinus3 := new(big.Int).Sub(params.p, big.NewInt(3))
	private := new(big.Int).SetBytes(privateBytes)
	private.Mod(private, pMinus3)
	private.Add(private, big.NewInt(2))

	public := new(big.Int).Exp(params.g, private, params.p)

	return &ffdhePrivateKey{
		params:  params,
		private: private,
		public:  public,
	}, nil
}

// PublicKeyBytes returns the public value in big-endian form, left-padded to
// the group's modulus size as RFC 7919 requires.
func (k *ffdhePrivateKey) PublicKeyBytes() []byte {
	return leftPad(k.public.Bytes(), k.params.size)
}

// SharedSecret computes peerPublic^private mod p. The peer value must lie in
// [2, p-2]; values outside that range select degenerate subgroups and are
// rejected. The result is left-padded to the modulus size.
func (k *ffdhePrivateKey) SharedSecret(peerPublicBytes []byte) ([]byte, error) {
	peerPublic := new(big.Int).SetBytes(peerPublicBytes)

	if peerPublic.Cmp(big.NewInt(2)) < 0 {
		return nil, tlserrors.New("tls: FFDHE peer public value too small").Base(ErrIllegalParameter).AtError()
	}
	pMinus1 := new(big.Int).Sub(k.params.p, big.NewInt(1))
	if peerPublic.Cmp(pMinus1) >= 0 {
		return nil, tlserrors.New("tls: FFDHE peer public value too large").Base(ErrIllegalParameter).AtError()
	}

	sharedSecret := new(big.Int).Exp(peerPublic, k.private, k.params.p)
	return leftPad(sharedSecret.Bytes(), k.params.size), nil
}

// Zero clears the private exponent.
func (k *ffdhePrivateKey) Zero() {
	if k.private != nil {
		k.private.SetInt64(0)
	}
}

func leftPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	padded := make([]byte, size)
	copy(padded[size-len(b):], b)
	return padded
}

// generateECDHEKey returns a PrivateKey that implements Diffie-Hellman
// according to RFC 8446, Section 4.2.8.2.
func generateECDHEKey(rand io.Reader, curveID CurveID) (*ecdh.PrivateKey, error) {
	curve, ok := curveForCurveID(curveID)
	if !ok {
		return nil, errUnsupportedCurve
	}

	return curve.GenerateKey(rand)
}

func curveForCurveID(id CurveID) (ecdh.Curve, bool) {
	switch id {
	case X25519:
		return ecdh.X25519(), true
	case CurveP256:
		return ecdh.P256(), true
	case CurveP384:
		return ecdh.P384(), true
	case CurveP521:
		return ecdh.P521(), true
	default:
		return nil, false
	}
}

// x448PrivateKey is the X448 counterpart of ecdh.PrivateKey. crypto/ecdh
// does not implement X448, so the CIRCL implementation backs it.
type x448PrivateKey struct {
	secret x448.Key
	public x448.Key
}

func generateX448Key(rand io.Reader) (*x448PrivateKey, error) {
	var key x448PrivateKey
	if _, err := io.ReadFull(rand, key.secret[:]); err != nil {
		return nil, err
	}
	x448.KeyGen(&key.public, &key.secret)
	return &key, nil
}

func (k *x448PrivateKey) PublicKeyBytes() []byte {
	return slices.Clone(k.public[:])
}

// SharedSecret performs the X448 function with the peer's public value.
// RFC 7748 requires rejecting the all-zero output that results from
// small-order peer points.
func (k *x448PrivateKey) SharedSecret(peerPublicBytes []byte) ([]byte, error) {
	if len(peerPublicBytes) != x448.Size {
		return nil, tlserrors.New("tls: invalid X448 peer public value length").Base(ErrIllegalParameter).AtError()
	}
	var peerPublic, shared x448.Key
	copy(peerPublic[:], peerPublicBytes)
	if !x448.Shared(&shared, &k.secret, &peerPublic) {
		return nil, tlserrors.New("tls: X448 peer public value has small order").Base(ErrIllegalParameter).AtError()
	}
	return shared[:], nil
}
