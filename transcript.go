// Copyright 2018 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls

import (
	"bytes"
	"context"
	"crypto"
	"hash"

	tlserrors "github.com/refraction-networking/tlscore/errors"
)

// The handshake transcript is a running hash of every handshake message
// exchanged so far, keyed by the negotiated cipher suite hash. The driving
// state machine feeds raw message bytes through UpdateTranscript as it sends
// and receives them; binder computation, CertificateVerify and the key
// schedule all read the digest without disturbing the running state.

var errNoTranscript = tlserrors.New("tls: no transcript state").Base(ErrFailure).AtError()

// UpdateTranscript appends raw handshake message bytes to the running
// transcript, creating it on first use from the negotiated cipher suite
// hash. It fails with ErrFailure if no cipher suite hash has been selected.
func (hc *HandshakeContext) UpdateTranscript(b []byte) error {
	if hc.transcript == nil {
		if hc.suiteHash == 0 || !hc.suiteHash.Available() {
			return errNoTranscript
		}
		hc.transcript = hc.suiteHash.New()
	}
	hc.transcript.Write(b)
	return nil
}

// TranscriptDigest returns the hash of the transcript accumulated so far.
// The running state is left untouched, so the handshake can continue to
// extend it.
func (hc *HandshakeContext) TranscriptDigest() ([]byte, error) {
	if hc.transcript == nil {
		return nil, errNoTranscript
	}
	return hc.transcript.Sum(nil), nil
}

// DigestClientHello1 replaces the transcript with the message_hash construct
// of RFC 8446, Section 4.4.1: when a server responds to the first
// ClientHello with a HelloRetryRequest, the transcript restarts from a
// synthetic handshake message containing only the hash of ClientHello1.
// Both sides call this at the point the HelloRetryRequest enters the
// transcript. The synthetic message always uses the 4-byte TLS header, on
// datagram transports too.
func (hc *HandshakeContext) DigestClientHello1() error {
	if hc.transcript == nil {
		return errNoTranscript
	}
	if hc.suiteHash == 0 || !hc.suiteHash.Available() {
		return errNoTranscript
	}

	chHash := hc.transcript.Sum(nil)
	hc.transcript.Reset()
	hc.transcript.Write([]byte{typeMessageHash, 0, 0, uint8(len(chHash))})
	hc.transcript.Write(chHash)

	if tlserrors.DebugLoggingEnabled {
		tlserrors.LogDebug(context.Background(), "tls: transcript restarted from message_hash, digest size ", len(chHash))
	}
	return nil
}

// cloneHash uses the encoding.BinaryMarshaler and encoding.BinaryUnmarshaler
// interfaces implemented by standard library hashes to clone the state of in
// to a new instance of h. It returns nil if the operation fails.
func cloneHash(in hash.Hash, h crypto.Hash) hash.Hash {
	// Recreate the interface to avoid importing encoding.
	type binaryMarshaler interface {
		MarshalBinary() (data []byte, err error)
		UnmarshalBinary(data []byte) error
	}
	marshaler, ok := in.(binaryMarshaler)
	if !ok {
		return nil
	}
	state, err := marshaler.MarshalBinary()
	if err != nil {
		return nil
	}
	out := h.New()
	unmarshaler, ok := out.(binaryMarshaler)
	if !ok {
		return nil
	}
	if err := unmarshaler.UnmarshalBinary(state); err != nil {
		return nil
	}
	return out
}

// IsHelloRetryRequest reports whether a ServerHello random value is the
// fixed HelloRetryRequest marker of RFC 8446, Section 4.1.3.
func IsHelloRetryRequest(serverRandom []byte) bool {
	return bytes.Equal(serverRandom, helloRetryRequestRandom)
}

// HasDowngradeCanary reports whether the last eight bytes of a ServerHello
// random value carry one of the downgrade protection markers a TLS 1.3
// server embeds when negotiating a lower protocol version.
func HasDowngradeCanary(serverRandom []byte) bool {
	if len(serverRandom) < 8 {
		return false
	}
	suffix := serverRandom[len(serverRandom)-8:]
	return bytes.Equal(suffix, []byte(downgradeCanaryTLS12)) ||
		bytes.Equal(suffix, []byte(downgradeCanaryTLS11))
}
