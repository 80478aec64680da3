package tls

import (
	"context"
	"crypto"
	"crypto/rsa"

	"golang.org/x/crypto/cryptobyte"

	tlserrors "github.com/refraction-networking/tlscore/errors"
)

var (
	errNoCertificateKey = tlserrors.New("tls: no certificate key installed").Base(ErrFailure).AtError()

	// errInvalidCertificateVerify is the uniform verification failure: an
	// unknown scheme, a scheme the peer certificate cannot carry, and a bad
	// signature are deliberately indistinguishable to the peer.
	errInvalidCertificateVerify = tlserrors.New("tls: invalid CertificateVerify signature").Base(ErrInvalidSignature).AtError()

	errCertificateVerifyFormat = tlserrors.New("tls: malformed CertificateVerify message").Base(ErrDecodingFailed).AtError()
)

// SignCertificateVerify signs the current transcript with the key installed
// by SetCertificateKey and writes the CertificateVerify message body into
// out: the signature scheme, a two-byte length, and the signature. It
// returns the number of bytes written. See RFC 8446, Section 4.4.3.
//
// The scheme must be one with a TLS 1.3 definition, enabled in the
// configuration, and producible by the installed key; anything else fails
// with ErrUnsupportedSignatureAlgo. An out buffer too small for the message
// fails with ErrInvalidLength and a partially written buffer.
func (hc *HandshakeContext) SignCertificateVerify(out []byte) (int, error) {
	if hc.certKey == nil {
		return 0, errNoCertificateKey
	}
	if hc.transcript == nil {
		return 0, errNoTranscript
	}

	scheme := hc.signScheme
	info, ok := signatureSchemeDetails[scheme]
	if !ok {
		return 0, tlserrors.New("tls: signature scheme ", scheme, " not usable for CertificateVerify").Base(ErrUnsupportedSignatureAlgo).AtError()
	}
	if !hc.config.supportsSignatureScheme(scheme) {
		return 0, tlserrors.New("tls: signature scheme ", scheme, " disabled by configuration").Base(ErrUnsupportedSignatureAlgo).AtError()
	}
	if !keySupportsScheme(hc.certKey.Public(), info) {
		return 0, tlserrors.New("tls: certificate key cannot produce signature scheme ", scheme).Base(ErrUnsupportedSignatureAlgo).AtError()
	}

	sigContext := serverSignatureContext
	if hc.isClient {
		sigContext = clientSignatureContext
	}
	signed, err := signedMessage(info.hash, sigContext, hc.transcript)
	if err != nil {
		return 0, tlserrors.New("tls: signature content buffer: ", err).Base(ErrOutOfMemory).AtError()
	}

	signOpts := crypto.SignerOpts(info.hash)
	if info.sigType == signatureRSAPSS {
		signOpts = &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: info.hash}
	}
	sig, err := hc.certKey.Sign(hc.config.rand(), signed, signOpts)
	if err != nil {
		return 0, tlserrors.New("tls: CertificateVerify signature: ", err).Base(ErrFailure).AtError()
	}

	b := cryptobyte.NewFixedBuilder(out[:0:len(out)])
	b.AddUint16(uint16(scheme))
	b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) {
		b.AddBytes(sig)
	})
	msg, err := b.Bytes()
	if err != nil {
		return 0, tlserrors.New("tls: CertificateVerify does not fit output buffer").Base(ErrInvalidLength).AtError()
	}
	return len(msg), nil
}

// VerifyCertificateVerify checks a peer CertificateVerify message body
// against the current transcript and the peer certificate recorded by
// SetPeerCertificate.
//
// A body that is not exactly a scheme, a two-byte length, and that many
// signature bytes fails with ErrDecodingFailed. Every other failure is
// reported uniformly as ErrInvalidSignature, so the reason a signature was
// rejected is not observable; debug builds log the underlying cause.
func (hc *HandshakeContext) VerifyCertificateVerify(record []byte) error {
	var sigScheme uint16
	var sig cryptobyte.String
	s := cryptobyte.String(record)
	if !s.ReadUint16(&sigScheme) || !s.ReadUint16LengthPrefixed(&sig) || !s.Empty() {
		return errCertificateVerifyFormat
	}
	if hc.transcript == nil {
		return errNoTranscript
	}

	info, ok := signatureSchemeDetails[SignatureScheme(sigScheme)]
	if !ok {
		return errInvalidCertificateVerify
	}
	if hc.peerCertKey == nil {
		return errInvalidCertificateVerify
	}
	if info.certType != hc.peerCertType || !keySupportsScheme(hc.peerCertKey, info) {
		return errInvalidCertificateVerify
	}

	sigContext := clientSignatureContext
	if hc.isClient {
		sigContext = serverSignatureContext
	}
	signed, err := signedMessage(info.hash, sigContext, hc.transcript)
	if err != nil {
		return tlserrors.New("tls: signature content buffer: ", err).Base(ErrOutOfMemory).AtError()
	}

	if err := verifyHandshakeSignature(info.sigType, hc.peerCertKey, info.hash, signed, []byte(sig)); err != nil {
		if tlserrors.DebugLoggingEnabled {
			tlserrors.LogDebugInner(context.Background(), err, "tls: peer CertificateVerify rejected")
		}
		return errInvalidCertificateVerify
	}
	return nil
}
