package tls

import (
	"context"
	"crypto/hmac"
	"hash"

	tlserrors "github.com/refraction-networking/tlscore/errors"
	"github.com/refraction-networking/tlscore/internal/byteorder"
	"github.com/refraction-networking/tlscore/internal/tls13"
)

var (
	errBinderTruncationRange = tlserrors.New("tls: truncated ClientHello length out of range").Base(ErrInvalidParameter).AtError()
	errNoCipherSuiteHash     = tlserrors.New("tls: no cipher suite hash selected").Base(ErrFailure).AtError()
	errBinderSize            = tlserrors.New("tls: binder length does not match digest size").Base(ErrInvalidLength).AtError()
	errTranscriptSnapshot    = tlserrors.New("tls: cannot snapshot transcript state").Base(ErrOutOfMemory).AtError()
	errNoUsablePSK           = tlserrors.New("tls: no usable pre-shared key").Base(ErrFailure).AtError()
)

// ComputePSKBinder computes the PskBinderEntry value for a ClientHello
// carrying a pre_shared_key extension, writing it into binder. See RFC 8446,
// Section 4.2.11.2.
//
// clientHello is the complete ClientHello message body and truncatedLen the
// length of its truncation: the prefix up to but not including the binders
// list. The binder transcript is the running handshake transcript (empty for
// an initial ClientHello, CH1 + HelloRetryRequest for a retried one)
// extended by the handshake header and truncated body of this ClientHello;
// on datagram transports the header takes the 12-byte DTLS form, using the
// message sequence number set by SetMessageSeq and the full message length
// in both length fields.
//
// The binder key derives from the external PSK if one is usable, otherwise
// from the resumption PSK, with the "ext binder" and "res binder" labels
// respectively. The running transcript is not modified, and binder is only
// written on success.
func (hc *HandshakeContext) ComputePSKBinder(clientHello []byte, truncatedLen int, binder []byte) error {
	if truncatedLen < 0 || truncatedLen >= len(clientHello) {
		return errBinderTruncationRange
	}

	suite := hc.suiteHash
	if suite == 0 || !suite.Available() {
		return errNoCipherSuiteHash
	}
	if len(binder) != suite.Size() {
		return errBinderSize
	}

	// Snapshot the running transcript so the real one keeps accumulating
	// messages independently of the binder computation.
	var transcript hash.Hash
	if hc.transcript != nil {
		transcript = cloneHash(hc.transcript, suite)
		if transcript == nil {
			return errTranscriptSnapshot
		}
	} else {
		transcript = suite.New()
	}

	var headerBuf [12]byte
	header := headerBuf[:0]
	header = append(header, typeClientHello)
	header = byteorder.BEAppendUint24(header, uint32(len(clientHello)))
	if hc.transport == TransportDatagram {
		header = byteorder.BEAppendUint16(header, hc.txMsgSeq)
		header = byteorder.BEAppendUint24(header, 0)
		header = byteorder.BEAppendUint24(header, uint32(len(clientHello)))
	}
	transcript.Write(header)
	transcript.Write(clientHello[:truncatedLen])
	transcriptDigest := transcript.Sum(nil)

	var binderKey []byte
	switch {
	case hc.pskValid():
		earlySecret, err := tls13.NewEarlySecret(suite.New, hc.psk)
		if err != nil {
			return err
		}
		binderKey, err = earlySecret.ExternalBinderKey()
		if err != nil {
			return err
		}
		if tlserrors.DebugLoggingEnabled {
			tlserrors.LogDebug(context.Background(), "tls: computing binder with label \"ext binder\", transcript digest size ", len(transcriptDigest))
		}
	case hc.ticketValid():
		earlySecret, err := tls13.NewEarlySecret(suite.New, hc.ticketPSK)
		if err != nil {
			return err
		}
		binderKey, err = earlySecret.ResumptionBinderKey()
		if err != nil {
			return err
		}
		if tlserrors.DebugLoggingEnabled {
			tlserrors.LogDebug(context.Background(), "tls: computing binder with label \"res binder\", transcript digest size ", len(transcriptDigest))
		}
	default:
		return errNoUsablePSK
	}

	// The PskBinderEntry is computed in the same way as the Finished
	// message, but with the base key being the binder key.
	finishedKey, err := tls13.ExpandLabel(suite.New, binderKey, "finished", nil, suite.Size())
	if err != nil {
		return err
	}

	mac := hmac.New(suite.New, finishedKey)
	mac.Write(transcriptDigest)
	mac.Sum(binder[:0])
	return nil
}

// pskValid reports whether the context holds a usable external pre-shared
// key. Clients must also know the identity to offer; servers select the key
// from the identity the peer offered, so the key alone suffices there.
func (hc *HandshakeContext) pskValid() bool {
	if hc.pskHash == 0 || !hc.pskHash.Available() {
		return false
	}
	if len(hc.psk) == 0 {
		return false
	}
	if hc.isClient && len(hc.pskIdentity) == 0 {
		return false
	}
	return true
}

// ticketValid reports whether the context holds a usable resumption
// pre-shared key. Clients must also hold the ticket that names it.
func (hc *HandshakeContext) ticketValid() bool {
	if hc.ticketHash == 0 || !hc.ticketHash.Available() {
		return false
	}
	if len(hc.ticketPSK) == 0 {
		return false
	}
	if hc.isClient && len(hc.ticket) == 0 {
		return false
	}
	return true
}
