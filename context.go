package tls

import (
	"crypto"
	"crypto/ecdh"
	"hash"
)

// maxPremasterSecretSize is the size of the largest shared secret any
// supported group can produce, which is the modulus size of ffdhe8192.
const maxPremasterSecretSize = 1024

// A HandshakeContext holds the evolving cryptographic state of one TLS 1.3
// handshake: the negotiated cipher suite hash, the running handshake
// transcript, the ephemeral key exchange keys, pre-shared key material and
// the signing identities of both sides. The driving state machine feeds it
// negotiated parameters through the Set methods and invokes the handshake
// operations as the corresponding messages are built or received.
//
// A HandshakeContext is not safe for concurrent use.
type HandshakeContext struct {
	config   *Config
	isClient bool

	transport TransportProtocol
	txMsgSeq  uint16

	suiteHash  crypto.Hash
	transcript hash.Hash

	namedGroup CurveID
	ecdheKey   *ecdh.PrivateKey
	x448Key    *x448PrivateKey
	ffdheKey   *ffdhePrivateKey

	premasterSecret    [maxPremasterSecretSize]byte
	premasterSecretLen int

	psk         []byte
	pskIdentity []byte
	pskHash     crypto.Hash

	ticketPSK  []byte
	ticket     []byte
	ticketHash crypto.Hash

	certKey    crypto.Signer
	signScheme SignatureScheme

	peerCertKey  crypto.PublicKey
	peerCertType CertificateType
}

// NewClientHandshake returns a HandshakeContext for the client side of a
// handshake. The config may be nil, in which case defaults are used; it is
// not modified and may be shared between contexts.
func NewClientHandshake(config *Config) *HandshakeContext {
	return &HandshakeContext{config: config, isClient: true}
}

// NewServerHandshake returns a HandshakeContext for the server side of a
// handshake.
func NewServerHandshake(config *Config) *HandshakeContext {
	return &HandshakeContext{config: config}
}

// SetTransport selects stream or datagram handshake framing. It affects the
// synthetic header used for binder transcripts and defaults to
// TransportStream.
func (hc *HandshakeContext) SetTransport(t TransportProtocol) {
	hc.transport = t
}

// SetMessageSeq records the DTLS handshake message sequence number of the
// next outgoing flight. It is ignored on stream transports.
func (hc *HandshakeContext) SetMessageSeq(seq uint16) {
	hc.txMsgSeq = seq
}

// SetCipherSuiteHash records the hash function of the negotiated cipher
// suite, which parameterizes the transcript, the key schedule and the binder
// HMAC. Changing the hash discards any running transcript state, since a
// transcript is only meaningful for the hash it was accumulated with.
func (hc *HandshakeContext) SetCipherSuiteHash(h crypto.Hash) {
	if h != hc.suiteHash {
		hc.transcript = nil
	}
	hc.suiteHash = h
}

// SetPSK installs an externally provisioned pre-shared key. The identity is
// the value offered in the pre_shared_key extension; clients must provide it
// for the PSK to be considered usable. The hash is the algorithm the PSK was
// provisioned with.
func (hc *HandshakeContext) SetPSK(psk, identity []byte, h crypto.Hash) {
	hc.psk = psk
	hc.pskIdentity = identity
	hc.pskHash = h
}

// SetSessionTicket installs a resumption pre-shared key derived from a
// previous connection, along with the opaque ticket that names it. Clients
// must provide the ticket for the PSK to be considered usable. The hash is
// the algorithm of the cipher suite the ticket was issued under.
func (hc *HandshakeContext) SetSessionTicket(psk, ticket []byte, h crypto.Hash) {
	hc.ticketPSK = psk
	hc.ticket = ticket
	hc.ticketHash = h
}

// SetCertificateKey installs the private key backing the local end-entity
// certificate and the signature scheme negotiated for CertificateVerify.
// The combination is validated when SignCertificateVerify runs.
func (hc *HandshakeContext) SetCertificateKey(key crypto.Signer, scheme SignatureScheme) {
	hc.certKey = key
	hc.signScheme = scheme
}

// SetPeerCertificate installs the public key of the peer's end-entity
// certificate together with the key family its SubjectPublicKeyInfo
// declares. VerifyCertificateVerify enforces that the peer's chosen
// signature scheme matches both.
func (hc *HandshakeContext) SetPeerCertificate(pub crypto.PublicKey, certType CertificateType) {
	hc.peerCertKey = pub
	hc.peerCertType = certType
}

// NamedGroup returns the group recorded by the last successful key share
// resolution, or zero if none has been recorded.
func (hc *HandshakeContext) NamedGroup() CurveID {
	return hc.namedGroup
}

// PremasterSecret returns the shared secret computed by
// GenerateSharedSecret. The returned slice aliases the context's internal
// buffer and is invalidated by Zero.
func (hc *HandshakeContext) PremasterSecret() []byte {
	return hc.premasterSecret[:hc.premasterSecretLen]
}

func (hc *HandshakeContext) setPremasterSecret(secret []byte) {
	hc.premasterSecretLen = copy(hc.premasterSecret[:], secret)
}

// Zero erases the secret material held by the context: the premaster secret,
// pre-shared keys and the ephemeral finite-field private key. Elliptic-curve
// private keys are managed by their providers and dropped for collection.
func (hc *HandshakeContext) Zero() {
	clear(hc.premasterSecret[:])
	hc.premasterSecretLen = 0
	clear(hc.psk)
	clear(hc.ticketPSK)
	hc.psk = nil
	hc.ticketPSK = nil
	if hc.ffdheKey != nil {
		hc.ffdheKey.Zero()
	}
	hc.ecdheKey = nil
	hc.x448Key = nil
	hc.ffdheKey = nil
}
