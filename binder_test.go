package tls

import (
	"bytes"
	"crypto"
	"errors"
	"testing"
)

// Fixed inputs for the binder vectors below: a 32-byte PSK of ascending
// bytes starting at 0x01 (resumption PSK starting at 0x40), and a 200-byte
// ClientHello of bytes i mod 251 truncated at offset 168. The expected
// binders follow the RFC 8446 key schedule: early secret from the PSK,
// binder key with the "ext binder" or "res binder" label, finished key, and
// an HMAC over the transcript of the header plus truncated message.
func binderTestClientHello() []byte {
	ch := make([]byte, 200)
	for i := range ch {
		ch[i] = byte(i % 251)
	}
	return ch
}

func binderTestPSK(start int) []byte {
	psk := make([]byte, 32)
	for i := range psk {
		psk[i] = byte(start + i)
	}
	return psk
}

// TestComputePSKBinderExternal checks the external-PSK binder against a
// fixed vector, on both sides of the connection.
func TestComputePSKBinderExternal(t *testing.T) {
	t.Parallel()

	want := mustHex("d86a7216427c4924b159d0db49bccb892b56594a634f94a1ee12fab510f7f586")
	clientHello := binderTestClientHello()

	t.Run("Client", func(t *testing.T) {
		hc := NewClientHandshake(nil)
		hc.SetCipherSuiteHash(crypto.SHA256)
		hc.SetPSK(binderTestPSK(1), []byte("external-identity"), crypto.SHA256)

		binder := make([]byte, 32)
		if err := hc.ComputePSKBinder(clientHello, 168, binder); err != nil {
			t.Fatalf("ComputePSKBinder failed: %v", err)
		}
		if !bytes.Equal(binder, want) {
			t.Errorf("binder mismatch:\n  got:  %x\n  want: %x", binder, want)
		}
	})

	t.Run("Server", func(t *testing.T) {
		// Servers look the PSK up from the offered identity, so the key
		// alone makes the PSK usable and the binder comes out the same.
		hc := NewServerHandshake(nil)
		hc.SetCipherSuiteHash(crypto.SHA256)
		hc.SetPSK(binderTestPSK(1), nil, crypto.SHA256)

		binder := make([]byte, 32)
		if err := hc.ComputePSKBinder(clientHello, 168, binder); err != nil {
			t.Fatalf("ComputePSKBinder failed: %v", err)
		}
		if !bytes.Equal(binder, want) {
			t.Errorf("binder mismatch:\n  got:  %x\n  want: %x", binder, want)
		}
	})
}

// TestComputePSKBinderResumption checks the resumption-PSK binder, derived
// with the "res binder" label.
func TestComputePSKBinderResumption(t *testing.T) {
	t.Parallel()

	hc := NewClientHandshake(nil)
	hc.SetCipherSuiteHash(crypto.SHA256)
	hc.SetSessionTicket(binderTestPSK(64), []byte("ticket"), crypto.SHA256)

	binder := make([]byte, 32)
	if err := hc.ComputePSKBinder(binderTestClientHello(), 168, binder); err != nil {
		t.Fatalf("ComputePSKBinder failed: %v", err)
	}
	want := mustHex("59ecdcd786836a5d2f3b6a402e43a57cd8445aa02622a3c858d62f3000af935a")
	if !bytes.Equal(binder, want) {
		t.Errorf("binder mismatch:\n  got:  %x\n  want: %x", binder, want)
	}
}

// TestComputePSKBinderPrefersExternal verifies that an external PSK wins
// over a resumption PSK when both are usable.
func TestComputePSKBinderPrefersExternal(t *testing.T) {
	t.Parallel()

	hc := NewClientHandshake(nil)
	hc.SetCipherSuiteHash(crypto.SHA256)
	hc.SetPSK(binderTestPSK(1), []byte("external-identity"), crypto.SHA256)
	hc.SetSessionTicket(binderTestPSK(64), []byte("ticket"), crypto.SHA256)

	binder := make([]byte, 32)
	if err := hc.ComputePSKBinder(binderTestClientHello(), 168, binder); err != nil {
		t.Fatalf("ComputePSKBinder failed: %v", err)
	}
	want := mustHex("d86a7216427c4924b159d0db49bccb892b56594a634f94a1ee12fab510f7f586")
	if !bytes.Equal(binder, want) {
		t.Errorf("binder did not use the external PSK:\n  got:  %x\n  want: %x", binder, want)
	}
}

// TestComputePSKBinderDatagram checks the DTLS variant: the binder
// transcript uses the 12-byte DTLS handshake header carrying the message
// sequence number, a zero fragment offset, and the full message length.
func TestComputePSKBinderDatagram(t *testing.T) {
	t.Parallel()

	hc := NewClientHandshake(nil)
	hc.SetTransport(TransportDatagram)
	hc.SetMessageSeq(3)
	hc.SetCipherSuiteHash(crypto.SHA256)
	hc.SetPSK(binderTestPSK(1), []byte("external-identity"), crypto.SHA256)

	binder := make([]byte, 32)
	if err := hc.ComputePSKBinder(binderTestClientHello(), 168, binder); err != nil {
		t.Fatalf("ComputePSKBinder failed: %v", err)
	}
	want := mustHex("c928a5cb74d51cddbc863c693576a1387c09e7d95210572c39a7e5cf100aa0ad")
	if !bytes.Equal(binder, want) {
		t.Errorf("binder mismatch:\n  got:  %x\n  want: %x", binder, want)
	}
}

// TestComputePSKBinderAfterHelloRetryRequest verifies that an existing
// transcript flows into the binder computation without being modified: the
// binder for a retried ClientHello covers the prior messages, and the
// running transcript is identical before and after.
func TestComputePSKBinderAfterHelloRetryRequest(t *testing.T) {
	t.Parallel()

	prior := make([]byte, 40)
	for i := range prior {
		prior[i] = byte(i)
	}

	hc := NewClientHandshake(nil)
	hc.SetCipherSuiteHash(crypto.SHA256)
	hc.SetPSK(binderTestPSK(1), []byte("external-identity"), crypto.SHA256)
	if err := hc.UpdateTranscript(prior); err != nil {
		t.Fatalf("UpdateTranscript failed: %v", err)
	}

	before, err := hc.TranscriptDigest()
	if err != nil {
		t.Fatalf("TranscriptDigest failed: %v", err)
	}

	binder := make([]byte, 32)
	if err := hc.ComputePSKBinder(binderTestClientHello(), 168, binder); err != nil {
		t.Fatalf("ComputePSKBinder failed: %v", err)
	}
	want := mustHex("c9cd7e022b24217bb0a1d756f5503bab8d5cb6443708235988b4716aad03f051")
	if !bytes.Equal(binder, want) {
		t.Errorf("binder mismatch:\n  got:  %x\n  want: %x", binder, want)
	}

	after, err := hc.TranscriptDigest()
	if err != nil {
		t.Fatalf("TranscriptDigest failed: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("running transcript changed:\n  before: %x\n  after:  %x", before, after)
	}
}

// TestComputePSKBinderErrors exercises the parameter checks in order.
func TestComputePSKBinderErrors(t *testing.T) {
	t.Parallel()

	clientHello := make([]byte, 100)

	withPSK := func(hc *HandshakeContext) {
		hc.SetCipherSuiteHash(crypto.SHA256)
		hc.SetPSK(binderTestPSK(1), []byte("external-identity"), crypto.SHA256)
	}

	tests := []struct {
		name      string
		setup     func(*HandshakeContext)
		truncated int
		binderLen int
		wantErr   error
	}{
		// The truncation range is checked before anything else, so it
		// fails the same way with no suite selected.
		{"TruncationAtFullLength", nil, 100, 32, ErrInvalidParameter},
		{"TruncationPastEnd", nil, 150, 32, ErrInvalidParameter},
		{"TruncationNegative", nil, -1, 32, ErrInvalidParameter},
		{"NoCipherSuiteHash", func(hc *HandshakeContext) {
			hc.SetPSK(binderTestPSK(1), []byte("id"), crypto.SHA256)
		}, 60, 32, ErrFailure},
		{"BinderSizeMismatch", withPSK, 60, 16, ErrInvalidLength},
		{"NoUsablePSK", func(hc *HandshakeContext) {
			hc.SetCipherSuiteHash(crypto.SHA256)
		}, 60, 32, ErrFailure},
		{"ClientWithoutIdentity", func(hc *HandshakeContext) {
			hc.SetCipherSuiteHash(crypto.SHA256)
			hc.SetPSK(binderTestPSK(1), nil, crypto.SHA256)
		}, 60, 32, ErrFailure},
		{"EmptyPSK", func(hc *HandshakeContext) {
			hc.SetCipherSuiteHash(crypto.SHA256)
			hc.SetPSK(nil, []byte("id"), crypto.SHA256)
		}, 60, 32, ErrFailure},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hc := NewClientHandshake(nil)
			if tc.setup != nil {
				tc.setup(hc)
			}

			binder := make([]byte, tc.binderLen)
			for i := range binder {
				binder[i] = 0xFF
			}

			err := hc.ComputePSKBinder(clientHello, tc.truncated, binder)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ComputePSKBinder error = %v, want %v", err, tc.wantErr)
			}

			// The binder must be untouched on failure.
			for _, b := range binder {
				if b != 0xFF {
					t.Error("binder written despite failure")
					break
				}
			}
		})
	}
}

// BenchmarkComputePSKBinder measures the binder computation over a typical
// ClientHello.
func BenchmarkComputePSKBinder(b *testing.B) {
	hc := NewClientHandshake(nil)
	hc.SetCipherSuiteHash(crypto.SHA256)
	hc.SetPSK(binderTestPSK(1), []byte("external-identity"), crypto.SHA256)

	clientHello := make([]byte, 512)
	binder := make([]byte, 32)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := hc.ComputePSKBinder(clientHello, 470, binder); err != nil {
			b.Fatal(err)
		}
	}
}
