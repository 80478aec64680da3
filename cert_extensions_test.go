package tls

import (
	"bytes"
	"errors"
	"testing"
)

// TestFormatCertExtensions checks the encoder for the extension block of a
// CertificateEntry, which this package always emits empty.
func TestFormatCertExtensions(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name string
		size int
	}{
		{"NilBuffer", 0},
		{"OneByte", 1},
	} {
		t.Run(tt.name, func(t *testing.T) {
			n, err := FormatCertExtensions(make([]byte, tt.size))
			if !errors.Is(err, ErrInvalidLength) {
				t.Fatalf("FormatCertExtensions error = %v, want %v", err, ErrInvalidLength)
			}
			if n != 0 {
				t.Errorf("FormatCertExtensions returned %d bytes alongside an error", n)
			}
		})
	}

	t.Run("Exact", func(t *testing.T) {
		buf := []byte{0xFF, 0xFF}
		n, err := FormatCertExtensions(buf)
		if err != nil {
			t.Fatalf("FormatCertExtensions: %v", err)
		}
		if n != 2 {
			t.Errorf("FormatCertExtensions = %d bytes, want 2", n)
		}
		if !bytes.Equal(buf, []byte{0, 0}) {
			t.Errorf("buffer after format = %x, want 0000", buf)
		}
	})

	t.Run("LeavesTailUntouched", func(t *testing.T) {
		buf := bytes.Repeat([]byte{0xFF}, 6)
		n, err := FormatCertExtensions(buf)
		if err != nil {
			t.Fatalf("FormatCertExtensions: %v", err)
		}
		if n != 2 {
			t.Errorf("FormatCertExtensions = %d bytes, want 2", n)
		}
		if want := mustHex("0000ffffffff"); !bytes.Equal(buf, want) {
			t.Errorf("buffer after format = %x, want %x", buf, want)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		buf := make([]byte, 2)
		if _, err := FormatCertExtensions(buf); err != nil {
			t.Fatalf("FormatCertExtensions: %v", err)
		}
		n, err := ParseCertExtensions(buf)
		if err != nil {
			t.Fatalf("ParseCertExtensions: %v", err)
		}
		if n != 2 {
			t.Errorf("ParseCertExtensions = %d bytes, want 2", n)
		}
	})
}

// TestParseCertExtensions checks the decoder for CertificateEntry extension
// blocks: only status_request and signed_certificate_timestamp are
// admissible, at most once each, and the block length must lie within the
// input. Data past the block belongs to the caller and is not examined.
func TestParseCertExtensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        []byte
		wantConsumed int
		wantErr      error
	}{
		{
			name:         "EmptyBlock",
			input:        mustHex("0000"),
			wantConsumed: 2,
		},
		{
			name:         "StatusRequest",
			input:        mustHex("000800050004deadbeef"),
			wantConsumed: 10,
		},
		{
			name:         "SCT",
			input:        mustHex("000800120004a0a1a2a3"),
			wantConsumed: 10,
		},
		{
			name:         "StatusRequestAndSCT",
			input:        mustHex("000c0005000000120004a0a1a2a3"),
			wantConsumed: 14,
		},
		{
			name:         "TrailingDataLeftForCaller",
			input:        mustHex("000c0005000000120004a0a1a2a3ffff"),
			wantConsumed: 14,
		},
		{
			name:         "EmptyBlockWithTrailingData",
			input:        mustHex("0000ffffffff"),
			wantConsumed: 2,
		},
		{
			name:    "EmptyInput",
			input:   nil,
			wantErr: ErrDecodingFailed,
		},
		{
			name:    "TruncatedBlockLength",
			input:   mustHex("00"),
			wantErr: ErrDecodingFailed,
		},
		{
			name:    "BlockLongerThanInput",
			input:   mustHex("000500"),
			wantErr: ErrDecodingFailed,
		},
		{
			name:    "TruncatedExtensionHeader",
			input:   mustHex("0003000500"),
			wantErr: ErrDecodingFailed,
		},
		{
			name:    "TruncatedExtensionBody",
			input:   mustHex("000400050004"),
			wantErr: ErrDecodingFailed,
		},
		{
			name:    "DuplicateStatusRequest",
			input:   mustHex("00080005000000050000"),
			wantErr: ErrIllegalParameter,
		},
		{
			name:    "DuplicateSCT",
			input:   mustHex("00080012000000120000"),
			wantErr: ErrIllegalParameter,
		},
		{
			name:    "ServerNameInapplicable",
			input:   mustHex("000800000004deadbeef"),
			wantErr: ErrIllegalParameter,
		},
		{
			name:    "SignatureAlgorithmsInapplicable",
			input:   mustHex("0004000d0000"),
			wantErr: ErrIllegalParameter,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumed, err := ParseCertExtensions(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseCertExtensions error = %v, want %v", err, tt.wantErr)
				}
				if consumed != 0 {
					t.Errorf("ParseCertExtensions consumed %d bytes alongside an error", consumed)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCertExtensions: %v", err)
			}
			if consumed != tt.wantConsumed {
				t.Errorf("ParseCertExtensions consumed %d bytes, want %d", consumed, tt.wantConsumed)
			}
		})
	}
}
