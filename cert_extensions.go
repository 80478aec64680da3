package tls

import (
	"golang.org/x/crypto/cryptobyte"

	tlserrors "github.com/refraction-networking/tlscore/errors"
)

var (
	errCertExtBuffer       = tlserrors.New("tls: certificate extension buffer too small").Base(ErrInvalidLength).AtError()
	errCertExtTruncated    = tlserrors.New("tls: truncated certificate extensions").Base(ErrDecodingFailed).AtError()
	errCertExtInapplicable = tlserrors.New("tls: extension not applicable to a CertificateEntry").Base(ErrIllegalParameter).AtError()
	errCertExtDuplicate    = tlserrors.New("tls: duplicate certificate extension").Base(ErrIllegalParameter).AtError()
)

// FormatCertExtensions writes an empty extension block for a
// CertificateEntry into b and returns the number of bytes written.
// See RFC 8446, Section 4.4.2.
func FormatCertExtensions(b []byte) (int, error) {
	if len(b) < 2 {
		return 0, errCertExtBuffer
	}
	b[0], b[1] = 0, 0
	return 2, nil
}

// ParseCertExtensions parses the extension block of a CertificateEntry at
// the start of b and returns the number of bytes it occupies. Data past the
// block is left for the caller; a block that declares more data than b
// holds fails with ErrDecodingFailed.
//
// Only the status_request and signed_certificate_timestamp extensions may
// appear in a CertificateEntry, at most once each; any other content fails
// with ErrIllegalParameter. See RFC 8446, Section 4.4.2.
func ParseCertExtensions(b []byte) (int, error) {
	s := cryptobyte.String(b)
	var exts cryptobyte.String
	if !s.ReadUint16LengthPrefixed(&exts) {
		return 0, errCertExtTruncated
	}
	consumed := 2 + len(exts)

	var seenStatusRequest, seenSCT bool
	for !exts.Empty() {
		var extension uint16
		var extData cryptobyte.String
		if !exts.ReadUint16(&extension) || !exts.ReadUint16LengthPrefixed(&extData) {
			return 0, errCertExtTruncated
		}
		switch extension {
		case extensionStatusRequest:
			if seenStatusRequest {
				return 0, errCertExtDuplicate
			}
			seenStatusRequest = true
		case extensionSCT:
			if seenSCT {
				return 0, errCertExtDuplicate
			}
			seenSCT = true
		default:
			return 0, errCertExtInapplicable
		}
	}
	return consumed, nil
}
