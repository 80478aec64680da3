// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package byteorder

import (
	"bytes"
	"testing"
)

func TestBigEndianRoundTrip(t *testing.T) {
	if got := BEAppendUint16(nil, 0x0102); !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("BEAppendUint16 = %x", got)
	}
	if got := BEAppendUint24(nil, 0x010203); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("BEAppendUint24 = %x", got)
	}
	if got := BEAppendUint32(nil, 0x01020304); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("BEAppendUint32 = %x", got)
	}
	if got := BEAppendUint64(nil, 0x0102030405060708); !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("BEAppendUint64 = %x", got)
	}

	if got := BEUint16([]byte{0xAB, 0xCD}); got != 0xABCD {
		t.Errorf("BEUint16 = %#04x", got)
	}
	if got := BEUint24([]byte{0xAB, 0xCD, 0xEF}); got != 0xABCDEF {
		t.Errorf("BEUint24 = %#06x", got)
	}
	if got := BEUint32([]byte{0xAB, 0xCD, 0xEF, 0x01}); got != 0xABCDEF01 {
		t.Errorf("BEUint32 = %#08x", got)
	}
	if got := BEUint64([]byte{0xAB, 0xCD, 0xEF, 0x01, 0x23, 0x45, 0x67, 0x89}); got != 0xABCDEF0123456789 {
		t.Errorf("BEUint64 = %#016x", got)
	}

	buf := make([]byte, 8)
	BEPutUint16(buf, 0xABCD)
	if !bytes.Equal(buf[:2], []byte{0xAB, 0xCD}) {
		t.Errorf("BEPutUint16 wrote %x", buf[:2])
	}
	BEPutUint24(buf, 0xABCDEF)
	if !bytes.Equal(buf[:3], []byte{0xAB, 0xCD, 0xEF}) {
		t.Errorf("BEPutUint24 wrote %x", buf[:3])
	}
	BEPutUint32(buf, 0xABCDEF01)
	if !bytes.Equal(buf[:4], []byte{0xAB, 0xCD, 0xEF, 0x01}) {
		t.Errorf("BEPutUint32 wrote %x", buf[:4])
	}
	BEPutUint64(buf, 0xABCDEF0123456789)
	if !bytes.Equal(buf, []byte{0xAB, 0xCD, 0xEF, 0x01, 0x23, 0x45, 0x67, 0x89}) {
		t.Errorf("BEPutUint64 wrote %x", buf)
	}
}
