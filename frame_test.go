// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import "testing"

func TestEncodeDecodeHeaderRoundTrip(t *testing.T) {
	cases := []struct {
		kind     Kind
		objectID uint16
		length   int
	}{
		{kindRequest, 0, 0},
		{kindRetval, 65535, 65535},
		{kindSync, 1, 0},
		{kindException, 42, 17},
	}
	for _, c := range cases {
		b := encodeHeader(c.kind, c.objectID, c.length)
		gotMagic, length, kind, objectID := decodeHeader(b)
		if gotMagic != magic {
			t.Fatalf("magic = %#x, want %#x", gotMagic, magic)
		}
		if kind != c.kind {
			t.Errorf("kind = %v, want %v", kind, c.kind)
		}
		if objectID != c.objectID {
			t.Errorf("objectID = %d, want %d", objectID, c.objectID)
		}
		if int(length) != c.length {
			t.Errorf("length = %d, want %d", length, c.length)
		}
	}
}

func TestEncodeHeaderByteOrder(t *testing.T) {
	b := encodeHeader(kindRequest, 1, 2)
	want := [frameHeaderLen]byte{0x42, 0x42, 0x00, 0x02, 0x10, 0x01, 0x00, 0x01}
	if b != want {
		t.Fatalf("encodeHeader bytes = %v, want %v", b, want)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		kindRequest:    "REQUEST",
		kindRequestBlk: "REQUEST_BLOCK",
		kindOneway:     "ONEWAY",
		kindOnewaySync: "ONEWAY_SYNC",
		kindRetval:     "RETVAL",
		kindException:  "EXCEPTION",
		kindYield:      "YIELD",
		kindSync:       "SYNC",
		kindNull:       "NULL_MSG",
		Kind(0x9999):   "UNKNOWN",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%#x).String() = %q, want %q", uint16(k), got, want)
		}
	}
}
