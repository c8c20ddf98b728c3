// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import "encoding/binary"

// Wire-stable constants. Two independently built peers must agree on these
// bit patterns forever; they are never derived from options.
const (
	magic uint16 = 0x4242

	// MaxID is one past the largest object id a frame header can carry.
	MaxID = 1 << 16
	// MaxMsgType is one past the largest message kind a frame header can carry.
	MaxMsgType = 1 << 16
	// maxPayloadLen is the largest payload length the 16-bit len field can hold.
	maxPayloadLen = 1<<16 - 1
)

// Kind is a message kind, a 16-bit value occupying the frame header's
// kind field.
type Kind uint16

const (
	kindRequest     Kind = 0x1001
	kindRequestBlk  Kind = 0x1002
	kindOneway      Kind = 0x1003
	kindOnewaySync  Kind = 0x1004
	kindRetval      Kind = 0x2001
	kindException   Kind = 0x2002
	kindYield       Kind = 0x2003
	kindSync        Kind = 0x4001
	kindNull        Kind = 0x4002
)

func (k Kind) String() string {
	switch k {
	case kindRequest:
		return "REQUEST"
	case kindRequestBlk:
		return "REQUEST_BLOCK"
	case kindOneway:
		return "ONEWAY"
	case kindOnewaySync:
		return "ONEWAY_SYNC"
	case kindRetval:
		return "RETVAL"
	case kindException:
		return "EXCEPTION"
	case kindYield:
		return "YIELD"
	case kindSync:
		return "SYNC"
	case kindNull:
		return "NULL_MSG"
	default:
		return "UNKNOWN"
	}
}

// frameHeaderLen is the fixed header size in bytes: magic, len, kind,
// object_id, each a big-endian u16.
const frameHeaderLen = 8

// encodeHeader packs the four header fields into an 8-byte big-endian frame.
// It never fails: callers are expected to validate objectID and payloadLen
// against MaxID/maxPayloadLen before calling (see Session.sendFrame).
func encodeHeader(kind Kind, objectID uint16, payloadLen int) [frameHeaderLen]byte {
	var b [frameHeaderLen]byte
	binary.BigEndian.PutUint16(b[0:2], magic)
	binary.BigEndian.PutUint16(b[2:4], uint16(payloadLen))
	binary.BigEndian.PutUint16(b[4:6], uint16(kind))
	binary.BigEndian.PutUint16(b[6:8], objectID)
	return b
}

// decodeHeader unpacks an 8-byte frame header. It does not validate magic;
// callers compare the returned value against the wire constant themselves
// (Session.recvFrame uses this to drive its resync loop).
func decodeHeader(b [frameHeaderLen]byte) (gotMagic uint16, length uint16, kind Kind, objectID uint16) {
	gotMagic = binary.BigEndian.Uint16(b[0:2])
	length = binary.BigEndian.Uint16(b[2:4])
	kind = Kind(binary.BigEndian.Uint16(b[4:6]))
	objectID = binary.BigEndian.Uint16(b[6:8])
	return
}
