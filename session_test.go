// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"net"
	"testing"

	"code.hybscloud.com/romp/codec/msgpackcodec"
)

func TestSessionSendRecvMessageRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	sa := Open(a, WithCodec(msgpackcodec.New()))
	sb := Open(b, WithCodec(msgpackcodec.New()))

	done := make(chan error, 1)
	go func() {
		done <- sa.SendMessage(kindRequest, 7, Call{Method: "ping", Args: []any{1, "two"}})
	}()

	kind, objectID, v, err := sb.RecvMessage()
	if err != nil {
		t.Fatalf("RecvMessage: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if kind != kindRequest || objectID != 7 {
		t.Fatalf("kind=%v objectID=%d", kind, objectID)
	}
	call, ok := v.(Call)
	if !ok || call.Method != "ping" || len(call.Args) != 2 {
		t.Fatalf("decoded %#v, want a matching Call", v)
	}
}

func TestSessionNullMessageDecodesToNoValue(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	sa := Open(a, WithCodec(msgpackcodec.New()))
	sb := Open(b, WithCodec(msgpackcodec.New()))

	go func() { _ = sa.SendMessage(kindNull, 3, nil) }()

	kind, objectID, v, err := sb.RecvMessage()
	if err != nil {
		t.Fatalf("RecvMessage: %v", err)
	}
	if kind != kindNull || objectID != 3 {
		t.Fatalf("kind=%v objectID=%d", kind, objectID)
	}
	if v != NoValue {
		t.Fatalf("v = %#v, want NoValue", v)
	}
}

func TestSessionRecvFrameResyncsOnBadMagic(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	sb := Open(b, WithCodec(msgpackcodec.New()))

	go func() {
		// Eight bytes of junk (never matches the magic), followed by a
		// well-formed NULL_MSG frame.
		_, _ = a.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0})
		hdr := encodeHeader(kindNull, 1, 0)
		_, _ = a.Write(hdr[:])
	}()

	kind, objectID, _, err := sb.RecvMessage()
	if err != nil {
		t.Fatalf("RecvMessage: %v", err)
	}
	if kind != kindNull || objectID != 1 {
		t.Fatalf("kind=%v objectID=%d", kind, objectID)
	}
}

func TestSessionSendTooLongPayload(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	sa := Open(a, WithCodec(msgpackcodec.New()))
	_ = b

	err := sa.sendFrame(kindRequest, 0, make([]byte, maxPayloadLen+1))
	if err != ErrTooLong {
		t.Fatalf("err = %v, want ErrTooLong", err)
	}
}
