// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"io"
	"time"
)

// maxResyncAttempts bounds the magic-resync loop. 64 re-reads is generous
// for any stream that is merely noisy at startup while still being a hard
// ceiling against a peer that never sends a valid frame.
const maxResyncAttempts = 64

// noValue is the decoded value of a NULL_MSG frame: the decoder yields a
// "no value" sentinel regardless of the frame's payload bytes.
type noValue struct{}

// NoValue is the sentinel RecvMessage produces for NULL_MSG frames and for
// any other frame whose payload is empty.
var NoValue any = noValue{}

type recvState struct {
	header         [frameHeaderLen]byte
	offset         int
	payload        []byte
	payloadLen     int
	resyncAttempts int
}

func (r *recvState) reset() {
	r.offset = 0
	r.payloadLen = 0
}

type sendState struct {
	header  [frameHeaderLen]byte
	payload []byte
	offset  int
	active  bool
}

// Session owns a transport endpoint plus framing scratch state. A Session
// is single-ownership per direction: concurrent use by multiple callers
// requires an external lock, exactly like framer's *framer is owned
// exclusively by its Reader/Writer.
type Session struct {
	rw    io.ReadWriter
	codec Codec
	loop  ioLoop

	recv recvState
	send sendState
}

// SessionOption configures a Session at construction time.
type SessionOption func(*Session)

// WithCodec sets the value codec used to marshal call payloads. Defaults to
// msgpackcodec.New() wired in by Open when none is given would create an
// import cycle, so Open requires an explicit codec; see codec/msgpackcodec.
func WithCodec(c Codec) SessionOption {
	return func(s *Session) { s.codec = c }
}

// WithRetryDelay sets the nonblock retry policy:
//   - negative: return ErrWouldBlock/ErrMore to the caller immediately
//   - zero: runtime.Gosched() and retry (cooperative blocking)
//   - positive: time.Sleep(d) and retry
func WithRetryDelay(d time.Duration) SessionOption {
	return func(s *Session) { s.loop.retryDelay = d }
}

// WithBlock enables cooperative blocking (yield-and-retry).
func WithBlock() SessionOption { return WithRetryDelay(0) }

// WithNonblock forces nonblock behavior (return ErrWouldBlock immediately).
func WithNonblock() SessionOption { return WithRetryDelay(-1) }

// Open returns a new Session over rw. codec must be
// supplied via WithCodec; a Session with no codec can still send frames
// whose value is nil and receive frames with an empty payload, such as
// NULL_MSG and SYNC frames (SendMessage/RecvMessage never touch the codec
// for those), but encoding or decoding any other value panics if no
// codec was configured — Open itself does not default to a concrete codec
// to keep the core free of a hard dependency on codec/msgpackcodec.
func Open(rw io.ReadWriter, opts ...SessionOption) *Session {
	s := &Session{rw: rw}
	// Cooperative blocking is the useful default for a loopback or local
	// transport without an external event loop driving readiness; callers
	// that want strict nonblock call WithNonblock explicitly.
	s.loop.retryDelay = 0
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNonblock toggles the session's retry policy between nonblock
// (RetryDelay < 0) and cooperative blocking (RetryDelay == 0).
func (s *Session) SetNonblock(nonblock bool) {
	if nonblock {
		s.loop.retryDelay = -1
	} else {
		s.loop.retryDelay = 0
	}
}

func (s *Session) wrapIOErr(err error) error {
	if err == nil {
		return nil
	}
	if err == ErrWouldBlock || err == ErrMore {
		return err
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrDisconnected
	}
	return &IoError{Err: err}
}

// sendFrame writes one frame's header and payload, resuming from any
// partial progress left by a prior ErrWouldBlock/ErrMore return.
func (s *Session) sendFrame(kind Kind, objectID uint16, payload []byte) error {
	if len(payload) > maxPayloadLen {
		return ErrTooLong
	}
	if !s.send.active {
		s.send.header = encodeHeader(kind, objectID, len(payload))
		s.send.payload = payload
		s.send.offset = 0
		s.send.active = true
	}
	total := frameHeaderLen + len(s.send.payload)
	for s.send.offset < frameHeaderLen {
		n, err := s.loop.writeOnce(s.rw, s.send.header[s.send.offset:frameHeaderLen])
		s.send.offset += n
		if err != nil {
			return s.wrapIOErr(err)
		}
	}
	for s.send.offset < total {
		off := s.send.offset - frameHeaderLen
		n, err := s.loop.writeOnce(s.rw, s.send.payload[off:])
		s.send.offset += n
		if err != nil {
			return s.wrapIOErr(err)
		}
	}
	s.send.active = false
	s.send.payload = nil
	return nil
}

// recvFrame reads one frame's header (with magic resync) and payload,
// resuming from any partial progress left by a prior ErrWouldBlock/ErrMore
// return.
func (s *Session) recvFrame() (kind Kind, objectID uint16, payload []byte, err error) {
	for {
		for s.recv.offset < frameHeaderLen {
			n, e := s.loop.readOnce(s.rw, s.recv.header[s.recv.offset:frameHeaderLen])
			s.recv.offset += n
			if e != nil {
				return 0, 0, nil, s.wrapIOErr(e)
			}
		}

		gotMagic, length, k, oid := decodeHeader(s.recv.header)
		if gotMagic != magic {
			s.recv.resyncAttempts++
			if s.recv.resyncAttempts > maxResyncAttempts {
				s.recv.reset()
				s.recv.resyncAttempts = 0
				return 0, 0, nil, &ProtocolError{Reason: "bad magic: resync attempts exhausted"}
			}
			// Discard this 8-byte window and re-read another; not a
			// 1-byte slide.
			s.recv.offset = 0
			continue
		}
		s.recv.resyncAttempts = 0
		s.recv.payloadLen = int(length)

		if cap(s.recv.payload) < s.recv.payloadLen {
			s.recv.payload = make([]byte, s.recv.payloadLen)
		} else {
			s.recv.payload = s.recv.payload[:s.recv.payloadLen]
		}

		// recv.offset counts header plus payload bytes, so a resumed call
		// continues filling the payload where the previous one stopped.
		for s.recv.offset < frameHeaderLen+s.recv.payloadLen {
			n, e := s.loop.readOnce(s.rw, s.recv.payload[s.recv.offset-frameHeaderLen:])
			s.recv.offset += n
			if e != nil {
				return 0, 0, nil, s.wrapIOErr(e)
			}
		}

		out := s.recv.payload[:s.recv.payloadLen]
		s.recv.reset()
		return k, oid, out, nil
	}
}

// SendMessage encodes v and writes one frame. A NULL_MSG frame, or any
// frame whose v is nil, is sent with an empty payload without calling the
// codec.
func (s *Session) SendMessage(kind Kind, objectID uint16, v any) error {
	if kind == kindNull || v == nil {
		return s.sendFrame(kind, objectID, nil)
	}
	b, err := s.codec.Encode(v)
	if err != nil {
		return err
	}
	return s.sendFrame(kind, objectID, b)
}

// RecvMessage reads one frame and decodes its payload. NULL_MSG always
// decodes to NoValue regardless of its payload bytes.
func (s *Session) RecvMessage() (kind Kind, objectID uint16, v any, err error) {
	kind, objectID, payload, err := s.recvFrame()
	if err != nil {
		return 0, 0, nil, err
	}
	// An empty payload (NULL_MSG always, any other kind when the
	// application value happens to encode to zero bytes) decodes to the
	// "no value" sentinel rather than invoking Decode on an empty slice.
	if kind == kindNull || len(payload) == 0 {
		return kind, objectID, NoValue, nil
	}
	v, err = s.codec.Decode(payload)
	if err != nil {
		return kind, objectID, nil, err
	}
	return kind, objectID, v, nil
}
