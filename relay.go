// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"io"
	"time"
)

// Relay forwards whole frames from src to dst without decoding payloads,
// adapted from framer's Forwarder/ForwardOnce: the same two-phase
// (read-then-write), partial-progress-preserving state machine,
// generalized from framer's variable length-prefix encoding to romp's
// fixed 8-byte header and with the same magic-resync rule recvFrame uses.
// Useful for a transparent bridge — e.g. fanning client sessions out to
// one of several backend servers.
//
// Retry rule (unchanged from Forwarder): on ErrWouldBlock or ErrMore the
// caller must retry Once on the SAME Relay to complete the in-flight frame.
type Relay struct {
	src     io.Reader
	srcLoop ioLoop
	dst     io.Writer
	dstLoop ioLoop

	state uint8 // 0: parse header, 1: read payload, 2: write frame

	header         [frameHeaderLen]byte
	hOffset        int
	resyncAttempts int

	kind     Kind
	objectID uint16
	need     int
	payload  []byte
	got      int
	wOffset  int
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

// WithRelayRetryDelay sets the nonblock retry policy for both sides of the
// relay (see WithRetryDelay).
func WithRelayRetryDelay(d time.Duration) RelayOption {
	return func(r *Relay) {
		r.srcLoop.retryDelay = d
		r.dstLoop.retryDelay = d
	}
}

// NewRelay constructs a Relay that forwards frames from src to dst.
func NewRelay(dst io.Writer, src io.Reader, opts ...RelayOption) *Relay {
	r := &Relay{src: src, dst: dst, payload: make([]byte, 0, 4096)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Once forwards at most one frame. Returns (true, nil) once a whole frame
// has been relayed, (false, ErrWouldBlock|ErrMore) when progress happened
// but the current frame is incomplete, (false, nil) after discarding a
// header whose magic does not match, or a fatal error.
func (r *Relay) Once() (done bool, err error) {
	if r.state == 0 {
		for r.hOffset < frameHeaderLen {
			n, e := r.srcLoop.readOnce(r.src, r.header[r.hOffset:frameHeaderLen])
			r.hOffset += n
			if e != nil {
				return false, wrapRelayIOErr(e)
			}
		}
		gotMagic, length, kind, oid := decodeHeader(r.header)
		if gotMagic != magic {
			r.resyncAttempts++
			if r.resyncAttempts > maxResyncAttempts {
				return false, &ProtocolError{Reason: "bad magic: resync attempts exhausted"}
			}
			r.hOffset = 0
			return false, nil
		}
		r.resyncAttempts = 0
		r.kind = kind
		r.objectID = oid
		r.need = int(length)
		if cap(r.payload) < r.need {
			r.payload = make([]byte, r.need)
		} else {
			r.payload = r.payload[:r.need]
		}
		r.got = 0
		r.state = 1
	}

	if r.state == 1 {
		for r.got < r.need {
			n, e := r.srcLoop.readOnce(r.src, r.payload[r.got:r.need])
			r.got += n
			if e != nil {
				return false, wrapRelayIOErr(e)
			}
		}
		r.state = 2
		r.wOffset = 0
	}

	if r.state == 2 {
		hdr := encodeHeader(r.kind, r.objectID, r.need)
		for r.wOffset < frameHeaderLen {
			n, e := r.dstLoop.writeOnce(r.dst, hdr[r.wOffset:frameHeaderLen])
			r.wOffset += n
			if e != nil {
				return false, wrapRelayIOErr(e)
			}
		}
		for r.wOffset < frameHeaderLen+r.need {
			off := r.wOffset - frameHeaderLen
			n, e := r.dstLoop.writeOnce(r.dst, r.payload[off:r.need])
			r.wOffset += n
			if e != nil {
				return false, wrapRelayIOErr(e)
			}
		}
		r.state = 0
		r.hOffset = 0
		r.need = 0
		r.got = 0
		return true, nil
	}

	return false, nil
}

func wrapRelayIOErr(err error) error {
	if err == ErrWouldBlock || err == ErrMore {
		return err
	}
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrDisconnected
	}
	return &IoError{Err: err}
}
