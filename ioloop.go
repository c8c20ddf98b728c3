// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package romp

import (
	"io"
	"runtime"
	"time"

	"code.hybscloud.com/iox"
)

// These are re-exported so callers can reference the semantic control-flow
// errors without importing iox directly, matching framer's own alias block.
var (
	// ErrWouldBlock means "no further progress without waiting". Only
	// surfaced when the session's RetryDelay policy is nonblock (< 0).
	ErrWouldBlock = iox.ErrWouldBlock
	// ErrMore means the underlying transport has more to give on a
	// subsequent call; treated the same as ErrWouldBlock by the retry loop.
	ErrMore = iox.ErrMore
)

// ioLoop drives exact-length reads and writes over a plain io.Reader/
// io.Writer, using RetryDelay to decide how to wait out ErrWouldBlock/
// ErrMore instead of returning it to the caller.
type ioLoop struct {
	retryDelay time.Duration // <0: nonblock, ==0: yield+retry, >0: sleep+retry
}

// waitOnceOnWouldBlock reports whether the caller should retry.
func (l *ioLoop) waitOnceOnWouldBlock() bool {
	if l.retryDelay < 0 {
		return false
	}
	if l.retryDelay == 0 {
		runtime.Gosched()
		return true
	}
	time.Sleep(l.retryDelay)
	return true
}

// readFull reads len(p) bytes from r, retrying on ErrWouldBlock/ErrMore
// per the configured policy. Bytes already read are kept across the retries
// made within one call. readFull keeps no state between calls: when the
// nonblock policy gives up, it returns how much of p was filled together
// with the error.
func (l *ioLoop) readFull(r io.Reader, p []byte) (n int, err error) {
	for n < len(p) {
		rn, re := l.readOnce(r, p[n:])
		n += rn
		if re != nil {
			if re == io.EOF {
				if n == 0 {
					return n, io.EOF
				}
				return n, io.ErrUnexpectedEOF
			}
			return n, re
		}
	}
	return n, nil
}

func (l *ioLoop) readOnce(r io.Reader, p []byte) (n int, err error) {
	for {
		n, err = r.Read(p)
		// Guard against Readers that violate the io.Reader contract by
		// returning (0, nil) on a non-empty buffer.
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrNoProgress
		}
		if n > 0 {
			return n, err
		}
		if err != ErrWouldBlock && err != ErrMore {
			return n, err
		}
		if !l.waitOnceOnWouldBlock() {
			return n, err
		}
	}
}

// writeFull writes all of p to w, retrying on ErrWouldBlock/ErrMore per the
// configured policy.
func (l *ioLoop) writeFull(w io.Writer, p []byte) (n int, err error) {
	for n < len(p) {
		wn, we := l.writeOnce(w, p[n:])
		n += wn
		if we != nil {
			return n, we
		}
	}
	return n, nil
}

func (l *ioLoop) writeOnce(w io.Writer, p []byte) (n int, err error) {
	for {
		n, err = w.Write(p)
		if len(p) != 0 && n == 0 && err == nil {
			return 0, io.ErrShortWrite
		}
		if n > 0 {
			return n, err
		}
		if err != ErrWouldBlock && err != ErrMore {
			return n, err
		}
		if !l.waitOnceOnWouldBlock() {
			return n, err
		}
	}
}
